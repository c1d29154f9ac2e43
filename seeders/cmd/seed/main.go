package main

import (
	"flag"
	"log"

	"delivery-system/pkg/config"
	"delivery-system/pkg/database/postgresql"
	"delivery-system/seeders"
)

func main() {
	runSettings := flag.Bool("settings", false, "seed the default app settings")
	runAdmin := flag.Bool("admin", false, "create the bootstrap admin user")
	runAll := flag.Bool("all", false, "run every seeder")
	flag.Parse()

	if !*runSettings && !*runAdmin && !*runAll {
		log.Println("no seeder selected.")
		log.Println("")
		flag.PrintDefaults()
		log.Println("")
		log.Println("examples:")
		log.Println("  go run ./seeders/cmd/seed -settings")
		log.Println("  go run ./seeders/cmd/seed -all")
		return
	}

	cfg := config.New()
	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	if *runAll || *runSettings {
		seeders.SeedSettings(dbPool)
	}
	if *runAll || *runAdmin {
		seeders.SeedAdmin(dbPool)
	}

	log.Println("seeding finished.")
}
