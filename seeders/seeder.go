package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedSettings fills app_settings with the defaults a fresh install needs.
func SeedSettings(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("seeding settings...")

	if err := seedSettings(ctx, db); err != nil {
		log.Fatalf("settings seeding failed: %v", err)
	}
	log.Println("settings seeding done.")
}

// SeedAdmin creates the bootstrap admin account if it does not exist.
func SeedAdmin(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("seeding admin user...")

	if err := seedAdmin(ctx, db); err != nil {
		log.Fatalf("admin seeding failed: %v", err)
	}
	log.Println("admin seeding done.")
}
