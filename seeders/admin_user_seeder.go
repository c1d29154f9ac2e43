package seeders

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"delivery-system/pkg/constants"
)

func seedAdmin(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - creating the bootstrap admin user...")

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@delivery.local"
	}

	var existingID string
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = lower($1)", email).Scan(&existingID)
	if err == nil {
		log.Println("  - admin user already exists, skipping.")
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
		log.Println("  - ADMIN_PASSWORD not set, using the default. Change it after first login.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.Exec(ctx,
		`INSERT INTO users (email, full_name, role, is_active, password_hash)
		 VALUES ($1, $2, $3, true, $4)`,
		email, "Administrator", constants.RoleAdmin, string(hash),
	)
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Println("  - admin user created.")
	return nil
}
