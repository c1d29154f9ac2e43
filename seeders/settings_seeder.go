package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultSettings are only inserted when the key is missing, so a
// re-run never overwrites operator changes.
var defaultSettings = []struct {
	key   string
	value string
}{
	{"current_week", `1`},
	{"default_pay_rate", `400`},
	{"container_types", `["20ft", "40ft", "40ft HC", "45ft"]`},
	{"markets", `["Atlanta", "Charlotte", "Nashville", "Jacksonville"]`},
	{"podium_message_template", `"Hi {customer}, your container delivery is scheduled for {date} ({window}). Reply here with any questions."`},
}

func seedSettings(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - seeding default settings...")

	for _, s := range defaultSettings {
		_, err := db.Exec(ctx,
			`INSERT INTO app_settings (key, value) VALUES ($1, $2::jsonb) ON CONFLICT (key) DO NOTHING`,
			s.key, s.value,
		)
		if err != nil {
			return fmt.Errorf("seed setting %q: %w", s.key, err)
		}
	}

	log.Println("  - default settings in place.")
	return nil
}
