package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	apperrors "delivery-system/pkg/errors"
)

const settingsTable = "app_settings"

type SettingsRepositoryInterface interface {
	GetAll(ctx context.Context) ([]entities.AppSetting, error)
	Get(ctx context.Context, key string) (*entities.AppSetting, error)
	Upsert(ctx context.Context, key string, value json.RawMessage, updatedBy null.String) error
}

type SettingsRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewSettingsRepository(storage *pgxpool.Pool, logger *zap.Logger) SettingsRepositoryInterface {
	return &SettingsRepository{storage: storage, logger: logger}
}

func (r *SettingsRepository) GetAll(ctx context.Context) ([]entities.AppSetting, error) {
	query := fmt.Sprintf("SELECT key, value, updated_by, updated_at FROM %s ORDER BY key", settingsTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	settings := make([]entities.AppSetting, 0)
	for rows.Next() {
		var s entities.AppSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (*entities.AppSetting, error) {
	query := fmt.Sprintf("SELECT key, value, updated_by, updated_at FROM %s WHERE key = $1", settingsTable)
	var s entities.AppSetting
	err := r.storage.QueryRow(ctx, query, key).Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, key string, value json.RawMessage, updatedBy null.String) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_by = $3, updated_at = now()`, settingsTable)

	if _, err := r.storage.Exec(ctx, query, key, value, updatedBy); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}
