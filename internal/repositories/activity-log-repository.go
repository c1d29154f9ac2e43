package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
)

const activityLogTable = "order_activity_log"

type ActivityLogRepositoryInterface interface {
	Append(ctx context.Context, entry *entities.ActivityLogEntry) error
	GetByOrder(ctx context.Context, orderID string, limit int) ([]entities.ActivityLogEntry, error)
}

type ActivityLogRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewActivityLogRepository(storage *pgxpool.Pool, logger *zap.Logger) ActivityLogRepositoryInterface {
	return &ActivityLogRepository{storage: storage, logger: logger}
}

func (r *ActivityLogRepository) Append(ctx context.Context, entry *entities.ActivityLogEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal activity details: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, order_id, user_id, user_name, action, details)
		VALUES ($1, $2, $3, $4, $5, $6)`, activityLogTable)

	if _, err := r.storage.Exec(ctx, query, entry.ID, entry.OrderID, entry.UserID, entry.UserName, entry.Action, details); err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}
	return nil
}

func (r *ActivityLogRepository) GetByOrder(ctx context.Context, orderID string, limit int) ([]entities.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT id, order_id, user_id, user_name, action, details, created_at
		FROM %s
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, activityLogTable)

	rows, err := r.storage.Query(ctx, query, orderID, limit)
	if err != nil {
		return nil, fmt.Errorf("select activity log: %w", err)
	}
	defer rows.Close()

	entries := make([]entities.ActivityLogEntry, 0)
	for rows.Next() {
		var e entities.ActivityLogEntry
		var details []byte
		if err := rows.Scan(&e.ID, &e.OrderID, &e.UserID, &e.UserName, &e.Action, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal activity details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
