package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	apperrors "delivery-system/pkg/errors"
)

const notificationTable = "notifications"

const notificationSelectFields = `id, user_id, title, message, type, order_id, is_read, created_at`

type NotificationRepositoryInterface interface {
	GetNotifications(ctx context.Context, userID string, limit int) ([]entities.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	CreateNotification(ctx context.Context, n *entities.Notification) error
	CreateNotifications(ctx context.Context, ns []entities.Notification) error
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error
}

type NotificationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewNotificationRepository(storage *pgxpool.Pool, logger *zap.Logger) NotificationRepositoryInterface {
	return &NotificationRepository{storage: storage, logger: logger}
}

func (r *NotificationRepository) GetNotifications(ctx context.Context, userID string, limit int) ([]entities.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, notificationSelectFields, notificationTable)

	rows, err := r.storage.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]entities.Notification, 0)
	for rows.Next() {
		var n entities.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.OrderID, &n.IsRead, &n.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.ErrNotFound
			}
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(id) FROM %s WHERE user_id = $1 AND is_read = false", notificationTable)
	var count int64
	if err := r.storage.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n *entities.Notification) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, message, type, order_id)
		VALUES ($1, $2, $3, $4, $5, $6)`, notificationTable)

	if _, err := r.storage.Exec(ctx, query, n.ID, n.UserID, n.Title, n.Message, n.Type, n.OrderID); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// CreateNotifications fans one message out to many users in a single batch.
func (r *NotificationRepository) CreateNotifications(ctx context.Context, ns []entities.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, message, type, order_id)
		VALUES ($1, $2, $3, $4, $5, $6)`, notificationTable)
	for _, n := range ns {
		batch.Queue(query, n.ID, n.UserID, n.Title, n.Message, n.Type, n.OrderID)
	}

	results := r.storage.SendBatch(ctx, batch)
	defer results.Close()
	for range ns {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert notification batch: %w", err)
		}
	}
	return nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	query := fmt.Sprintf("UPDATE %s SET is_read = true WHERE id = $1 AND user_id = $2", notificationTable)
	tag, err := r.storage.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := fmt.Sprintf("UPDATE %s SET is_read = true WHERE user_id = $1 AND is_read = false", notificationTable)
	tag, err := r.storage.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) DeleteNotification(ctx context.Context, userID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND user_id = $2", notificationTable)
	tag, err := r.storage.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
