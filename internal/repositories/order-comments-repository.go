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

const orderCommentTable = "order_comments"

const orderCommentSelectFields = `c.id, c.order_id, c.user_id, u.full_name, c.comment, c.created_at, c.updated_at`

type OrderCommentsRepositoryInterface interface {
	GetComments(ctx context.Context, orderID string) ([]entities.OrderComment, error)
	FindComment(ctx context.Context, id string) (*entities.OrderComment, error)
	CreateComment(ctx context.Context, comment *entities.OrderComment) (*entities.OrderComment, error)
	UpdateComment(ctx context.Context, id, text string) error
	DeleteComment(ctx context.Context, id string) error
}

type OrderCommentsRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderCommentsRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderCommentsRepositoryInterface {
	return &OrderCommentsRepository{storage: storage, logger: logger}
}

func scanOrderComment(row pgx.Row) (*entities.OrderComment, error) {
	var c entities.OrderComment
	err := row.Scan(&c.ID, &c.OrderID, &c.UserID, &c.UserName, &c.Comment, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *OrderCommentsRepository) GetComments(ctx context.Context, orderID string) ([]entities.OrderComment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s c
		JOIN users u ON u.id = c.user_id
		WHERE c.order_id = $1
		ORDER BY c.created_at ASC`, orderCommentSelectFields, orderCommentTable)

	rows, err := r.storage.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}
	defer rows.Close()

	comments := make([]entities.OrderComment, 0)
	for rows.Next() {
		c, err := scanOrderComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func (r *OrderCommentsRepository) FindComment(ctx context.Context, id string) (*entities.OrderComment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1`, orderCommentSelectFields, orderCommentTable)
	return scanOrderComment(r.storage.QueryRow(ctx, query, id))
}

func (r *OrderCommentsRepository) CreateComment(ctx context.Context, comment *entities.OrderComment) (*entities.OrderComment, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, order_id, user_id, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`, orderCommentTable)

	err := r.storage.QueryRow(ctx, query, comment.ID, comment.OrderID, comment.UserID, comment.Comment).
		Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return comment, nil
}

func (r *OrderCommentsRepository) UpdateComment(ctx context.Context, id, text string) error {
	query := fmt.Sprintf("UPDATE %s SET comment = $2, updated_at = now() WHERE id = $1", orderCommentTable)
	tag, err := r.storage.Exec(ctx, query, id, text)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *OrderCommentsRepository) DeleteComment(ctx context.Context, id string) error {
	tag, err := r.storage.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", orderCommentTable), id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
