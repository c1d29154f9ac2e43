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

const orderPhotoTable = "order_photos"

const orderPhotoSelectFields = `id, order_id, photo_url, public_id, uploaded_by, created_at`

type OrderPhotosRepositoryInterface interface {
	GetPhotos(ctx context.Context, orderID string) ([]entities.OrderPhoto, error)
	FindPhoto(ctx context.Context, id string) (*entities.OrderPhoto, error)
	CreatePhoto(ctx context.Context, photo *entities.OrderPhoto) (*entities.OrderPhoto, error)
	DeletePhoto(ctx context.Context, id string) error
	GetPublicIDsByOrders(ctx context.Context, orderIDs []string) ([]string, error)
}

type OrderPhotosRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderPhotosRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderPhotosRepositoryInterface {
	return &OrderPhotosRepository{storage: storage, logger: logger}
}

func scanOrderPhoto(row pgx.Row) (*entities.OrderPhoto, error) {
	var p entities.OrderPhoto
	err := row.Scan(&p.ID, &p.OrderID, &p.PhotoURL, &p.PublicID, &p.UploadedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *OrderPhotosRepository) GetPhotos(ctx context.Context, orderID string) ([]entities.OrderPhoto, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE order_id = $1 ORDER BY created_at ASC", orderPhotoSelectFields, orderPhotoTable)
	rows, err := r.storage.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("select photos: %w", err)
	}
	defer rows.Close()

	photos := make([]entities.OrderPhoto, 0)
	for rows.Next() {
		p, err := scanOrderPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

func (r *OrderPhotosRepository) FindPhoto(ctx context.Context, id string) (*entities.OrderPhoto, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", orderPhotoSelectFields, orderPhotoTable)
	return scanOrderPhoto(r.storage.QueryRow(ctx, query, id))
}

func (r *OrderPhotosRepository) CreatePhoto(ctx context.Context, photo *entities.OrderPhoto) (*entities.OrderPhoto, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, order_id, photo_url, public_id, uploaded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`, orderPhotoTable)

	err := r.storage.QueryRow(ctx, query, photo.ID, photo.OrderID, photo.PhotoURL, photo.PublicID, photo.UploadedBy).
		Scan(&photo.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert photo: %w", err)
	}
	return photo, nil
}

func (r *OrderPhotosRepository) DeletePhoto(ctx context.Context, id string) error {
	tag, err := r.storage.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", orderPhotoTable), id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetPublicIDsByOrders lists the image-host ids referenced by the given
// orders so the files can be cleaned up after a bulk delete.
func (r *OrderPhotosRepository) GetPublicIDsByOrders(ctx context.Context, orderIDs []string) ([]string, error) {
	query := fmt.Sprintf("SELECT public_id FROM %s WHERE order_id = ANY($1)", orderPhotoTable)
	rows, err := r.storage.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("select photo public ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
