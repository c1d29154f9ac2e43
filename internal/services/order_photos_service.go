package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/imagestore"
)

type OrderPhotosServiceInterface interface {
	GetPhotos(ctx context.Context, orderID string) ([]entities.OrderPhoto, error)
	UploadPhoto(ctx context.Context, orderID, filename string, data []byte) (*entities.OrderPhoto, error)
	DeletePhoto(ctx context.Context, photoID string) error
}

type OrderPhotosService struct {
	photosRepo repositories.OrderPhotosRepositoryInterface
	orderRepo  repositories.OrderRepositoryInterface
	gatekeeper *authz.Gatekeeper
	images     imagestore.Uploader
	maxBytes   int64
	logger     *zap.Logger
}

func NewOrderPhotosService(
	photosRepo repositories.OrderPhotosRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	gatekeeper *authz.Gatekeeper,
	images imagestore.Uploader,
	maxBytes int64,
	logger *zap.Logger,
) OrderPhotosServiceInterface {
	return &OrderPhotosService{
		photosRepo: photosRepo,
		orderRepo:  orderRepo,
		gatekeeper: gatekeeper,
		images:     images,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

func (s *OrderPhotosService) GetPhotos(ctx context.Context, orderID string) ([]entities.OrderPhoto, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.CanViewOrder(actor, order) {
		return nil, apperrors.ErrForbidden
	}
	return s.photosRepo.GetPhotos(ctx, orderID)
}

// UploadPhoto stores the file at the image host first and rolls it back if
// the row insert fails.
func (s *OrderPhotosService) UploadPhoto(ctx context.Context, orderID, filename string, data []byte) (*entities.OrderPhoto, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.CanViewOrder(actor, order) {
		return nil, apperrors.ErrForbidden
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("empty file")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, apperrors.NewValidationError("file exceeds the %d byte limit", s.maxBytes)
	}

	uploaded, err := s.images.Upload(data, "orders/"+orderID, filename)
	if err != nil {
		return nil, err
	}

	photo := &entities.OrderPhoto{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		PhotoURL:   uploaded.URL,
		PublicID:   uploaded.PublicID,
		UploadedBy: null.StringFrom(actor.ID),
	}
	created, err := s.photosRepo.CreatePhoto(ctx, photo)
	if err != nil {
		if destroyErr := s.images.Destroy(uploaded.PublicID); destroyErr != nil {
			s.logger.Warn("orphaned upload cleanup failed", zap.String("publicID", uploaded.PublicID), zap.Error(destroyErr))
		}
		return nil, err
	}
	return created, nil
}

// DeletePhoto: the uploader or an admin. The row goes first, then the file.
func (s *OrderPhotosService) DeletePhoto(ctx context.Context, photoID string) error {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return err
	}
	photo, err := s.photosRepo.FindPhoto(ctx, photoID)
	if err != nil {
		return err
	}
	isUploader := photo.UploadedBy.Valid && photo.UploadedBy.String == actor.ID
	if !isUploader && !s.gatekeeper.Can(actor, authz.CommentsModerate) {
		return apperrors.ErrForbidden
	}

	if err := s.photosRepo.DeletePhoto(ctx, photoID); err != nil {
		return err
	}
	if err := s.images.Destroy(photo.PublicID); err != nil {
		s.logger.Warn("image cleanup failed", zap.String("publicID", photo.PublicID), zap.Error(err))
	}
	return nil
}
