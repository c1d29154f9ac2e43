package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
)

type OrderCommentsServiceInterface interface {
	GetComments(ctx context.Context, orderID string) ([]entities.OrderComment, error)
	AddComment(ctx context.Context, orderID, text string) (*entities.OrderComment, error)
	UpdateComment(ctx context.Context, commentID, text string) (*entities.OrderComment, error)
	DeleteComment(ctx context.Context, commentID string) error
}

type OrderCommentsService struct {
	commentsRepo  repositories.OrderCommentsRepositoryInterface
	orderRepo     repositories.OrderRepositoryInterface
	gatekeeper    *authz.Gatekeeper
	notifications NotificationServiceInterface
	logger        *zap.Logger
}

func NewOrderCommentsService(
	commentsRepo repositories.OrderCommentsRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	gatekeeper *authz.Gatekeeper,
	notifications NotificationServiceInterface,
	logger *zap.Logger,
) OrderCommentsServiceInterface {
	return &OrderCommentsService{
		commentsRepo:  commentsRepo,
		orderRepo:     orderRepo,
		gatekeeper:    gatekeeper,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *OrderCommentsService) GetComments(ctx context.Context, orderID string) ([]entities.OrderComment, error) {
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
	return s.commentsRepo.GetComments(ctx, orderID)
}

// AddComment: anyone who can see the order can comment on it, locked
// orders included.
func (s *OrderCommentsService) AddComment(ctx context.Context, orderID, text string) (*entities.OrderComment, error) {
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

	comment := &entities.OrderComment{
		ID:       uuid.NewString(),
		OrderID:  orderID,
		UserID:   actor.ID,
		UserName: actor.FullName,
		Comment:  text,
	}
	created, err := s.commentsRepo.CreateComment(ctx, comment)
	if err != nil {
		return nil, err
	}
	s.notifyComment(ctx, order, actor)
	return created, nil
}

// notifyComment fans out to the admins and the assigned driver, skipping
// the author. Failures are logged only.
func (s *OrderCommentsService) notifyComment(ctx context.Context, order *entities.Order, actor *entities.User) {
	title := "New comment"
	message := fmt.Sprintf("%s commented on order %s", actor.FullName, order.OrderNumber)

	if actor.Role != constants.RoleAdmin {
		if err := s.notifications.NotifyAdmins(ctx, title, message, constants.NotificationOrderComment, order.ID); err != nil {
			s.logger.Warn("comment notification to admins failed", zap.String("orderID", order.ID), zap.Error(err))
		}
	}
	if order.DriverID.Valid && order.DriverID.String != actor.ID {
		if err := s.notifications.NotifyUser(ctx, order.DriverID.String, title, message, constants.NotificationOrderComment, order.ID); err != nil {
			s.logger.Warn("comment notification to driver failed", zap.String("orderID", order.ID), zap.Error(err))
		}
	}
}

// UpdateComment: only the author edits their own comment.
func (s *OrderCommentsService) UpdateComment(ctx context.Context, commentID, text string) (*entities.OrderComment, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	comment, err := s.commentsRepo.FindComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.ID {
		return nil, apperrors.ErrForbidden
	}
	if err := s.commentsRepo.UpdateComment(ctx, commentID, text); err != nil {
		return nil, err
	}
	return s.commentsRepo.FindComment(ctx, commentID)
}

// DeleteComment: the author or an admin.
func (s *OrderCommentsService) DeleteComment(ctx context.Context, commentID string) error {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return err
	}
	comment, err := s.commentsRepo.FindComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID && !s.gatekeeper.Can(actor, authz.CommentsModerate) {
		return apperrors.ErrForbidden
	}
	return s.commentsRepo.DeleteComment(ctx, commentID)
}
