package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
)

type NotificationServiceInterface interface {
	GetNotifications(ctx context.Context, userID string, limit int) ([]entities.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error
	NotifyUser(ctx context.Context, userID, title, message, notifType, orderID string) error
	NotifyAdmins(ctx context.Context, title, message, notifType, orderID string) error
	NotifyAllActive(ctx context.Context, title, message, notifType string) error
}

type NotificationService struct {
	notificationRepo repositories.NotificationRepositoryInterface
	userRepo         repositories.UserRepositoryInterface
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) NotificationServiceInterface {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		logger:           logger,
	}
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID string, limit int) ([]entities.Notification, error) {
	return s.notificationRepo.GetNotifications(ctx, userID, limit)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.notificationRepo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) DeleteNotification(ctx context.Context, userID, id string) error {
	return s.notificationRepo.DeleteNotification(ctx, userID, id)
}

func (s *NotificationService) NotifyUser(ctx context.Context, userID, title, message, notifType, orderID string) error {
	n := entities.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    notifType,
	}
	if orderID != "" {
		n.OrderID = null.StringFrom(orderID)
	}
	return s.notificationRepo.CreateNotification(ctx, &n)
}

func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, notifType, orderID string) error {
	adminIDs, err := s.userRepo.GetAdminIDs(ctx)
	if err != nil {
		return err
	}
	return s.fanOut(ctx, adminIDs, title, message, notifType, orderID)
}

func (s *NotificationService) NotifyAllActive(ctx context.Context, title, message, notifType string) error {
	userIDs, err := s.userRepo.GetActiveUserIDs(ctx)
	if err != nil {
		return err
	}
	return s.fanOut(ctx, userIDs, title, message, notifType, "")
}

func (s *NotificationService) fanOut(ctx context.Context, userIDs []string, title, message, notifType, orderID string) error {
	if len(userIDs) == 0 {
		return nil
	}
	notifications := make([]entities.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		n := entities.Notification{
			ID:      uuid.NewString(),
			UserID:  userID,
			Title:   title,
			Message: message,
			Type:    notifType,
		}
		if orderID != "" {
			n.OrderID = null.StringFrom(orderID)
		}
		notifications = append(notifications, n)
	}
	return s.notificationRepo.CreateNotifications(ctx, notifications)
}
