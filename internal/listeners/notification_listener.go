package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"delivery-system/internal/events"
	"delivery-system/internal/services"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/eventbus"
)

// NotificationListener turns order mutation events into user notifications.
// Delivery is best effort, a failed write is logged and the request is not
// affected.
type NotificationListener struct {
	notificationService services.NotificationServiceInterface
	logger              *zap.Logger
}

func NewNotificationListener(notificationService services.NotificationServiceInterface, logger *zap.Logger) *NotificationListener {
	return &NotificationListener{notificationService: notificationService, logger: logger}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.OrderCreatedName, l.handleOrderCreated)
	bus.Subscribe(events.OrderStatusChangedName, l.handleStatusChanged)
	bus.Subscribe(events.OrderAssignedName, l.handleOrderAssigned)
}

func (l *NotificationListener) handleOrderCreated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderCreatedEvent)
	if !ok {
		return nil
	}
	if !e.Order.DriverID.Valid {
		return nil
	}

	message := fmt.Sprintf("Order %s on %s (%s) has been assigned to you",
		e.Order.OrderNumber, e.Order.Date.Format("Jan 2"), e.Order.DeliveryWindow)
	if err := l.notificationService.NotifyUser(ctx, e.Order.DriverID.String,
		"New order assigned", message, constants.NotificationOrderCreated, e.Order.ID); err != nil {
		l.logger.Error("order created notification failed", zap.String("orderID", e.Order.ID), zap.Error(err))
	}
	return nil
}

func (l *NotificationListener) handleStatusChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderStatusChangedEvent)
	if !ok || e.FromStatus == e.ToStatus {
		return nil
	}

	notifType := constants.NotificationStatusChanged
	title := "Order status updated"
	message := fmt.Sprintf("Order %s is now %s", e.Order.OrderNumber, e.ToStatus)
	if e.ToStatus == constants.StatusDelayed {
		notifType = constants.NotificationOrderDelayed
		title = "Order delayed"
		message = fmt.Sprintf("Order %s has been delayed: %s", e.Order.OrderNumber, e.Reason)
	}

	if err := l.notificationService.NotifyAdmins(ctx, title, message, notifType, e.Order.ID); err != nil {
		l.logger.Error("status change notification to admins failed", zap.String("orderID", e.Order.ID), zap.Error(err))
	}

	// The assigned driver also hears about changes made by someone else.
	if e.Order.DriverID.Valid && e.Order.DriverID.String != e.Actor.ID {
		if err := l.notificationService.NotifyUser(ctx, e.Order.DriverID.String, title, message, notifType, e.Order.ID); err != nil {
			l.logger.Error("status change notification to driver failed", zap.String("orderID", e.Order.ID), zap.Error(err))
		}
	}
	return nil
}

func (l *NotificationListener) handleOrderAssigned(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderAssignedEvent)
	if !ok || e.DriverID == "" {
		return nil
	}

	message := fmt.Sprintf("Order %s on %s (%s) has been assigned to you",
		e.Order.OrderNumber, e.Order.Date.Format("Jan 2"), e.Order.DeliveryWindow)
	if err := l.notificationService.NotifyUser(ctx, e.DriverID,
		"Order assigned", message, constants.NotificationOrderAssigned, e.Order.ID); err != nil {
		l.logger.Error("order assigned notification failed", zap.String("orderID", e.Order.ID), zap.Error(err))
	}
	return nil
}
