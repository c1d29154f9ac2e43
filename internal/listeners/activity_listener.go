package listeners

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/internal/events"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/eventbus"
)

// ActivityListener appends an audit row for every order mutation event.
// Failures are logged and swallowed, audit writes never fail the request.
type ActivityListener struct {
	activityRepo repositories.ActivityLogRepositoryInterface
	logger       *zap.Logger
}

func NewActivityListener(activityRepo repositories.ActivityLogRepositoryInterface, logger *zap.Logger) *ActivityListener {
	return &ActivityListener{activityRepo: activityRepo, logger: logger}
}

func (l *ActivityListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.OrderCreatedName, l.handle)
	bus.Subscribe(events.OrderUpdatedName, l.handle)
	bus.Subscribe(events.OrderStatusChangedName, l.handle)
	bus.Subscribe(events.OrderAssignedName, l.handle)
	bus.Subscribe(events.OrderDeletedName, l.handle)
}

func (l *ActivityListener) handle(ctx context.Context, event eventbus.Event) error {
	entry := l.buildEntry(event)
	if entry == nil {
		return nil
	}
	entry.ID = uuid.NewString()

	if err := l.activityRepo.Append(ctx, entry); err != nil {
		l.logger.Error("activity log append failed",
			zap.String("orderID", entry.OrderID),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
	return nil
}

func (l *ActivityListener) buildEntry(event eventbus.Event) *entities.ActivityLogEntry {
	switch e := event.(type) {
	case events.OrderCreatedEvent:
		return &entities.ActivityLogEntry{
			OrderID:  e.Order.ID,
			UserID:   e.Actor.ID,
			UserName: e.Actor.FullName,
			Action:   constants.ActivityCreated,
			Details: map[string]interface{}{
				"order_number": e.Order.OrderNumber,
			},
		}
	case events.OrderUpdatedEvent:
		return &entities.ActivityLogEntry{
			OrderID:  e.Order.ID,
			UserID:   e.Actor.ID,
			UserName: e.Actor.FullName,
			Action:   constants.ActivityUpdated,
			Details: map[string]interface{}{
				"changes": e.Changes,
			},
		}
	case events.OrderStatusChangedEvent:
		details := map[string]interface{}{
			"field":       e.Field,
			"value":       e.Value,
			"from_status": e.FromStatus,
			"to_status":   e.ToStatus,
		}
		if e.Reason != "" {
			details["reason"] = e.Reason
		}
		return &entities.ActivityLogEntry{
			OrderID:  e.Order.ID,
			UserID:   e.Actor.ID,
			UserName: e.Actor.FullName,
			Action:   constants.ActivityStatusChanged,
			Details:  details,
		}
	case events.OrderAssignedEvent:
		return &entities.ActivityLogEntry{
			OrderID:  e.Order.ID,
			UserID:   e.Actor.ID,
			UserName: e.Actor.FullName,
			Action:   constants.ActivityAssigned,
			Details: map[string]interface{}{
				"driver_id":   e.DriverID,
				"driver_name": e.DriverName,
			},
		}
	case events.OrderDeletedEvent:
		return &entities.ActivityLogEntry{
			OrderID:  e.OrderID,
			UserID:   e.Actor.ID,
			UserName: e.Actor.FullName,
			Action:   constants.ActivityDeleted,
			Details: map[string]interface{}{
				"order_number": e.OrderNumber,
			},
		}
	}
	return nil
}
