package events

import "delivery-system/internal/entities"

// Event names the order services publish after a successful commit.
const (
	OrderCreatedName       = "order.created"
	OrderUpdatedName       = "order.updated"
	OrderStatusChangedName = "order.status_changed"
	OrderAssignedName      = "order.assigned"
	OrderDeletedName       = "order.deleted"
	WeekRotatedName        = "settings.week_rotated"
)

type OrderCreatedEvent struct {
	Order *entities.Order
	Actor *entities.User
}

func (e OrderCreatedEvent) Name() string { return OrderCreatedName }

type OrderUpdatedEvent struct {
	Order   *entities.Order
	Actor   *entities.User
	Changes map[string]interface{}
}

func (e OrderUpdatedEvent) Name() string { return OrderUpdatedName }

type OrderStatusChangedEvent struct {
	Order      *entities.Order
	Actor      *entities.User
	Field      string
	Value      bool
	FromStatus string
	ToStatus   string
	Reason     string
}

func (e OrderStatusChangedEvent) Name() string { return OrderStatusChangedName }

type OrderAssignedEvent struct {
	Order      *entities.Order
	Actor      *entities.User
	DriverID   string
	DriverName string
}

func (e OrderAssignedEvent) Name() string { return OrderAssignedName }

type OrderDeletedEvent struct {
	OrderID     string
	OrderNumber string
	Actor       *entities.User
}

func (e OrderDeletedEvent) Name() string { return OrderDeletedName }

type WeekRotatedEvent struct {
	PreviousWeek int
	CurrentWeek  int
	Actor        *entities.User
}

func (e WeekRotatedEvent) Name() string { return WeekRotatedName }
