package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Order is the central entity: one scheduled container delivery.
type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`

	Date           time.Time `json:"date"`
	DeliveryWindow string    `json:"delivery_window"`
	WeekNumber     int       `json:"week_number"`
	Market         string    `json:"market"`

	DriverID   null.String `json:"driver_id"`
	DriverName string      `json:"driver_name"`

	PickupStreet string `json:"pickup_street"`
	PickupCity   string `json:"pickup_city"`
	PickupState  string `json:"pickup_state"`
	PickupZip    string `json:"pickup_zip"`

	CustomerName   string `json:"customer_name"`
	CustomerStreet string `json:"customer_street"`
	CustomerCity   string `json:"customer_city"`
	CustomerState  string `json:"customer_state"`
	CustomerZip    string `json:"customer_zip"`
	CustomerPhone  string `json:"customer_phone"`

	ContainerType      string      `json:"container_type"`
	ContainerCondition null.String `json:"container_condition"`
	DoorPosition       null.String `json:"door_position"`
	ReleaseNumber      null.String `json:"release_number"`
	Miles              float64     `json:"miles"`
	DriverPay          float64     `json:"driver_pay"`
	Notes              null.String `json:"notes"`

	Status       string      `json:"status"`
	StatusReason null.String `json:"status_reason"`
	IsDispatched bool        `json:"is_dispatched"`
	IsLoaded     bool        `json:"is_loaded"`
	IsNotified   bool        `json:"is_notified"`
	IsDelayed    bool        `json:"is_delayed"`
	IsCancelled  bool        `json:"is_cancelled"`
	IsDelivered  bool        `json:"is_delivered"`
	IsLocked     bool        `json:"is_locked"`
	IsArchived   bool        `json:"is_archived"`

	CreatedBy null.String `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Checkbox returns the value of one of the six progress markers by its
// column name.
func (o *Order) Checkbox(field string) bool {
	switch field {
	case "is_dispatched":
		return o.IsDispatched
	case "is_loaded":
		return o.IsLoaded
	case "is_notified":
		return o.IsNotified
	case "is_delayed":
		return o.IsDelayed
	case "is_cancelled":
		return o.IsCancelled
	case "is_delivered":
		return o.IsDelivered
	}
	return false
}

// SetCheckbox sets one of the six progress markers by its column name.
func (o *Order) SetCheckbox(field string, value bool) {
	switch field {
	case "is_dispatched":
		o.IsDispatched = value
	case "is_loaded":
		o.IsLoaded = value
	case "is_notified":
		o.IsNotified = value
	case "is_delayed":
		o.IsDelayed = value
	case "is_cancelled":
		o.IsCancelled = value
	case "is_delivered":
		o.IsDelivered = value
	}
}
