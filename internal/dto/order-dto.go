package dto

type CreateOrderDTO struct {
	OrderNumber    string `json:"order_number" validate:"required,min=3,max=64"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	DeliveryWindow string `json:"delivery_window" validate:"required,oneof=AM PM"`
	WeekNumber     *int   `json:"week_number,omitempty" validate:"omitempty,oneof=1 2"`
	Market         string `json:"market" validate:"required,min=2,max=64"`

	DriverID *string `json:"driver_id,omitempty" validate:"omitempty,uuid4"`

	PickupStreet string `json:"pickup_street" validate:"required"`
	PickupCity   string `json:"pickup_city" validate:"required"`
	PickupState  string `json:"pickup_state" validate:"required,len=2"`
	PickupZip    string `json:"pickup_zip" validate:"required,min=5,max=10"`

	CustomerName   string `json:"customer_name" validate:"required,min=2"`
	CustomerStreet string `json:"customer_street" validate:"required"`
	CustomerCity   string `json:"customer_city" validate:"required"`
	CustomerState  string `json:"customer_state" validate:"required,len=2"`
	CustomerZip    string `json:"customer_zip" validate:"required,min=5,max=10"`
	CustomerPhone  string `json:"customer_phone" validate:"omitempty,min=7,max=20"`

	ContainerType      string  `json:"container_type" validate:"required"`
	ContainerCondition *string `json:"container_condition,omitempty"`
	DoorPosition       *string `json:"door_position,omitempty"`
	ReleaseNumber      *string `json:"release_number,omitempty"`
	Miles              float64 `json:"miles" validate:"gte=0"`
	DriverPay          float64 `json:"driver_pay" validate:"gte=0"`
	Notes              *string `json:"notes,omitempty"`
}

// UpdateOrderDTO carries a free-form field patch. The permission layer
// intersects the keys with the actor's allowed set before anything is
// written.
type UpdateOrderDTO struct {
	Updates map[string]interface{} `json:"updates" validate:"required,min=1"`
}

type UpdateOrderStatusDTO struct {
	Field  string `json:"field" validate:"required"`
	Value  bool   `json:"value"`
	Reason string `json:"reason,omitempty"`
}

type BulkStatusUpdateDTO struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1,dive,uuid4"`
	Field    string   `json:"field" validate:"required"`
	Value    bool     `json:"value"`
	Reason   string   `json:"reason,omitempty"`
}

type BulkReassignDTO struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1,dive,uuid4"`
	DriverID string   `json:"driver_id" validate:"required,uuid4"`
}

type BulkDeleteDTO struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1,dive,uuid4"`
}

type ArchiveOrdersDTO struct {
	WeekNumber int `json:"week_number" validate:"required,oneof=1 2"`
}

type BulkResultDTO struct {
	Requested int `json:"requested"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
}
