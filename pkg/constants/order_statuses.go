package constants

// --- ORDER STATUSES (matches the status column in the orders table) ---
const (
	StatusDispatched = "dispatched"
	StatusLoaded     = "loaded"
	StatusNotified   = "notified"
	StatusDelayed    = "delayed"
	StatusCancelled  = "cancelled"
	StatusDelivered  = "delivered"
)

// Checkbox fields: the six cumulative progress markers on an order.
const (
	FieldIsDispatched = "is_dispatched"
	FieldIsLoaded     = "is_loaded"
	FieldIsNotified   = "is_notified"
	FieldIsDelayed    = "is_delayed"
	FieldIsCancelled  = "is_cancelled"
	FieldIsDelivered  = "is_delivered"
)

var CheckboxFields = []string{
	FieldIsDispatched,
	FieldIsLoaded,
	FieldIsNotified,
	FieldIsDelayed,
	FieldIsCancelled,
	FieldIsDelivered,
}

var AllStatuses = []string{
	StatusDispatched,
	StatusLoaded,
	StatusNotified,
	StatusDelayed,
	StatusCancelled,
	StatusDelivered,
}

// Terminal statuses: orders in these states are excluded from the
// driver-deactivation unassignment sweep.
var TerminalStatuses = []string{
	StatusDelivered,
	StatusCancelled,
}

func IsCheckboxField(name string) bool {
	for _, f := range CheckboxFields {
		if f == name {
			return true
		}
	}
	return false
}

func IsValidStatus(code string) bool {
	for _, s := range AllStatuses {
		if s == code {
			return true
		}
	}
	return false
}

func IsTerminalStatus(code string) bool {
	for _, s := range TerminalStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// StatusNeedsReason reports whether status_reason is mandatory for a status.
func StatusNeedsReason(code string) bool {
	return code == StatusDelayed || code == StatusCancelled
}
