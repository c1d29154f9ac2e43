package constants

// User roles (matches the role column in the users table).
const (
	RoleAdmin      = "admin"
	RoleDriver     = "driver"
	RoleDispatcher = "dispatcher"
)

// Notification types.
const (
	NotificationOrderAssigned = "order_assigned"
	NotificationStatusChanged = "status_changed"
	NotificationOrderCreated  = "order_created"
	NotificationOrderDelayed  = "order_delayed"
	NotificationOrderComment  = "order_comment"
	NotificationWeekRotation  = "week_rotation"
)

// Activity log actions.
const (
	ActivityCreated       = "created"
	ActivityUpdated       = "updated"
	ActivityDeleted       = "deleted"
	ActivityStatusChanged = "status_changed"
	ActivityAssigned      = "assigned"
)

// Delivery windows.
const (
	WindowAM = "AM"
	WindowPM = "PM"
)

// Driver name snapshot used when an order has no assigned driver.
const UnassignedDriverName = "Unassigned"
