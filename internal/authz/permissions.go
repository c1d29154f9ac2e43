package authz

import "delivery-system/pkg/constants"

// Capability names gate whole operations rather than individual fields.
const (
	OrdersCreate     = "orders:create"
	OrdersDelete     = "orders:delete"
	OrdersDuplicate  = "orders:duplicate"
	OrdersBulk       = "orders:bulk"
	OrdersArchive    = "orders:archive"
	OrdersExport     = "orders:export"
	OrdersImport     = "orders:import"
	UsersManage      = "users:manage"
	SettingsManage   = "settings:manage"
	CommentsModerate = "comments:moderate"
	DashboardView    = "dashboard:view"
	ActivityView     = "activity:view"
)

// roleCapabilities is the declarative capability table. Unknown roles get
// nothing.
var roleCapabilities = map[string]map[string]bool{
	constants.RoleAdmin: {
		OrdersCreate:     true,
		OrdersDelete:     true,
		OrdersDuplicate:  true,
		OrdersBulk:       true,
		OrdersArchive:    true,
		OrdersExport:     true,
		OrdersImport:     true,
		UsersManage:      true,
		SettingsManage:   true,
		CommentsModerate: true,
		DashboardView:    true,
		ActivityView:     true,
	},
	constants.RoleDispatcher: {
		OrdersExport:  true,
		DashboardView: true,
		ActivityView:  true,
	},
	constants.RoleDriver: {},
}

// editableOrderFields maps a role to the set of order columns it may write.
// nil means every column.
var editableOrderFields = map[string]map[string]bool{
	constants.RoleAdmin: nil,
	constants.RoleDriver: {
		constants.FieldIsDispatched: true,
		constants.FieldIsLoaded:     true,
		constants.FieldIsNotified:   true,
		constants.FieldIsDelayed:    true,
		constants.FieldIsCancelled:  true,
		constants.FieldIsDelivered:  true,
	},
	constants.RoleDispatcher: {},
}
