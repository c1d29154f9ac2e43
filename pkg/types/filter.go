package types

// Filter represents query parameters for listing orders.
type Filter struct {
	Search          string   `json:"search,omitempty"`
	Status          []string `json:"status,omitempty"`
	DriverID        string   `json:"driver_id,omitempty"`
	WeekNumber      int      `json:"week_number,omitempty"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	IncludeArchived bool     `json:"include_archived,omitempty"`
	Limit           int      `json:"limit"`
	Offset          int      `json:"offset"`
	Page            int      `json:"page"`
}

// DayCount is one bucket of the per-day order roll-up.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// DriverStats is one driver's slice of the performance roll-up.
type DriverStats struct {
	DriverID        string  `json:"driver_id"`
	DriverName      string  `json:"driver_name"`
	TotalOrders     int64   `json:"total_orders"`
	CompletedOrders int64   `json:"completed_orders"`
	TotalMiles      float64 `json:"total_miles"`
	TotalEarnings   float64 `json:"total_earnings"`
	OnTimeRate      float64 `json:"on_time_rate"`
}

// Pagination represents pagination metadata.
type Pagination struct {
	TotalCount uint64 `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}
