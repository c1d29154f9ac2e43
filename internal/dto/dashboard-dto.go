package dto

type OrderStatsDTO struct {
	TotalOrders     int64            `json:"total_orders"`
	StatusCounts    map[string]int64 `json:"status_counts"`
	OrdersPerMarket map[string]int64 `json:"orders_per_market"`
	Revenue         float64          `json:"revenue"`
	TotalMiles      float64          `json:"total_miles"`
	AverageMiles    float64          `json:"average_miles"`
	CompletionRate  float64          `json:"completion_rate"`
	OrdersPerDay    []DayCountDTO    `json:"orders_per_day"`
	DriverStats     []DriverStatsDTO `json:"driver_stats"`
}

type DayCountDTO struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type DriverStatsDTO struct {
	DriverID        string  `json:"driver_id"`
	DriverName      string  `json:"driver_name"`
	TotalOrders     int64   `json:"total_orders"`
	CompletedOrders int64   `json:"completed_orders"`
	ActiveOrders    int64   `json:"active_orders,omitempty"`
	TotalMiles      float64 `json:"total_miles"`
	TotalEarnings   float64 `json:"total_earnings"`
	OnTimeRate      float64 `json:"on_time_rate"`
}
