package entities

import "time"

// ActivityLogEntry is an append-only audit record. Entries are never mutated
// or deleted and are never read back for logic decisions.
type ActivityLogEntry struct {
	ID        string                 `json:"id"`
	OrderID   string                 `json:"order_id"`
	UserID    string                 `json:"user_id"`
	UserName  string                 `json:"user_name"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details"`
	CreatedAt time.Time              `json:"created_at"`
}
