package entities

import (
	"encoding/json"
	"time"

	"github.com/aarondl/null/v8"
)

// AppSetting is one row of the flat key/value configuration table. Values
// are stored as jsonb.
type AppSetting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedBy null.String     `json:"updated_by"`
	UpdatedAt time.Time       `json:"updated_at"`
}
