package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// OrderPhoto references an image kept by the external image host.
type OrderPhoto struct {
	ID         string      `json:"id"`
	OrderID    string      `json:"order_id"`
	PhotoURL   string      `json:"photo_url"`
	PublicID   string      `json:"public_id"`
	UploadedBy null.String `json:"uploaded_by"`
	CreatedAt  time.Time   `json:"created_at"`
}
