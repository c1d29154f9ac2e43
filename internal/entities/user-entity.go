package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	Phone        null.String `json:"phone"`
	Role         string      `json:"role"`
	AvatarURL    null.String `json:"avatar_url"`
	IsActive     bool        `json:"is_active"`
	PasswordHash string      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
