package dto

type CreateUserDTO struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	FullName string  `json:"full_name" validate:"required,min=2,max=128"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Role     string  `json:"role" validate:"required,oneof=admin driver dispatcher"`
}

type UpdateUserDTO struct {
	FullName  *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=128"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=admin driver dispatcher"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

type UpdateUserRoleDTO struct {
	Role string `json:"role" validate:"required,oneof=admin driver dispatcher"`
}

type ToggleActiveResultDTO struct {
	UserID               string `json:"user_id"`
	IsActive             bool   `json:"is_active"`
	UnassignedOrderCount int    `json:"unassigned_order_count"`
}
