package dto

type CreateOrderCommentDTO struct {
	Comment string `json:"comment" validate:"required,min=1,max=2000"`
}

type UpdateOrderCommentDTO struct {
	Comment string `json:"comment" validate:"required,min=1,max=2000"`
}
