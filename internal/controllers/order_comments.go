package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"delivery-system/internal/dto"
	"delivery-system/internal/services"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"
)

type OrderCommentsController struct {
	commentsService services.OrderCommentsServiceInterface
	logger          *zap.Logger
}

func NewOrderCommentsController(commentsService services.OrderCommentsServiceInterface, logger *zap.Logger) *OrderCommentsController {
	return &OrderCommentsController{commentsService: commentsService, logger: logger}
}

func (c *OrderCommentsController) GetComments(ctx echo.Context) error {
	comments, err := c.commentsService.GetComments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, comments, "comments", http.StatusOK)
}

func (c *OrderCommentsController) AddComment(ctx echo.Context) error {
	var payload dto.CreateOrderCommentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	comment, err := c.commentsService.AddComment(ctx.Request().Context(), ctx.Param("id"), payload.Comment)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, comment, "comment added", http.StatusCreated)
}

func (c *OrderCommentsController) UpdateComment(ctx echo.Context) error {
	var payload dto.UpdateOrderCommentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	comment, err := c.commentsService.UpdateComment(ctx.Request().Context(), ctx.Param("commentId"), payload.Comment)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, comment, "comment updated", http.StatusOK)
}

func (c *OrderCommentsController) DeleteComment(ctx echo.Context) error {
	if err := c.commentsService.DeleteComment(ctx.Request().Context(), ctx.Param("commentId")); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "comment deleted", http.StatusOK)
}
