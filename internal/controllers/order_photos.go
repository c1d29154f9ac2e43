package controllers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"delivery-system/internal/services"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"
)

type OrderPhotosController struct {
	photosService services.OrderPhotosServiceInterface
	logger        *zap.Logger
}

func NewOrderPhotosController(photosService services.OrderPhotosServiceInterface, logger *zap.Logger) *OrderPhotosController {
	return &OrderPhotosController{photosService: photosService, logger: logger}
}

func (c *OrderPhotosController) GetPhotos(ctx echo.Context) error {
	photos, err := c.photosService.GetPhotos(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, photos, "photos", http.StatusOK)
}

func (c *OrderPhotosController) UploadPhoto(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("photo")
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewValidationError("photo file is required"), c.logger)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	photo, err := c.photosService.UploadPhoto(ctx.Request().Context(), ctx.Param("id"), fileHeader.Filename, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, photo, "photo uploaded", http.StatusCreated)
}

func (c *OrderPhotosController) DeletePhoto(ctx echo.Context) error {
	if err := c.photosService.DeletePhoto(ctx.Request().Context(), ctx.Param("photoId")); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "photo deleted", http.StatusOK)
}
