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

type SettingsController struct {
	settingsService services.SettingsServiceInterface
	logger          *zap.Logger
}

func NewSettingsController(settingsService services.SettingsServiceInterface, logger *zap.Logger) *SettingsController {
	return &SettingsController{settingsService: settingsService, logger: logger}
}

func (c *SettingsController) GetSettings(ctx echo.Context) error {
	settings, err := c.settingsService.GetAll(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, settings, "settings", http.StatusOK)
}

func (c *SettingsController) GetSetting(ctx echo.Context) error {
	value, err := c.settingsService.Get(ctx.Request().Context(), ctx.Param("key"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, value, "setting", http.StatusOK)
}

func (c *SettingsController) UpdateSetting(ctx echo.Context) error {
	var payload dto.UpdateSettingDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.settingsService.Set(ctx.Request().Context(), ctx.Param("key"), payload.Value); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "setting updated", http.StatusOK)
}

func (c *SettingsController) RotateWeek(ctx echo.Context) error {
	previous, current, err := c.settingsService.RotateWeek(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	result := dto.RotateWeekResultDTO{PreviousWeek: previous, CurrentWeek: current}
	return utils.SuccessResponse(ctx, result, "week rotated", http.StatusOK)
}
