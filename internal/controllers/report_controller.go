package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"delivery-system/internal/services"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// ExportOrders streams the order set as CSV, or XLSX with ?format=xlsx.
func (c *ReportController) ExportOrders(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.QueryParams())
	stamp := time.Now().Format("2006-01-02")

	if ctx.QueryParam("format") == "xlsx" {
		data, err := c.reportService.ExportXLSX(ctx.Request().Context(), filter)
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="orders-%s.xlsx"`, stamp))
		return ctx.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}

	data, err := c.reportService.ExportCSV(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="orders-%s.csv"`, stamp))
	return ctx.Blob(http.StatusOK, "text/csv", data)
}

func (c *ReportController) ImportOrders(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewValidationError("CSV file is required"), c.logger)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer file.Close()

	result, err := c.reportService.ImportCSV(ctx.Request().Context(), file)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, result, "import complete", http.StatusOK)
}
