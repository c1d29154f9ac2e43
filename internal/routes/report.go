package routes

import (
	"github.com/labstack/echo/v4"

	"delivery-system/internal/controllers"
)

func runReportRouter(secure *echo.Group, dashboard *controllers.DashboardController, reports *controllers.ReportController) {
	secure.GET("/orders/stats", dashboard.GetOrderStats)
	secure.GET("/export/orders", reports.ExportOrders)
	secure.POST("/import/orders", reports.ImportOrders)
}
