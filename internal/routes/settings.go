package routes

import (
	"github.com/labstack/echo/v4"

	"delivery-system/internal/controllers"
)

func runSettingsRouter(secure *echo.Group, ctrl *controllers.SettingsController) {
	group := secure.Group("/settings")
	{
		group.GET("", ctrl.GetSettings)
		group.GET("/:key", ctrl.GetSetting)
		group.PUT("/:key", ctrl.UpdateSetting)
		group.POST("/rotate-week", ctrl.RotateWeek)
	}
}
