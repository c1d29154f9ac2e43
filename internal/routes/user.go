package routes

import (
	"github.com/labstack/echo/v4"

	"delivery-system/internal/controllers"
)

func runUserRouter(secure *echo.Group, ctrl *controllers.UserController) {
	userGroup := secure.Group("/users")
	{
		userGroup.GET("", ctrl.GetUsers)
		userGroup.POST("", ctrl.CreateUser)
		userGroup.GET("/:id", ctrl.GetUser)
		userGroup.GET("/:id/stats", ctrl.GetUserStats)
		userGroup.PATCH("/:id", ctrl.UpdateUser)
		userGroup.PATCH("/:id/role", ctrl.UpdateUserRole)
		userGroup.POST("/:id/toggle-active", ctrl.ToggleActive)
	}
}
