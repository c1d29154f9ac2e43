package routes

import (
	"github.com/labstack/echo/v4"

	"delivery-system/internal/controllers"
)

func runNotificationRouter(secure *echo.Group, ctrl *controllers.NotificationController) {
	group := secure.Group("/notifications")
	{
		group.GET("", ctrl.GetNotifications)
		group.GET("/unread-count", ctrl.GetUnreadCount)
		group.POST("/read-all", ctrl.MarkAllRead)
		group.POST("/:id/read", ctrl.MarkRead)
		group.DELETE("/:id", ctrl.DeleteNotification)
	}
}
