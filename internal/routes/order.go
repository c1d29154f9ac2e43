package routes

import (
	"github.com/labstack/echo/v4"

	"delivery-system/internal/controllers"
)

func runOrderRouter(
	secure *echo.Group,
	orders *controllers.OrderController,
	comments *controllers.OrderCommentsController,
	photos *controllers.OrderPhotosController,
) {
	orderGroup := secure.Group("/orders")
	{
		orderGroup.GET("", orders.GetOrders)
		orderGroup.POST("", orders.CreateOrder)
		orderGroup.POST("/bulk/status", orders.BulkUpdateStatus)
		orderGroup.POST("/bulk/reassign", orders.BulkReassignDriver)
		orderGroup.POST("/bulk/delete", orders.BulkDelete)
		orderGroup.POST("/archive", orders.ArchiveDelivered)

		orderGroup.GET("/:id", orders.GetOrder)
		orderGroup.PATCH("/:id", orders.UpdateOrder)
		orderGroup.DELETE("/:id", orders.DeleteOrder)
		orderGroup.PATCH("/:id/status", orders.UpdateOrderStatus)
		orderGroup.POST("/:id/duplicate", orders.DuplicateOrder)
		orderGroup.GET("/:id/activity", orders.GetOrderActivity)

		orderGroup.GET("/:id/comments", comments.GetComments)
		orderGroup.POST("/:id/comments", comments.AddComment)
		orderGroup.PATCH("/:id/comments/:commentId", comments.UpdateComment)
		orderGroup.DELETE("/:id/comments/:commentId", comments.DeleteComment)

		orderGroup.GET("/:id/photos", photos.GetPhotos)
		orderGroup.POST("/:id/photos", photos.UploadPhoto)
		orderGroup.DELETE("/:id/photos/:photoId", photos.DeletePhoto)
	}
}
