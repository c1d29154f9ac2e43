package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/controllers"
	"delivery-system/internal/listeners"
	"delivery-system/internal/repositories"
	"delivery-system/internal/services"
	"delivery-system/pkg/config"
	"delivery-system/pkg/eventbus"
	"delivery-system/pkg/imagestore"
	"delivery-system/pkg/middleware"
	"delivery-system/pkg/service"
)

type Loggers struct {
	Main     *zap.Logger
	Auth     *zap.Logger
	Order    *zap.Logger
	User     *zap.Logger
	Activity *zap.Logger
}

// InitRouter builds the whole dependency graph and mounts every route
// group.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, loggers *Loggers, cfg *config.Config) {
	api := e.Group("/api")

	images, err := imagestore.NewLocalImageStore(cfg.Upload.Dir)
	if err != nil {
		loggers.Main.Fatal("image store init failed", zap.Error(err))
	}
	txManager := repositories.NewTxManager(dbConn)
	gatekeeper := authz.NewGatekeeper()
	bus := eventbus.New(loggers.Main)

	// Repositories.
	userRepo := repositories.NewUserRepository(dbConn, loggers.User)
	orderRepo := repositories.NewOrderRepository(dbConn, loggers.Order)
	commentsRepo := repositories.NewOrderCommentsRepository(dbConn, loggers.Order)
	photosRepo := repositories.NewOrderPhotosRepository(dbConn, loggers.Order)
	notificationRepo := repositories.NewNotificationRepository(dbConn, loggers.Main)
	activityRepo := repositories.NewActivityLogRepository(dbConn, loggers.Activity)
	settingsRepo := repositories.NewSettingsRepository(dbConn, loggers.Main)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// Services.
	notificationService := services.NewNotificationService(notificationRepo, userRepo, loggers.Main)
	settingsService := services.NewSettingsService(settingsRepo, notificationService, gatekeeper, bus, cfg.Settings.CacheTTL, loggers.Main)
	orderService := services.NewOrderService(
		orderRepo, photosRepo, commentsRepo, activityRepo, userRepo,
		settingsService, gatekeeper, txManager, bus, images, loggers.Order,
	)
	commentsService := services.NewOrderCommentsService(commentsRepo, orderRepo, gatekeeper, notificationService, loggers.Order)
	photosService := services.NewOrderPhotosService(photosRepo, orderRepo, gatekeeper, images, cfg.Upload.MaxPhotoBytes, loggers.Order)
	userService := services.NewUserService(userRepo, orderRepo, cacheRepo, gatekeeper, loggers.User)
	authService := services.NewAuthService(userRepo, cacheRepo, jwtSvc, loggers.Auth)
	dashboardService := services.NewDashboardService(orderRepo, gatekeeper, loggers.Main)
	reportService := services.NewReportService(orderRepo, userRepo, settingsService, gatekeeper, loggers.Main)

	// Post-commit listeners.
	listeners.NewActivityListener(activityRepo, loggers.Activity).Register(bus)
	listeners.NewNotificationListener(notificationService, loggers.Main).Register(bus)

	// Controllers.
	authController := controllers.NewAuthController(authService, loggers.Auth)
	orderController := controllers.NewOrderController(orderService, loggers.Order)
	commentsController := controllers.NewOrderCommentsController(commentsService, loggers.Order)
	photosController := controllers.NewOrderPhotosController(photosService, loggers.Order)
	notificationController := controllers.NewNotificationController(notificationService, loggers.Main)
	settingsController := controllers.NewSettingsController(settingsService, loggers.Main)
	userController := controllers.NewUserController(userService, loggers.User)
	dashboardController := controllers.NewDashboardController(dashboardService, loggers.Main)
	reportController := controllers.NewReportController(reportService, loggers.Main)

	authMW := middleware.NewAuthMiddleware(jwtSvc, authService, loggers.Auth)
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, secureGroup, authController)
	runOrderRouter(secureGroup, orderController, commentsController, photosController)
	runUserRouter(secureGroup, userController)
	runNotificationRouter(secureGroup, notificationController)
	runSettingsRouter(secureGroup, settingsController)
	runReportRouter(secureGroup, dashboardController, reportController)
}
