package router

import (
	"github.com/gin-gonic/gin"

	"github.com/studmarket/studmarket-backend/internal/config"
	"github.com/studmarket/studmarket-backend/internal/http/handlers"
	"github.com/studmarket/studmarket-backend/internal/http/middleware"
	"github.com/studmarket/studmarket-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	csrfHandler *handlers.CSRFHandler,
	catalogHandler *handlers.CatalogHandler,
	orderHandler *handlers.OrderHandler,
	disputeHandler *handlers.DisputeHandler,
	historyHandler *handlers.HistoryHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// Публичные маршруты: каталог и журналы правок читаются без авторизации.
	api.GET("/services/:id", middleware.UUIDValidator("id"), catalogHandler.GetListing)
	api.GET("/services/:id/history", middleware.UUIDValidator("id"), historyHandler.ServiceHistory)
	api.GET("/users/:id/history", middleware.UUIDValidator("id"), historyHandler.UserHistory)

	mutationRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	csrf := middleware.CSRFMiddleware([]byte(cfg.CSRFSecret))

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/csrf", csrfHandler.IssueToken)

		protected.POST("/services", catalogHandler.CreateListing)
		protected.GET("/services/my", catalogHandler.ListMyListings)
		protected.PATCH("/services/:id", middleware.UUIDValidator("id"), mutationRateLimit, catalogHandler.UpdateListing)

		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders/my", orderHandler.ListMyOrders)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.GetOrder)
		protected.POST("/orders/:id/activate", middleware.UUIDValidator("id"), orderHandler.ActivateOrder)
		protected.POST("/orders/:id/complete", middleware.UUIDValidator("id"), orderHandler.CompleteOrder)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), orderHandler.CancelOrder)

		// Открытие спора — браузерная форма: требуем CSRF токен.
		protected.POST("/orders/:id/dispute", middleware.UUIDValidator("id"), csrf, mutationRateLimit, disputeHandler.OpenDispute)
		protected.GET("/orders/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.GetDisputeByOrder)
		protected.GET("/disputes/my", disputeHandler.ListMyDisputes)
		protected.POST("/disputes/:id/evidence", middleware.UUIDValidator("id"), disputeHandler.UploadEvidence)
		protected.GET("/disputes/:id/evidence", middleware.UUIDValidator("id"), disputeHandler.ListEvidence)
	}

	// Администрирование споров
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireAdmin())
	{
		admin.GET("/disputes", disputeHandler.ListOpenDisputes)
		admin.POST("/disputes/:id/review", middleware.UUIDValidator("id"), disputeHandler.BeginReview)
		admin.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.ResolveDispute)
	}

	return r
}
