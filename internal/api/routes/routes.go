package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/commutehq/corp-rides/internal/api/handlers"
	"github.com/commutehq/corp-rides/internal/api/middleware"
	"github.com/commutehq/corp-rides/internal/service/auth"
	"github.com/commutehq/corp-rides/pkg/logger"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, authService *auth.Service, log *logger.Logger, nrApp *newrelic.Application) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	requireAuth := middleware.RequireAuth(authService, log)

	api := r.Group("/api")
	{
		// Public auth endpoints
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/forgot-password", h.ForgotPassword)
			authGroup.POST("/reset-password", h.ResetPassword)
		}

		// Profile endpoints
		usersGroup := api.Group("/users", requireAuth)
		{
			usersGroup.GET("/me", h.GetProfile)
			usersGroup.PUT("/me", h.UpdateProfile)
			usersGroup.PUT("/me/password", h.ChangePassword)
		}

		// Ride endpoints (owner scoped)
		ridesGroup := api.Group("/rides", requireAuth)
		{
			ridesGroup.GET("", h.ListRides)
			ridesGroup.POST("", h.CreateRide)
			ridesGroup.GET("/:id", h.GetRide)
			ridesGroup.PUT("/:id", h.UpdateRide)
			ridesGroup.DELETE("/:id", h.CancelRide)
			ridesGroup.POST("/:id/feedback", h.SubmitFeedback)
		}

		// Admin endpoints
		adminGroup := api.Group("/admin", requireAuth, middleware.RequireAdmin())
		{
			adminGroup.GET("/rides", h.ListRides)
			adminGroup.PUT("/rides/:id/approve", h.ApproveRide)
			adminGroup.PUT("/rides/:id/reject", h.RejectRide)
			adminGroup.PUT("/rides/:id/start", h.StartRide)
			adminGroup.PUT("/rides/:id/complete", h.CompleteRide)
			adminGroup.GET("/users", h.ListUsers)
			adminGroup.PUT("/users/:id/status", h.SetUserStatus)
			adminGroup.GET("/analytics", h.GetAnalytics)
			adminGroup.GET("/actions", h.ListAdminActions)
			adminGroup.GET("/ws", h.HandleEventFeed)
		}
	}
}
