package routes

import (
	"github.com/gin-gonic/gin"

	"opsync/internal/interfaces/http/handlers"
	"opsync/internal/interfaces/http/middleware"
)

// AuthRouteConfig holds dependencies for authentication routes.
type AuthRouteConfig struct {
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	ActivityMiddleware gin.HandlerFunc
}

// SetupAuthRoutes configures authentication routes.
func SetupAuthRoutes(engine *gin.Engine, cfg *AuthRouteConfig) {
	auth := engine.Group("/api/auth")
	{
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/logout", cfg.AuthMiddleware.RequireAuth(), cfg.AuthHandler.Logout)
		auth.GET("/me", cfg.AuthMiddleware.RequireAuth(), cfg.ActivityMiddleware, cfg.AuthHandler.GetCurrentUser)
	}
}
