package routes

import (
	"github.com/gin-gonic/gin"

	"opsync/internal/interfaces/http/handlers"
	"opsync/internal/interfaces/http/middleware"
	"opsync/internal/shared/authorization"
)

// AdminRouteConfig holds dependencies for admin routes.
type AdminRouteConfig struct {
	SessionHandler     *handlers.SessionHandler
	LockHandler        *handlers.LockHandler
	AuthMiddleware     *middleware.AuthMiddleware
	ActivityMiddleware gin.HandlerFunc
}

// SetupAdminRoutes configures the role-gated admin surface.
func SetupAdminRoutes(engine *gin.Engine, cfg *AdminRouteConfig) {
	admin := engine.Group("/api/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.ActivityMiddleware, authorization.RequireAdmin())
	{
		admin.GET("/sessions", cfg.SessionHandler.ListSessions)
		admin.POST("/sessions/:id/terminate", cfg.SessionHandler.TerminateSession)
		admin.POST("/sessions/force-logout-all", cfg.SessionHandler.ForceLogoutAll)

		admin.GET("/locks", cfg.LockHandler.ListAllLocks)
		admin.POST("/locks/force-release", cfg.LockHandler.ForceReleaseLock)
	}
}
