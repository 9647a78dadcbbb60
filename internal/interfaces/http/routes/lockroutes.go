package routes

import (
	"github.com/gin-gonic/gin"

	"opsync/internal/interfaces/http/handlers"
	"opsync/internal/interfaces/http/middleware"
)

// LockRouteConfig holds dependencies for record-lock routes.
type LockRouteConfig struct {
	LockHandler        *handlers.LockHandler
	AuthMiddleware     *middleware.AuthMiddleware
	ActivityMiddleware gin.HandlerFunc
}

// SetupLockRoutes configures the analyst-facing lock routes.
func SetupLockRoutes(engine *gin.Engine, cfg *LockRouteConfig) {
	locks := engine.Group("/api/locks")
	locks.Use(cfg.AuthMiddleware.RequireAuth(), cfg.ActivityMiddleware)
	{
		locks.GET("", cfg.LockHandler.ListLocks)
		locks.POST("", cfg.LockHandler.AcquireLock)
		locks.POST("/:id/renew", cfg.LockHandler.RenewLock)
		locks.DELETE("/:id", cfg.LockHandler.ReleaseLock)
	}
}
