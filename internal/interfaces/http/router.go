// Package http wires the gin engine: middleware, handlers, and routes.
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	lockUsecases "opsync/internal/application/lock/usecases"
	sessionUsecases "opsync/internal/application/session/usecases"
	userUsecases "opsync/internal/application/user/usecases"
	"opsync/internal/domain/lock"
	"opsync/internal/infrastructure/auth"
	"opsync/internal/infrastructure/config"
	"opsync/internal/infrastructure/repository"
	"opsync/internal/interfaces/http/handlers"
	"opsync/internal/interfaces/http/middleware"
	"opsync/internal/interfaces/http/routes"
	"opsync/internal/shared/logger"
	"opsync/internal/shared/utils"
)

// Router holds the configured gin engine and its top-level dependencies.
type Router struct {
	engine *gin.Engine
	logger logger.Interface
}

// NewRouter builds the HTTP surface. The lock store is passed in rather than
// constructed here so the server command can share one store between the
// router and the in-process reaper job.
func NewRouter(db *gorm.DB, lockStore lock.Store, cfg *config.Config, log logger.Interface) *Router {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	registerValidations()

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	hasher := auth.NewBcryptPasswordHasher(cfg.Auth.Password.BcryptCost)
	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)

	lockTTL := time.Duration(cfg.Lock.TTLSeconds) * time.Second

	loginUC := userUsecases.NewLoginUseCase(userRepo, sessionRepo, hasher, jwtService, cfg.Auth.Session, log)
	logoutUC := userUsecases.NewLogoutUseCase(sessionRepo, log)
	getCurrentUserUC := userUsecases.NewGetCurrentUserUseCase(userRepo, log)

	listLocksUC := lockUsecases.NewListLocksUseCase(lockStore, log)
	listAllLocksUC := lockUsecases.NewListAllLocksUseCase(lockStore, log)
	acquireUC := lockUsecases.NewAcquireLockUseCase(lockStore, lockTTL, log)
	renewUC := lockUsecases.NewRenewLockUseCase(lockStore, lockTTL, log)
	releaseUC := lockUsecases.NewReleaseLockUseCase(lockStore, log)
	forceReleaseUC := lockUsecases.NewForceReleaseLockUseCase(lockStore, log)

	listSessionsUC := sessionUsecases.NewListSessionsUseCase(sessionRepo, log)
	terminateUC := sessionUsecases.NewTerminateSessionUseCase(sessionRepo, log)
	forceLogoutAllUC := sessionUsecases.NewForceLogoutAllUseCase(sessionRepo, log)
	touchUC := sessionUsecases.NewTouchSessionUseCase(sessionRepo, log)

	authHandler := handlers.NewAuthHandler(loginUC, logoutUC, getCurrentUserUC, cfg.Auth.Cookie, log)
	lockHandler := handlers.NewLockHandler(listLocksUC, listAllLocksUC, acquireUC, renewUC, releaseUC, forceReleaseUC, log)
	sessionHandler := handlers.NewSessionHandler(listSessionsUC, terminateUC, forceLogoutAllUC, log)

	authMiddleware := middleware.NewAuthMiddleware(jwtService, log)
	activityMiddleware := middleware.SessionActivity(touchUC, log)

	routes.SetupAuthRoutes(engine, &routes.AuthRouteConfig{
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		ActivityMiddleware: activityMiddleware,
	})
	routes.SetupLockRoutes(engine, &routes.LockRouteConfig{
		LockHandler:        lockHandler,
		AuthMiddleware:     authMiddleware,
		ActivityMiddleware: activityMiddleware,
	})
	routes.SetupAdminRoutes(engine, &routes.AdminRouteConfig{
		SessionHandler:     sessionHandler,
		LockHandler:        lockHandler,
		AuthMiddleware:     authMiddleware,
		ActivityMiddleware: activityMiddleware,
	})

	engine.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, 200, "", gin.H{"status": "ok"})
	})

	return &Router{
		engine: engine,
		logger: log,
	}
}

// Engine returns the underlying gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// registerValidations installs custom binding validators. Safe to call more
// than once; re-registering a tag overwrites the previous function.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("recordtype", func(fl validator.FieldLevel) bool {
			return lock.RecordType(fl.Field().String()).IsValid()
		})
	}
}
