package middleware

import (
	"github.com/gin-gonic/gin"

	"opsync/internal/application/session/usecases"
	"opsync/internal/shared/constants"
	"opsync/internal/shared/logger"
	"opsync/internal/shared/utils"
)

// SessionActivity validates the session behind the token on every request and
// refreshes its last-activity timestamp. A valid token whose session was
// terminated or expired fails here with 401, which is how force-logout
// propagates to live clients. Must run after RequireAuth.
func SessionActivity(touchUseCase *usecases.TouchSessionUseCase, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetString(constants.ContextKeySessionID)
		if sessionID == "" {
			utils.ErrorResponse(c, 401, "missing session")
			c.Abort()
			return
		}

		if err := touchUseCase.Execute(c.Request.Context(), sessionID); err != nil {
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}
