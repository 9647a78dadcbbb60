package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"opsync/internal/application/session/usecases"
	"opsync/internal/shared/constants"
	"opsync/internal/shared/logger"
	"opsync/internal/shared/utils"
)

// SessionHandler serves the admin session registry endpoints.
type SessionHandler struct {
	listSessionsUseCase   *usecases.ListSessionsUseCase
	terminateUseCase      *usecases.TerminateSessionUseCase
	forceLogoutAllUseCase *usecases.ForceLogoutAllUseCase
	logger                logger.Interface
}

func NewSessionHandler(
	listSessionsUC *usecases.ListSessionsUseCase,
	terminateUC *usecases.TerminateSessionUseCase,
	forceLogoutAllUC *usecases.ForceLogoutAllUseCase,
	logger logger.Interface,
) *SessionHandler {
	return &SessionHandler{
		listSessionsUseCase:   listSessionsUC,
		terminateUseCase:      terminateUC,
		forceLogoutAllUseCase: forceLogoutAllUC,
		logger:                logger,
	}
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.listSessionsUseCase.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", sessions)
}

func (h *SessionHandler) TerminateSession(c *gin.Context) {
	err := h.terminateUseCase.Execute(c.Request.Context(), usecases.TerminateSessionCommand{
		SessionID:       c.Param("id"),
		CallerSessionID: c.GetString(constants.ContextKeySessionID),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

func (h *SessionHandler) ForceLogoutAll(c *gin.Context) {
	result, err := h.forceLogoutAllUseCase.Execute(c.Request.Context(), usecases.ForceLogoutAllCommand{
		CallerSessionID: c.GetString(constants.ContextKeySessionID),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "all other sessions terminated", result)
}
