package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"opsync/internal/application/user/usecases"
	"opsync/internal/shared/config"
	"opsync/internal/shared/constants"
	"opsync/internal/shared/logger"
	"opsync/internal/shared/utils"
)

type AuthHandler struct {
	loginUseCase          *usecases.LoginUseCase
	logoutUseCase         *usecases.LogoutUseCase
	getCurrentUserUseCase *usecases.GetCurrentUserUseCase
	cookieConfig          config.CookieConfig
	logger                logger.Interface
}

func NewAuthHandler(
	loginUC *usecases.LoginUseCase,
	logoutUC *usecases.LogoutUseCase,
	getCurrentUserUC *usecases.GetCurrentUserUseCase,
	cookieConfig config.CookieConfig,
	logger logger.Interface,
) *AuthHandler {
	return &AuthHandler{
		loginUseCase:          loginUC,
		logoutUseCase:         logoutUC,
		getCurrentUserUseCase: getCurrentUserUC,
		cookieConfig:          cookieConfig,
		logger:                logger,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), usecases.LoginCommand{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SetAccessTokenCookie(c, h.cookieConfig, result.AccessToken, result.ExpiresIn)

	utils.SuccessResponse(c, http.StatusOK, "login successful", gin.H{
		"user":       result.User,
		"expires_in": result.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := c.GetString(constants.ContextKeySessionID)

	if err := h.logoutUseCase.Execute(c.Request.Context(), usecases.LogoutCommand{SessionID: sessionID}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ClearAccessTokenCookie(c, h.cookieConfig)
	utils.SuccessResponse(c, http.StatusOK, "logout successful", nil)
}

func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint(constants.ContextKeyUserID)

	current, err := h.getCurrentUserUseCase.Execute(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", current)
}
