package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"opsync/internal/application/lock/usecases"
	"opsync/internal/shared/constants"
	"opsync/internal/shared/logger"
	"opsync/internal/shared/utils"
)

type LockHandler struct {
	listLocksUseCase    *usecases.ListLocksUseCase
	listAllLocksUseCase *usecases.ListAllLocksUseCase
	acquireUseCase      *usecases.AcquireLockUseCase
	renewUseCase        *usecases.RenewLockUseCase
	releaseUseCase      *usecases.ReleaseLockUseCase
	forceReleaseUseCase *usecases.ForceReleaseLockUseCase
	logger              logger.Interface
}

func NewLockHandler(
	listLocksUC *usecases.ListLocksUseCase,
	listAllLocksUC *usecases.ListAllLocksUseCase,
	acquireUC *usecases.AcquireLockUseCase,
	renewUC *usecases.RenewLockUseCase,
	releaseUC *usecases.ReleaseLockUseCase,
	forceReleaseUC *usecases.ForceReleaseLockUseCase,
	logger logger.Interface,
) *LockHandler {
	return &LockHandler{
		listLocksUseCase:    listLocksUC,
		listAllLocksUseCase: listAllLocksUC,
		acquireUseCase:      acquireUC,
		renewUseCase:        renewUC,
		releaseUseCase:      releaseUC,
		forceReleaseUseCase: forceReleaseUC,
		logger:              logger,
	}
}

type AcquireLockRequest struct {
	ScopeID    uint   `json:"scope_id" binding:"required"`
	RecordType string `json:"record_type" binding:"required,recordtype"`
	RecordID   uint   `json:"record_id" binding:"required"`
}

type ForceReleaseLockRequest struct {
	ScopeID    uint   `json:"scope_id" binding:"required"`
	RecordType string `json:"record_type" binding:"required,recordtype"`
	RecordID   uint   `json:"record_id" binding:"required"`
}

// ListLocks returns the live locks of one scope.
func (h *LockHandler) ListLocks(c *gin.Context) {
	scopeID, err := strconv.ParseUint(c.Query("scope_id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "scope_id query parameter is required")
		return
	}

	locks, err := h.listLocksUseCase.Execute(c.Request.Context(), usecases.ListLocksQuery{
		ScopeID: uint(scopeID),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", locks)
}

// AcquireLock claims a record for the authenticated analyst.
func (h *LockHandler) AcquireLock(c *gin.Context) {
	var req AcquireLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	acquired, err := h.acquireUseCase.Execute(c.Request.Context(), usecases.AcquireLockCommand{
		ScopeID:    req.ScopeID,
		RecordType: req.RecordType,
		RecordID:   req.RecordID,
		HolderID:   c.GetUint(constants.ContextKeyUserID),
		HolderName: c.GetString(constants.ContextKeyDisplayName),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, acquired)
}

// RenewLock extends the caller's lease on a lock it already holds.
func (h *LockHandler) RenewLock(c *gin.Context) {
	renewed, err := h.renewUseCase.Execute(c.Request.Context(), usecases.RenewLockCommand{
		LockID:   c.Param("id"),
		HolderID: c.GetUint(constants.ContextKeyUserID),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", renewed)
}

// ReleaseLock gives up the caller's lock.
func (h *LockHandler) ReleaseLock(c *gin.Context) {
	err := h.releaseUseCase.Execute(c.Request.Context(), usecases.ReleaseLockCommand{
		LockID:   c.Param("id"),
		HolderID: c.GetUint(constants.ContextKeyUserID),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// ListAllLocks returns every live lock grouped by scope. Admin only.
func (h *LockHandler) ListAllLocks(c *gin.Context) {
	groups, err := h.listAllLocksUseCase.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", groups)
}

// ForceReleaseLock removes any lock on a record regardless of holder. Admin only.
func (h *LockHandler) ForceReleaseLock(c *gin.Context) {
	var req ForceReleaseLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.forceReleaseUseCase.Execute(c.Request.Context(), usecases.ForceReleaseLockCommand{
		ScopeID:    req.ScopeID,
		RecordType: req.RecordType,
		RecordID:   req.RecordID,
		AdminID:    c.GetUint(constants.ContextKeyUserID),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.NoContentResponse(c)
}
