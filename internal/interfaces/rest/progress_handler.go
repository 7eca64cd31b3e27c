package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketgate/backend/internal/application/services"
	"github.com/marketgate/backend/pkg/constants"
	"github.com/marketgate/backend/pkg/errors"
	"github.com/marketgate/backend/pkg/utils"
)

// ProgressHandler exposes stage progression: the user's own view and the
// admin console overrides.
type ProgressHandler struct {
	svcMgr *services.ServiceManager
}

func NewProgressHandler(svcMgr *services.ServiceManager) *ProgressHandler {
	return &ProgressHandler{svcMgr: svcMgr}
}

// GetOwn handles GET /api/progress
func (h *ProgressHandler) GetOwn(c *gin.Context) {
	user := GetUserFromContext(c)

	current, err := h.svcMgr.Progress.GetCurrentStage(c.Request.Context(), user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	history, err := h.svcMgr.Progress.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"current": current,
		"history": history,
		"stages":  constants.StageOrder,
	})
}

// ListAll handles GET /api/admin/progress
func (h *ProgressHandler) ListAll(c *gin.Context) {
	HandleGetEnvelope(c, "users", func() (interface{}, error) {
		return h.svcMgr.Progress.ListAll(c.Request.Context())
	})
}

// SetStatusRequest represents an admin status override
type SetStatusRequest struct {
	Stage  string `json:"stage" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// SetStatus handles PUT /api/admin/progress/:userId
func (h *ProgressHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if !BindJSON(c, &req) {
		return
	}
	if !utils.IsValidUUID(c.Param("userId")) {
		RespondAppError(c, errors.NewValidationError("userId", "must be a UUID"))
		return
	}
	if err := h.svcMgr.Progress.SetStatus(c.Request.Context(), c.Param("userId"), req.Stage, req.Status); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Status updated"})
}

// AdvanceRequest names the stage to mark completed.
type AdvanceRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// Advance handles POST /api/admin/progress/:userId/advance
func (h *ProgressHandler) Advance(c *gin.Context) {
	var req AdvanceRequest
	if !BindJSON(c, &req) {
		return
	}
	if !utils.IsValidUUID(c.Param("userId")) {
		RespondAppError(c, errors.NewValidationError("userId", "must be a UUID"))
		return
	}
	if err := h.svcMgr.Progress.AdvanceStage(c.Request.Context(), c.Param("userId"), req.Stage); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Stage advanced"})
}
