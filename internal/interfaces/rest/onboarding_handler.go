package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/marketgate/backend/internal/application/services"
	"github.com/marketgate/backend/internal/domain/models"
)

// OnboardingHandler exposes the flow runtime: state, step submission, and
// navigation. All routes require an authenticated user; role gating per
// flow happens in the service.
type OnboardingHandler struct {
	svcMgr *services.ServiceManager
}

func NewOnboardingHandler(svcMgr *services.ServiceManager) *OnboardingHandler {
	return &OnboardingHandler{svcMgr: svcMgr}
}

// GetState handles GET /api/flows/:name/state
func (h *OnboardingHandler) GetState(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleGetEnvelope(c, "state", func() (interface{}, error) {
		return h.svcMgr.Onboarding.GetState(c.Request.Context(), user, c.Param("name"))
	})
}

// SubmitStepRequest carries the answers for the current step. Null values
// clear previously stored answers.
type SubmitStepRequest struct {
	Answers models.AnswerSet `json:"answers" binding:"required"`
}

// SubmitStep handles POST /api/flows/:name/steps
func (h *OnboardingHandler) SubmitStep(c *gin.Context) {
	user := GetUserFromContext(c)
	var req SubmitStepRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "state", func() (interface{}, error) {
		return h.svcMgr.Onboarding.SubmitStep(c.Request.Context(), user, c.Param("name"), req.Answers)
	})
}

// Retreat handles POST /api/flows/:name/retreat
func (h *OnboardingHandler) Retreat(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleGetEnvelope(c, "state", func() (interface{}, error) {
		return h.svcMgr.Onboarding.Retreat(c.Request.Context(), user, c.Param("name"))
	})
}

// JumpRequest names the section to jump to.
type JumpRequest struct {
	SectionID int `json:"section_id" binding:"required"`
}

// Jump handles POST /api/flows/:name/jump
func (h *OnboardingHandler) Jump(c *gin.Context) {
	user := GetUserFromContext(c)
	var req JumpRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "state", func() (interface{}, error) {
		return h.svcMgr.Onboarding.Jump(c.Request.Context(), user, c.Param("name"), req.SectionID)
	})
}

// BackToEditingRequest targets the node a recap item routes back to.
type BackToEditingRequest struct {
	SectionID int `json:"section_id" binding:"required"`
	StepID    int `json:"step_id"`
}

// BackToEditing handles POST /api/flows/:name/edit
func (h *OnboardingHandler) BackToEditing(c *gin.Context) {
	user := GetUserFromContext(c)
	var req BackToEditingRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "state", func() (interface{}, error) {
		return h.svcMgr.Onboarding.BackToEditing(c.Request.Context(), user, c.Param("name"), req.SectionID, req.StepID)
	})
}

// Recap handles GET /api/flows/:name/recap
func (h *OnboardingHandler) Recap(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleGetEnvelope(c, "recap", func() (interface{}, error) {
		return h.svcMgr.Onboarding.Recap(c.Request.Context(), user, c.Param("name"))
	})
}

// CompleteRequest optionally marks the completion as an edit pass, which
// skips stage progression.
type CompleteRequest struct {
	Editing bool `json:"editing"`
}

// Complete handles POST /api/flows/:name/complete
func (h *OnboardingHandler) Complete(c *gin.Context) {
	user := GetUserFromContext(c)

	var req CompleteRequest
	if c.Request.ContentLength > 0 {
		if !BindJSON(c, &req) {
			return
		}
	}
	HandleGetEnvelope(c, "state", func() (interface{}, error) {
		return h.svcMgr.Onboarding.Complete(c.Request.Context(), user, c.Param("name"), req.Editing)
	})
}
