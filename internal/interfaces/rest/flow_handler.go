package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketgate/backend/internal/application/services"
	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/pkg/constants"
)

// FlowHandler exposes admin CRUD over flow definitions.
type FlowHandler struct {
	svcMgr *services.ServiceManager
}

func NewFlowHandler(svcMgr *services.ServiceManager) *FlowHandler {
	return &FlowHandler{svcMgr: svcMgr}
}

// List handles GET /api/admin/flows
func (h *FlowHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "flows", func() (interface{}, error) {
		return h.svcMgr.FlowSvc.ListFlows(c.Request.Context())
	})
}

// Get handles GET /api/admin/flows/:name
func (h *FlowHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "flow", func() (interface{}, error) {
		return h.svcMgr.FlowSvc.GetFlow(c.Request.Context(), c.Param("name"))
	})
}

// CreateFlowRequest represents the create flow body
type CreateFlowRequest struct {
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Stage    string `json:"stage" binding:"required"`
	Template string `json:"template" binding:"required"`
}

// Create handles POST /api/admin/flows
func (h *FlowHandler) Create(c *gin.Context) {
	var req CreateFlowRequest
	if !BindJSON(c, &req) {
		return
	}
	flow, err := h.svcMgr.FlowSvc.CreateFlow(c.Request.Context(), req.Name, req.Role, req.Stage, req.Template)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Flow created",
		"flow":                 flow,
	})
}

// Delete handles DELETE /api/admin/flows/:name
func (h *FlowHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Flow deleted", func() error {
		return h.svcMgr.FlowSvc.DeleteFlow(c.Request.Context(), c.Param("name"))
	})
}

// SaveSectionsRequest is the batched editor save: a list of section
// patches, applied in order.
type SaveSectionsRequest struct {
	Sections []models.SectionPatch `json:"sections" binding:"required"`
}

// SaveSections handles PUT /api/admin/flows/:name/sections
func (h *FlowHandler) SaveSections(c *gin.Context) {
	var req SaveSectionsRequest
	if !BindJSON(c, &req) {
		return
	}
	changed, err := h.svcMgr.FlowSvc.SaveSections(c.Request.Context(), c.Param("name"), req.Sections)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Sections saved",
		"changed":              changed,
	})
}

// ReorderRequest lists every section id in its new display order.
type ReorderRequest struct {
	Order []int `json:"order" binding:"required"`
}

// Reorder handles PUT /api/admin/flows/:name/order
func (h *FlowHandler) Reorder(c *gin.Context) {
	var req ReorderRequest
	if !BindJSON(c, &req) {
		return
	}
	changed, err := h.svcMgr.FlowSvc.ReorderSections(c.Request.Context(), c.Param("name"), req.Order)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Sections reordered",
		"changed":              changed,
	})
}
