package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketgate/backend/internal/application/services"
	"github.com/marketgate/backend/pkg/constants"
)

// ProfileHandler exposes tool profiles: publishing by authenticated users,
// password-gated public access, and admin management.
type ProfileHandler struct {
	svcMgr *services.ServiceManager
}

func NewProfileHandler(svcMgr *services.ServiceManager) *ProfileHandler {
	return &ProfileHandler{svcMgr: svcMgr}
}

// PublishRequest represents the publish body
type PublishRequest struct {
	Type    string          `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// Publish handles POST /api/profiles. The generated access password is
// returned in this response and never again.
func (h *ProfileHandler) Publish(c *gin.Context) {
	user := GetUserFromContext(c)
	var req PublishRequest
	if !BindJSON(c, &req) {
		return
	}

	profile, err := h.svcMgr.Profile.Publish(c.Request.Context(), user.ID, req.Type, req.Payload)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Profile published",
		"profile":              profile,
	})
}

// AccessRequest carries the password a viewer supplies.
type AccessRequest struct {
	Password string `json:"password" binding:"required"`
}

// Access handles POST /api/profiles/:id/access. Public route: the password
// is the only credential.
func (h *ProfileHandler) Access(c *gin.Context) {
	var req AccessRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "profile", func() (interface{}, error) {
		return h.svcMgr.Profile.Get(c.Request.Context(), c.Param("id"), req.Password)
	})
}

// List handles GET /api/admin/profiles
func (h *ProfileHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "profiles", func() (interface{}, error) {
		return h.svcMgr.Profile.List(c.Request.Context())
	})
}

// Delete handles DELETE /api/admin/profiles/:id
func (h *ProfileHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Profile deleted", func() error {
		return h.svcMgr.Profile.Delete(c.Request.Context(), c.Param("id"))
	})
}
