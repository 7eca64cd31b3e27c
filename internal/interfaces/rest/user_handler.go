package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketgate/backend/internal/application/services"
	"github.com/marketgate/backend/pkg/constants"
)

// UserHandler exposes admin user management.
type UserHandler struct {
	svcMgr *services.ServiceManager
}

func NewUserHandler(svcMgr *services.ServiceManager) *UserHandler {
	return &UserHandler{svcMgr: svcMgr}
}

// CreateUserRequest represents the admin create-user body
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// Create handles POST /api/admin/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !BindJSON(c, &req) {
		return
	}
	user, err := h.svcMgr.Auth.Register(c.Request.Context(), req.Email, req.Name, req.Password, req.Role)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "User created",
		"user":                 user,
	})
}
