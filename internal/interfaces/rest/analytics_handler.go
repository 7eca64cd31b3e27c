package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/marketgate/backend/internal/application/services"
)

// AnalyticsHandler exposes the admin dashboard endpoints.
type AnalyticsHandler struct {
	svcMgr *services.ServiceManager
}

func NewAnalyticsHandler(svcMgr *services.ServiceManager) *AnalyticsHandler {
	return &AnalyticsHandler{svcMgr: svcMgr}
}

// Overview handles GET /api/admin/analytics/overview
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	HandleGetEnvelope(c, "overview", func() (interface{}, error) {
		return h.svcMgr.Analytics.GetOverview(c.Request.Context())
	})
}

// QueryRequest carries the ad hoc SQL statement.
type QueryRequest struct {
	SQL string `json:"sql" binding:"required"`
}

// Query handles POST /api/admin/analytics/query. The statement goes
// through the SQL sandbox before execution.
func (h *AnalyticsHandler) Query(c *gin.Context) {
	var req QueryRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "result", func() (interface{}, error) {
		return h.svcMgr.Analytics.Query(c.Request.Context(), req.SQL)
	})
}
