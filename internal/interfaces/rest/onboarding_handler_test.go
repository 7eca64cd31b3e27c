package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketgate/backend/internal/application/services"
	"github.com/marketgate/backend/internal/domain/flow"
	"github.com/marketgate/backend/internal/infrastructure/persistence"
	"github.com/marketgate/backend/internal/interfaces/rest"
	"github.com/marketgate/backend/pkg/auth"
	"github.com/marketgate/backend/pkg/constants"
	"github.com/marketgate/backend/pkg/expression"
)

const handlerFlowJSON = `[
	{"id":1,"name":"Basics","order":0,"steps":[
		{"id":1,"order":0,"questions":[
			{"type":"SingleSelection","alias":"path","editable":true,"properties":{
				"text":"Which path?","required":true,
				"options":[{"value":"a","label":"A"},{"value":"b","label":"B"}]}}
		]}
	]}
]`

// newTestRouter wires the onboarding routes over a sqlmock database with a
// fixed authenticated user, bypassing the JWT middleware.
func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	flows := persistence.NewFlowRepository(db)
	answers := persistence.NewAnswerRepository(db)
	progress := services.NewProgressService(persistence.NewProgressRepository(db), persistence.NewUserRepository(db))
	evaluator := flow.NewEvaluator(expression.NewEngine())

	svcMgr := &services.ServiceManager{
		Onboarding: services.NewOnboardingService(flows, answers, progress, evaluator),
	}
	handler := rest.NewOnboardingHandler(svcMgr)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUser, auth.UserSession{ID: "u1", Name: "Sam", Email: "sam@example.com", Role: "seller"})
	})
	router.GET("/api/flows/:name/state", handler.GetState)
	router.POST("/api/flows/:name/steps", handler.SubmitStep)

	return router, mock, func() { db.Close() }
}

func expectFlowAndAnswers(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT name, role, stage, sections").
		WithArgs("kyc_seller").
		WillReturnRows(sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}).
			AddRow("kyc_seller", "seller", "kyc", []byte(handlerFlowJSON), []byte("2026-01-05 10:00:00"), []byte("2026-01-05 10:00:00")))
	mock.ExpectQuery("SELECT user_id, flow_name, data, position").
		WithArgs("u1", "kyc_seller").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "flow_name", "data", "position", "completed_at", "created_date", "last_modified_date"}))
}

func TestOnboardingHandler_GetState(t *testing.T) {
	router, mock, done := newTestRouter(t)
	defer done()

	expectFlowAndAnswers(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/flows/kyc_seller/state", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		State struct {
			Mode     string `json:"mode"`
			FlowName string `json:"flow_name"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "in_flow", body.State.Mode)
	assert.Equal(t, "kyc_seller", body.State.FlowName)
}

func TestOnboardingHandler_SubmitStep_InvalidAnswers(t *testing.T) {
	router, mock, done := newTestRouter(t)
	defer done()

	expectFlowAndAnswers(mock)

	payload := bytes.NewBufferString(`{"answers":{}}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/flows/kyc_seller/steps", payload)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Code    string `json:"code"`
		Details []struct {
			Alias   string `json:"alias"`
			Message string `json:"message"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "STEP_INVALID", body.Code)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "path", body.Details[0].Alias)
}

func TestOnboardingHandler_UnknownFlow(t *testing.T) {
	router, mock, done := newTestRouter(t)
	defer done()

	mock.ExpectQuery("SELECT name, role, stage, sections").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/flows/missing/state", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
