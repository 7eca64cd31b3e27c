package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/internal/infrastructure/persistence"
	"github.com/marketgate/backend/pkg/errors"
	"github.com/marketgate/backend/pkg/expression"
)

func newFlowFixture(t *testing.T, templates map[string][]models.Section) (*FlowService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	svc := NewFlowService(persistence.NewFlowRepository(db), expression.NewEngine(), templates)
	return svc, mock, func() { db.Close() }
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestFlowService_CreateFlow_Validation(t *testing.T) {
	svc, _, done := newFlowFixture(t, map[string][]models.Section{"empty": {}})
	defer done()

	tests := []struct {
		name     string
		flowName string
		role     string
		stage    string
		template string
	}{
		{"bad name", "Bad Name!", "seller", "kyc", "empty"},
		{"admin role", "kyc_admin", "admin", "kyc", "empty"},
		{"unknown role", "kyc_x", "vendor", "kyc", "empty"},
		{"unknown stage", "kyc_seller", "seller", "verification", "empty"},
		{"unknown template", "kyc_seller", "seller", "kyc", "giant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateFlow(context.Background(), tt.flowName, tt.role, tt.stage, tt.template)
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", errors.GetErrorCode(err))
		})
	}
}

func TestFlowService_CreateFlow_Conflict(t *testing.T) {
	svc, mock, done := newFlowFixture(t, map[string][]models.Section{"empty": {}})
	defer done()

	rows := sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}).
		AddRow("kyc_seller", "seller", "kyc", []byte(`[]`), []byte("2026-01-05 10:00:00"), []byte("2026-01-05 10:00:00"))
	mock.ExpectQuery("SELECT name, role, stage, sections").WithArgs("kyc_seller").WillReturnRows(rows)

	_, err := svc.CreateFlow(context.Background(), "kyc_seller", "seller", "kyc", "empty")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", errors.GetErrorCode(err))
}

func TestFlowService_SaveSections_EmptyBatchSkipsWrite(t *testing.T) {
	svc, mock, done := newFlowFixture(t, nil)
	defer done()

	changed, err := svc.SaveSections(context.Background(), "kyc_seller", nil)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlowService_SaveSections_UnchangedContentSkipsWrite(t *testing.T) {
	svc, mock, done := newFlowFixture(t, nil)
	defer done()

	sectionsJSON := `[{"id":1,"name":"Basics","order":0,"steps":[]}]`
	rows := sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}).
		AddRow("kyc_seller", "seller", "kyc", []byte(sectionsJSON), []byte("2026-01-05 10:00:00"), []byte("2026-01-05 10:00:00"))
	mock.ExpectQuery("SELECT name, role, stage, sections").WithArgs("kyc_seller").WillReturnRows(rows)

	// patch carries the stored values verbatim: no UPDATE expected
	patches := []models.SectionPatch{{ID: 1, Name: strPtr("Basics"), Order: intPtr(0)}}
	changed, err := svc.SaveSections(context.Background(), "kyc_seller", patches)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlowService_SaveSections_DeleteAndRename(t *testing.T) {
	svc, mock, done := newFlowFixture(t, nil)
	defer done()

	sectionsJSON := `[{"id":1,"name":"Basics","order":0,"steps":[]},{"id":2,"name":"Extra","order":1,"steps":[]}]`
	rows := sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}).
		AddRow("kyc_seller", "seller", "kyc", []byte(sectionsJSON), []byte("2026-01-05 10:00:00"), []byte("2026-01-05 10:00:00"))
	mock.ExpectQuery("SELECT name, role, stage, sections").WithArgs("kyc_seller").WillReturnRows(rows)
	mock.ExpectExec("UPDATE mg_flow SET sections").WillReturnResult(sqlmock.NewResult(0, 1))

	patches := []models.SectionPatch{
		{ID: 2, Delete: true},
		{ID: 1, Name: strPtr("Company Basics")},
	}
	changed, err := svc.SaveSections(context.Background(), "kyc_seller", patches)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlowService_SaveSections_RejectsDuplicateAlias(t *testing.T) {
	svc, mock, done := newFlowFixture(t, nil)
	defer done()

	sectionsJSON := `[{"id":1,"name":"Basics","order":0,"steps":[
		{"id":1,"order":0,"questions":[{"type":"SingleSelection","alias":"q1","editable":true,"properties":{"text":"?","options":[{"value":"a","label":"A"}]}}]}
	]}]`
	rows := sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}).
		AddRow("kyc_seller", "seller", "kyc", []byte(sectionsJSON), []byte("2026-01-05 10:00:00"), []byte("2026-01-05 10:00:00"))
	mock.ExpectQuery("SELECT name, role, stage, sections").WithArgs("kyc_seller").WillReturnRows(rows)

	// reuse alias q1 in a new section
	patches := []models.SectionPatch{{
		ID:   2,
		Name: strPtr("More"),
		Steps: []models.Step{{
			ID: 1, Order: 0,
			Questions: []models.Question{mustQuestion(t, `{"type":"SingleSelection","alias":"q1","editable":true,"properties":{"text":"?","options":[{"value":"a","label":"A"}]}}`)},
		}},
	}}
	_, err := svc.SaveSections(context.Background(), "kyc_seller", patches)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", errors.GetErrorCode(err))
}

func TestFlowService_SaveSections_RejectsRuleWithUnknownAlias(t *testing.T) {
	svc, mock, done := newFlowFixture(t, nil)
	defer done()

	sectionsJSON := `[{"id":1,"name":"Basics","order":0,"steps":[
		{"id":1,"order":0,"questions":[{"type":"SingleSelection","alias":"q1","editable":true,"properties":{"text":"?","options":[{"value":"a","label":"A"}]}}]}
	]}]`
	rows := sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}).
		AddRow("kyc_seller", "seller", "kyc", []byte(sectionsJSON), []byte("2026-01-05 10:00:00"), []byte("2026-01-05 10:00:00"))
	mock.ExpectQuery("SELECT name, role, stage, sections").WithArgs("kyc_seller").WillReturnRows(rows)

	patches := []models.SectionPatch{{
		ID:          2,
		Name:        strPtr("Conditional"),
		DisplayRule: &models.DisplayRule{Alias: "no_such_question", Values: []string{"yes"}},
	}}
	_, err := svc.SaveSections(context.Background(), "kyc_seller", patches)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", errors.GetErrorCode(err))
}

func TestFlowService_ReorderSections_NoOp(t *testing.T) {
	svc, mock, done := newFlowFixture(t, nil)
	defer done()

	sectionsJSON := `[{"id":1,"name":"A","order":0,"steps":[]},{"id":2,"name":"B","order":1,"steps":[]}]`
	rows := sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}).
		AddRow("kyc_seller", "seller", "kyc", []byte(sectionsJSON), []byte("2026-01-05 10:00:00"), []byte("2026-01-05 10:00:00"))
	mock.ExpectQuery("SELECT name, role, stage, sections").WithArgs("kyc_seller").WillReturnRows(rows)

	changed, err := svc.ReorderSections(context.Background(), "kyc_seller", []int{1, 2})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlowService_ReorderSections_Swap(t *testing.T) {
	svc, mock, done := newFlowFixture(t, nil)
	defer done()

	sectionsJSON := `[{"id":1,"name":"A","order":0,"steps":[]},{"id":2,"name":"B","order":1,"steps":[]}]`
	rows := sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}).
		AddRow("kyc_seller", "seller", "kyc", []byte(sectionsJSON), []byte("2026-01-05 10:00:00"), []byte("2026-01-05 10:00:00"))
	mock.ExpectQuery("SELECT name, role, stage, sections").WithArgs("kyc_seller").WillReturnRows(rows)
	mock.ExpectExec("UPDATE mg_flow SET sections").WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := svc.ReorderSections(context.Background(), "kyc_seller", []int{2, 1})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlowService_ReorderSections_UnknownID(t *testing.T) {
	svc, mock, done := newFlowFixture(t, nil)
	defer done()

	sectionsJSON := `[{"id":1,"name":"A","order":0,"steps":[]},{"id":2,"name":"B","order":1,"steps":[]}]`
	rows := sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}).
		AddRow("kyc_seller", "seller", "kyc", []byte(sectionsJSON), []byte("2026-01-05 10:00:00"), []byte("2026-01-05 10:00:00"))
	mock.ExpectQuery("SELECT name, role, stage, sections").WithArgs("kyc_seller").WillReturnRows(rows)

	_, err := svc.ReorderSections(context.Background(), "kyc_seller", []int{1, 7})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", errors.GetErrorCode(err))
}

func mustQuestion(t *testing.T, raw string) models.Question {
	t.Helper()
	var q models.Question
	require.NoError(t, q.UnmarshalJSON([]byte(raw)))
	return q
}
