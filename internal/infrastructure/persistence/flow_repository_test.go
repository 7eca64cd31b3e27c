package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/marketgate/backend/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowRepository_GetFlow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFlowRepository(db)

	sectionsJSON := `[{"id":1,"name":"Company","order":0,"steps":[{"id":1,"order":0,"questions":[{"type":"SingleSelection","alias":"company_size","editable":true,"properties":{"text":"Size?","required":true,"options":[{"value":"smb","label":"SMB"}]}}]}]}]`

	rows := sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}).
		AddRow("kyc_seller", "seller", "kyc", []byte(sectionsJSON), []byte("2026-01-05 10:00:00"), []byte("2026-01-06 10:00:00"))

	mock.ExpectQuery("SELECT name, role, stage, sections").WithArgs("kyc_seller").WillReturnRows(rows)

	flow, err := repo.GetFlow(context.Background(), "kyc_seller")
	require.NoError(t, err)
	require.NotNil(t, flow)
	assert.Equal(t, "kyc_seller", flow.Name)
	assert.Equal(t, "seller", flow.Role)
	require.Len(t, flow.Sections, 1)
	require.Len(t, flow.Sections[0].Steps, 1)
	assert.Equal(t, "company_size", flow.Sections[0].Steps[0].Questions[0].Alias)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlowRepository_GetFlow_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFlowRepository(db)

	mock.ExpectQuery("SELECT name, role, stage, sections").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"name", "role", "stage", "sections", "created_date", "last_modified_date"}))

	flow, err := repo.GetFlow(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, flow)
}

func TestFlowRepository_UpdateSections_MissingFlow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFlowRepository(db)

	mock.ExpectExec("UPDATE mg_flow SET sections").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateSections(context.Background(), "missing", []models.Section{})
	assert.Error(t, err)
}

func TestAnswerRepository_GetRecord(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAnswerRepository(db)

	rows := sqlmock.NewRows([]string{"user_id", "flow_name", "data", "position", "completed_at", "created_date", "last_modified_date"}).
		AddRow("u1", "kyc_seller",
			[]byte(`{"company_size":"smb","regions":["eu","us"]}`),
			[]byte(`{"mode":"in_flow","section_id":1,"step_id":2}`),
			nil,
			[]byte("2026-01-05 10:00:00"),
			[]byte("2026-01-05 10:00:00"))

	mock.ExpectQuery("SELECT user_id, flow_name, data").WithArgs("u1", "kyc_seller").WillReturnRows(rows)

	rec, err := repo.GetRecord(context.Background(), "u1", "kyc_seller")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "smb", rec.Answers["company_size"])
	require.NotNil(t, rec.Position)
	assert.Equal(t, "in_flow", rec.Position.Mode)
	assert.Equal(t, 1, rec.Position.SectionID)
	assert.Nil(t, rec.CompletedAt)
}

func TestProgressRepository_GetCurrent_Empty(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProgressRepository(db)

	mock.ExpectQuery("SELECT id, user_id, stage_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "stage_id", "status", "created_date", "last_modified_date"}))

	current, err := repo.GetCurrent(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Nil(t, current)
}
