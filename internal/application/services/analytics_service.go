package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/marketgate/backend/internal/infrastructure/persistence"
)

// AnalyticsService serves the admin dashboard: a fixed overview of counts
// plus a sandboxed free-form SQL endpoint for ad hoc reporting.
type AnalyticsService struct {
	db        *sql.DB
	users     *persistence.UserRepository
	progress  *persistence.ProgressRepository
	profiles  *persistence.ProfileRepository
	flows     *persistence.FlowRepository
	validator *SecurityValidator
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(db *sql.DB, users *persistence.UserRepository, progress *persistence.ProgressRepository, profiles *persistence.ProfileRepository, flows *persistence.FlowRepository) *AnalyticsService {
	return &AnalyticsService{
		db:        db,
		users:     users,
		progress:  progress,
		profiles:  profiles,
		flows:     flows,
		validator: NewSecurityValidator(),
	}
}

// Overview is the dashboard summary payload.
type Overview struct {
	UsersByRole   map[string]int                 `json:"users_by_role"`
	StageStatuses []persistence.StageStatusCount `json:"stage_statuses"`
	FlowCount     int                            `json:"flow_count"`
	ProfileCount  int                            `json:"profile_count"`
}

// GetOverview aggregates the dashboard counts.
func (s *AnalyticsService) GetOverview(ctx context.Context) (*Overview, error) {
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("user counts: %w", err)
	}
	stages, err := s.progress.CountByStageStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("stage counts: %w", err)
	}
	flows, err := s.flows.ListFlows(ctx)
	if err != nil {
		return nil, fmt.Errorf("flow list: %w", err)
	}
	profileCount, err := s.profiles.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile count: %w", err)
	}

	return &Overview{
		UsersByRole:   byRole,
		StageStatuses: stages,
		FlowCount:     len(flows),
		ProfileCount:  profileCount,
	}, nil
}

// QueryResult is a free-form query response: column order preserved, rows
// as maps.
type QueryResult struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

// Query runs a sandboxed admin SQL query. The statement is parsed,
// validated, and restored before execution; anything the validator rejects
// never reaches the database.
func (s *AnalyticsService) Query(ctx context.Context, rawSQL string) (*QueryResult, error) {
	safeSQL, err := s.validator.ValidateAndRewrite(rawSQL)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, safeSQL)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: columns, Rows: []map[string]interface{}{}}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanTargets := make([]interface{}, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			// MySQL driver hands back []byte for text columns
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}
