package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/pkg/constants"
)

// FlowRepository handles database operations for flow definitions. The
// whole section tree of a flow lives in one JSON column, so every save is
// a single-row write with last-write-wins semantics.
type FlowRepository struct {
	db *sql.DB
}

// NewFlowRepository creates a new FlowRepository
func NewFlowRepository(db *sql.DB) *FlowRepository {
	return &FlowRepository{db: db}
}

// GetFlow retrieves a flow by name, nil when absent.
func (r *FlowRepository) GetFlow(ctx context.Context, name string) (*models.Flow, error) {
	query := fmt.Sprintf(`
		SELECT name, role, stage, sections, created_date, last_modified_date
		FROM %s
		WHERE name = ? LIMIT 1`,
		constants.TableFlow)

	var f models.Flow
	var sectionsJSON []byte
	var createdRaw, modifiedRaw []byte

	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&f.Name,
		&f.Role,
		&f.Stage,
		&sectionsJSON,
		&createdRaw,
		&modifiedRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(sectionsJSON, &f.Sections); err != nil {
		return nil, fmt.Errorf("flow '%s' has corrupt sections: %w", name, err)
	}
	f.CreatedDate = parseTime(createdRaw)
	f.LastModifiedDate = parseTime(modifiedRaw)
	return &f, nil
}

// ListFlows returns every flow, sections included.
func (r *FlowRepository) ListFlows(ctx context.Context) ([]*models.Flow, error) {
	query := fmt.Sprintf(`
		SELECT name, role, stage, sections, created_date, last_modified_date
		FROM %s
		ORDER BY name`,
		constants.TableFlow)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flows []*models.Flow
	for rows.Next() {
		var f models.Flow
		var sectionsJSON []byte
		var createdRaw, modifiedRaw []byte
		if err := rows.Scan(&f.Name, &f.Role, &f.Stage, &sectionsJSON, &createdRaw, &modifiedRaw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(sectionsJSON, &f.Sections); err != nil {
			return nil, fmt.Errorf("flow '%s' has corrupt sections: %w", f.Name, err)
		}
		f.CreatedDate = parseTime(createdRaw)
		f.LastModifiedDate = parseTime(modifiedRaw)
		flows = append(flows, &f)
	}
	return flows, rows.Err()
}

// InsertFlow creates a new flow row.
func (r *FlowRepository) InsertFlow(ctx context.Context, flow *models.Flow) error {
	sectionsJSON, err := json.Marshal(flow.Sections)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, role, stage, sections, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, NOW(), NOW())`,
		constants.TableFlow)

	_, err = r.db.ExecContext(ctx, query, flow.Name, flow.Role, flow.Stage, sectionsJSON)
	return err
}

// UpdateSections rewrites a flow's section document in one row update.
func (r *FlowRepository) UpdateSections(ctx context.Context, name string, sections []models.Section) error {
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		"UPDATE %s SET sections = ?, last_modified_date = NOW() WHERE name = ?",
		constants.TableFlow)

	result, err := r.db.ExecContext(ctx, query, sectionsJSON, name)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteFlow removes a flow row.
func (r *FlowRepository) DeleteFlow(ctx context.Context, name string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE name = ?", constants.TableFlow)
	_, err := r.db.ExecContext(ctx, query, name)
	return err
}
