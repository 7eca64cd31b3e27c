package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/pkg/constants"
)

// ProfileRepository handles published tool profile rows.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = "id, type, payload, access_password, created_by, created_date, last_modified_date"

func scanProfile(row Scannable) (*models.ToolProfile, error) {
	var p models.ToolProfile
	var payload []byte
	var createdRaw, modifiedRaw []byte
	if err := row.Scan(&p.ID, &p.Type, &payload, &p.AccessPassword, &p.CreatedBy, &createdRaw, &modifiedRaw); err != nil {
		return nil, err
	}
	p.Payload = json.RawMessage(payload)
	p.CreatedDate = parseTime(createdRaw)
	p.LastModifiedDate = parseTime(modifiedRaw)
	return &p, nil
}

// Get retrieves a profile by id, nil when absent.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*models.ToolProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", profileColumns, constants.TableToolProfile)
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// List returns every published profile, newest first.
func (r *ProfileRepository) List(ctx context.Context) ([]models.ToolProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_date DESC", profileColumns, constants.TableToolProfile)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.ToolProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// Insert creates a new profile row.
func (r *ProfileRepository) Insert(ctx context.Context, p *models.ToolProfile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, type, payload, access_password, created_by, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())`,
		constants.TableToolProfile)

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Type, []byte(p.Payload), p.AccessPassword, p.CreatedBy)
	return err
}

// Delete removes a profile row.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", constants.TableToolProfile)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// Count returns the number of published profiles, for the admin overview.
func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", constants.TableToolProfile)
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
