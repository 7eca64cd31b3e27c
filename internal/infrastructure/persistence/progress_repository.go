package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/pkg/constants"
)

// ProgressRepository handles onboarding progress rows. Rows are created as
// a user enters a stage and mutated thereafter, never deleted.
type ProgressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = "id, user_id, stage_id, status, created_date, last_modified_date"

func scanProgress(row Scannable) (*models.ProgressRecord, error) {
	var p models.ProgressRecord
	var createdRaw, modifiedRaw []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.StageID, &p.Status, &createdRaw, &modifiedRaw); err != nil {
		return nil, err
	}
	p.CreatedDate = parseTime(createdRaw)
	p.LastModifiedDate = parseTime(modifiedRaw)
	return &p, nil
}

// GetCurrent returns the most recently created progress row for a user,
// nil when the user has no rows yet.
func (r *ProgressRepository) GetCurrent(ctx context.Context, userID string) (*models.ProgressRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = ?
		ORDER BY created_date DESC, id DESC
		LIMIT 1`,
		progressColumns, constants.TableProgress)

	p, err := scanProgress(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// GetByStage returns a user's row for a specific stage, nil when absent.
func (r *ProgressRepository) GetByStage(ctx context.Context, userID, stageID string) (*models.ProgressRecord, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE user_id = ? AND stage_id = ? LIMIT 1",
		progressColumns, constants.TableProgress)

	p, err := scanProgress(r.db.QueryRowContext(ctx, query, userID, stageID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListForUser returns all of a user's progress rows, oldest first.
func (r *ProgressRepository) ListForUser(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE user_id = ? ORDER BY created_date ASC, id ASC",
		progressColumns, constants.TableProgress)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *p)
	}
	return records, rows.Err()
}

// Insert creates a new progress row.
func (r *ProgressRepository) Insert(ctx context.Context, p *models.ProgressRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, stage_id, status, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, NOW(), NOW())`,
		constants.TableProgress)

	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.StageID, p.Status)
	return err
}

// UpdateStatus mutates the status of an existing row.
func (r *ProgressRepository) UpdateStatus(ctx context.Context, userID, stageID, status string) error {
	query := fmt.Sprintf(
		"UPDATE %s SET status = ?, last_modified_date = NOW() WHERE user_id = ? AND stage_id = ?",
		constants.TableProgress)

	result, err := r.db.ExecContext(ctx, query, status, userID, stageID)
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

// StageStatusCount is one cell of the admin overview matrix.
type StageStatusCount struct {
	StageID string `json:"stage_id"`
	Status  string `json:"status"`
	Count   int    `json:"count"`
}

// CountByStageStatus returns progress row counts grouped by stage and
// status, for the admin overview.
func (r *ProgressRepository) CountByStageStatus(ctx context.Context) ([]StageStatusCount, error) {
	query := fmt.Sprintf(
		"SELECT stage_id, status, COUNT(*) FROM %s GROUP BY stage_id, status",
		constants.TableProgress)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StageStatusCount
	for rows.Next() {
		var c StageStatusCount
		if err := rows.Scan(&c.StageID, &c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// MarkStaleInReview flags in_progress rows idle since before the cutoff as
// in_review so they surface in the admin console. Returns the row count.
func (r *ProgressRepository) MarkStaleInReview(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = ?, last_modified_date = NOW()
		WHERE status = ? AND last_modified_date < ?`,
		constants.TableProgress)

	result, err := r.db.ExecContext(ctx, query,
		constants.StatusInReview,
		constants.StatusInProgress,
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
