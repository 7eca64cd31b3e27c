package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/pkg/constants"
)

// AnswerRepository handles the per-(user, flow) answer documents.
type AnswerRepository struct {
	db *sql.DB
}

// NewAnswerRepository creates a new AnswerRepository
func NewAnswerRepository(db *sql.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// GetRecord retrieves the answer document for a (user, flow) pair, nil
// when the user has not started the flow yet.
func (r *AnswerRepository) GetRecord(ctx context.Context, userID, flowName string) (*models.AnswerRecord, error) {
	query := fmt.Sprintf(`
		SELECT user_id, flow_name, data, position, completed_at, created_date, last_modified_date
		FROM %s
		WHERE user_id = ? AND flow_name = ? LIMIT 1`,
		constants.TableAnswer)

	var rec models.AnswerRecord
	var dataJSON []byte
	var positionJSON []byte
	var completedAt sql.NullTime
	var createdRaw, modifiedRaw []byte

	err := r.db.QueryRowContext(ctx, query, userID, flowName).Scan(
		&rec.UserID,
		&rec.FlowName,
		&dataJSON,
		&positionJSON,
		&completedAt,
		&createdRaw,
		&modifiedRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rec.Answers = models.AnswerSet{}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &rec.Answers); err != nil {
			return nil, fmt.Errorf("answers for user '%s' are corrupt: %w", userID, err)
		}
	}
	if len(positionJSON) > 0 {
		var pos models.Position
		if err := json.Unmarshal(positionJSON, &pos); err == nil && pos.Mode != "" {
			rec.Position = &pos
		}
	}
	rec.CompletedAt = nullableTime(completedAt)
	rec.CreatedDate = parseTime(createdRaw)
	rec.LastModifiedDate = parseTime(modifiedRaw)
	return &rec, nil
}

// SaveRecord merge-upserts the answer document. The caller passes the full
// merged answer set; the row write itself is last-write-wins.
func (r *AnswerRepository) SaveRecord(ctx context.Context, rec *models.AnswerRecord) error {
	dataJSON, err := json.Marshal(rec.Answers)
	if err != nil {
		return err
	}

	var positionJSON []byte
	if rec.Position != nil {
		positionJSON, err = json.Marshal(rec.Position)
		if err != nil {
			return err
		}
	}

	var completedAt interface{}
	if rec.CompletedAt != nil {
		completedAt = rec.CompletedAt.UTC().Format("2006-01-02 15:04:05")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, flow_name, data, position, completed_at, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
			data = VALUES(data),
			position = VALUES(position),
			completed_at = VALUES(completed_at),
			last_modified_date = NOW()`,
		constants.TableAnswer)

	_, err = r.db.ExecContext(ctx, query, rec.UserID, rec.FlowName, dataJSON, positionJSON, completedAt)
	return err
}
