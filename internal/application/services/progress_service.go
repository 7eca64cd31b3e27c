package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/internal/infrastructure/persistence"
	"github.com/marketgate/backend/pkg/constants"
	"github.com/marketgate/backend/pkg/errors"
	"github.com/marketgate/backend/pkg/utils"
)

// ProgressService tracks where each user sits in the stage sequence
// (kyc, contract, payment, questionnaire). Stage rows are append-mostly:
// one row per (user, stage), status updated in place, never deleted.
type ProgressService struct {
	progress *persistence.ProgressRepository
	users    *persistence.UserRepository
}

// NewProgressService creates a new ProgressService
func NewProgressService(progress *persistence.ProgressRepository, users *persistence.UserRepository) *ProgressService {
	return &ProgressService{progress: progress, users: users}
}

// GetCurrentStage returns the user's current stage row, creating the first
// stage in_progress when the user has no progress at all.
func (s *ProgressService) GetCurrentStage(ctx context.Context, userID string) (*models.ProgressRecord, error) {
	current, err := s.progress.GetCurrent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if current != nil {
		return current, nil
	}
	return s.startStage(ctx, userID, constants.StageOrder[0])
}

// ListForUser returns the user's full stage history, oldest first.
func (s *ProgressService) ListForUser(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	return s.progress.ListForUser(ctx, userID)
}

// SetStatus updates one stage row's status. Admin console operation.
func (s *ProgressService) SetStatus(ctx context.Context, userID, stageID, status string) error {
	if !constants.IsValidStage(stageID) {
		return errors.NewValidationError("stage", fmt.Sprintf("unknown stage '%s'", stageID))
	}
	if !constants.IsValidStatus(status) {
		return errors.NewValidationError("status", fmt.Sprintf("unknown status '%s'", status))
	}
	if err := s.progress.UpdateStatus(ctx, userID, stageID, status); err != nil {
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError("progress", userID+"/"+stageID)
		}
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// AdvanceStage marks stageID completed for the user and opens the next
// stage in_progress. Idempotent: re-advancing a completed stage changes
// nothing, and an already-open next stage is left alone.
func (s *ProgressService) AdvanceStage(ctx context.Context, userID, stageID string) error {
	if !constants.IsValidStage(stageID) {
		return errors.NewValidationError("stage", fmt.Sprintf("unknown stage '%s'", stageID))
	}

	row, err := s.progress.GetByStage(ctx, userID, stageID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if row == nil {
		if _, err := s.startStage(ctx, userID, stageID); err != nil {
			return err
		}
	}
	if row == nil || row.Status != constants.StatusCompleted {
		if err := s.progress.UpdateStatus(ctx, userID, stageID, constants.StatusCompleted); err != nil {
			return fmt.Errorf("failed to complete stage: %w", err)
		}
	}

	next := constants.NextStage(stageID)
	if next == "" {
		return nil
	}
	nextRow, err := s.progress.GetByStage(ctx, userID, next)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if nextRow != nil {
		return nil
	}
	if _, err := s.startStage(ctx, userID, next); err != nil {
		return err
	}
	log.Printf("✅ User %s advanced to stage %s", userID, next)
	return nil
}

// ListAll builds the admin console overview: every non-admin user with
// their current stage row.
func (s *ProgressService) ListAll(ctx context.Context) ([]models.UserProgress, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	result := make([]models.UserProgress, 0, len(users))
	for _, u := range users {
		if constants.IsAdminRole(u.Role) {
			continue
		}
		current, err := s.progress.GetCurrent(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		result = append(result, models.UserProgress{
			UserID:  u.ID,
			Email:   u.Email,
			Name:    u.Name,
			Role:    u.Role,
			Current: current,
		})
	}
	return result, nil
}

func (s *ProgressService) startStage(ctx context.Context, userID, stageID string) (*models.ProgressRecord, error) {
	rec := &models.ProgressRecord{
		ID:      utils.GenerateID(),
		UserID:  userID,
		StageID: stageID,
		Status:  constants.StatusInProgress,
	}
	if err := s.progress.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create stage row: %w", err)
	}
	return rec, nil
}
