package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/internal/infrastructure/persistence"
	"github.com/marketgate/backend/pkg/constants"
	"github.com/marketgate/backend/pkg/errors"
	"github.com/marketgate/backend/pkg/utils"
)

// accessPasswordLength is the length of generated profile passwords.
const accessPasswordLength = 10

// ToolProfileService publishes password-protected profiles built from
// onboarding answers. The password is generated server-side, returned once
// to the publisher, and stored in clear so the admin console can display
// it for recovery.
type ToolProfileService struct {
	profiles *persistence.ProfileRepository
}

// NewToolProfileService creates a new ToolProfileService
func NewToolProfileService(profiles *persistence.ProfileRepository) *ToolProfileService {
	return &ToolProfileService{profiles: profiles}
}

// Publish stores a new profile and returns it with the generated access
// password set. This is the only path that hands the password back.
func (s *ToolProfileService) Publish(ctx context.Context, createdBy, profileType string, payload json.RawMessage) (*models.ToolProfile, error) {
	if !constants.IsValidProfileType(profileType) {
		return nil, errors.NewValidationError("type", fmt.Sprintf("unknown profile type '%s'", profileType))
	}
	if len(payload) == 0 || !json.Valid(payload) {
		return nil, errors.NewValidationError("payload", "payload must be a JSON document")
	}

	profile := &models.ToolProfile{
		ID:             utils.GenerateID(),
		Type:           profileType,
		Payload:        payload,
		AccessPassword: utils.GenerateAccessPassword(accessPasswordLength),
		CreatedBy:      createdBy,
	}
	if err := s.profiles.Insert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to publish profile: %w", err)
	}
	log.Printf("✅ Published %s profile %s", profileType, profile.ID)
	return profile, nil
}

// Get returns a profile to a viewer who supplied the correct password.
// A wrong password reads the same as a wrong id: unauthorized, without
// confirming the profile exists.
func (s *ToolProfileService) Get(ctx context.Context, id, password string) (*models.ToolProfile, error) {
	profile, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if profile == nil || profile.AccessPassword != password {
		return nil, errors.NewUnauthorizedError("Invalid profile or password")
	}
	public := profile.Public()
	return &public, nil
}

// List returns every profile, passwords included. Admin console only.
func (s *ToolProfileService) List(ctx context.Context) ([]models.ToolProfile, error) {
	return s.profiles.List(ctx)
}

// Delete removes a profile.
func (s *ToolProfileService) Delete(ctx context.Context, id string) error {
	profile, err := s.profiles.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if profile == nil {
		return errors.NewNotFoundError("profile", id)
	}
	return s.profiles.Delete(ctx, id)
}
