package models

import "time"

// ProgressRecord tracks a user's status within one onboarding stage.
// A user has at most one row per stage; the current stage is the most
// recently created row. Rows are never deleted in normal operation.
type ProgressRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	StageID          string    `json:"stage_id"`
	Status           string    `json:"status"` // not_started|in_progress|in_review|completed
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// UserProgress is the admin-console view: a user plus their current stage.
type UserProgress struct {
	UserID  string           `json:"user_id"`
	Email   string           `json:"email"`
	Name    string           `json:"name"`
	Role    string           `json:"role"`
	Current *ProgressRecord  `json:"current_stage,omitempty"`
	History []ProgressRecord `json:"history,omitempty"`
}
