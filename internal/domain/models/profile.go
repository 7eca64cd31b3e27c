package models

import (
	"encoding/json"
	"time"
)

// ToolProfile is a published, password-protected profile derived from
// onboarding answers. The access password is stored as plain text: password
// display and recovery in the admin console depend on reading it back, so
// hashing it would change observable behavior. Known weakness, kept.
type ToolProfile struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"` // buyer|seller|ally
	Payload          json.RawMessage `json:"payload"`
	AccessPassword   string          `json:"access_password,omitempty"`
	CreatedBy        string          `json:"created_by"`
	CreatedDate      time.Time       `json:"created_date"`
	LastModifiedDate time.Time       `json:"last_modified_date"`
}

// Public returns a copy safe to hand to a viewer who supplied the correct
// password: the password itself is stripped.
func (p ToolProfile) Public() ToolProfile {
	p.AccessPassword = ""
	return p
}
