package models

import "time"

// AnswerSet is the flat mapping from question alias to answer value.
// Value shapes by question type: string for selections, float64 for scales
// (JSON numbers), []interface{} of strings for multi-selections, and
// map[string]interface{} for DetailForm sub-fields. A missing key means
// unanswered.
type AnswerSet map[string]interface{}

// Merge overlays incoming answers onto the set. Nil values delete the key
// so a cleared answer does not linger and keep conditional nodes visible.
func (a AnswerSet) Merge(incoming AnswerSet) {
	for alias, value := range incoming {
		if value == nil {
			delete(a, alias)
			continue
		}
		a[alias] = value
	}
}

// Env returns the answer set as an expression environment.
func (a AnswerSet) Env() map[string]interface{} {
	env := make(map[string]interface{}, len(a))
	for k, v := range a {
		env[k] = v
	}
	return env
}

// Position is the persisted navigation position within a flow. Section and
// step are tracked by id, not index, so a saved position survives admin
// edits that reorder the schema.
type Position struct {
	Mode      string `json:"mode"` // in_flow|recap|complete
	SectionID int    `json:"section_id,omitempty"`
	StepID    int    `json:"step_id,omitempty"`
}

// AnswerRecord is one row of mg_answer: the full answer document plus the
// saved position for a (user, flow) pair.
type AnswerRecord struct {
	UserID           string     `json:"user_id"`
	FlowName         string     `json:"flow_name"`
	Answers          AnswerSet  `json:"answers"`
	Position         *Position  `json:"position,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedDate      time.Time  `json:"created_date,omitempty"`
	LastModifiedDate time.Time  `json:"last_modified_date,omitempty"`
}
