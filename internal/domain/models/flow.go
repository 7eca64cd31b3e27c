package models

import "time"

// Flow is a named onboarding configuration: an ordered list of sections,
// each with ordered steps, each with ordered questions. The whole section
// tree is stored as one JSON document per flow row.
type Flow struct {
	Name             string    `json:"name"`
	Role             string    `json:"role"`  // role allowed to run this flow
	Stage            string    `json:"stage"` // stage advanced when the flow completes
	Sections         []Section `json:"sections"`
	CreatedDate      time.Time `json:"created_date,omitempty"`
	LastModifiedDate time.Time `json:"last_modified_date,omitempty"`
}

// Section is a themed grouping of steps within a flow.
type Section struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Color       string       `json:"color,omitempty"`
	Order       int          `json:"order"`
	DisplayRule *DisplayRule `json:"display_rule,omitempty"`
	Steps       []Step       `json:"steps"`
}

// Step is a single screen's worth of questions.
type Step struct {
	ID          int          `json:"id"`
	Order       int          `json:"order"`
	DisplayRule *DisplayRule `json:"display_rule,omitempty"`
	Questions   []Question   `json:"questions"`
}

// DisplayRule decides whether a section or step is visible given the
// current answers. Two forms are supported:
//
//   - alias/values: visible iff the answer stored under Alias equals one of
//     Values. An unanswered alias evaluates false.
//   - expression: an expr predicate over the answer environment, for rules
//     that need more than equality (ranges, list membership, conjunctions).
//
// When both are set the expression wins.
type DisplayRule struct {
	Alias      string   `json:"alias,omitempty"`
	Values     []string `json:"values,omitempty"`
	Expression string   `json:"expression,omitempty"`
}

// SectionPatch is one element of a batched admin save: either a partial
// update of a section's fields or a delete marker.
type SectionPatch struct {
	ID          int          `json:"id"`
	Delete      bool         `json:"_delete,omitempty"`
	Name        *string      `json:"name,omitempty"`
	Color       *string      `json:"color,omitempty"`
	Order       *int         `json:"order,omitempty"`
	DisplayRule *DisplayRule `json:"display_rule,omitempty"`
	Steps       []Step       `json:"steps,omitempty"`
}
