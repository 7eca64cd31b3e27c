package flow

import "github.com/marketgate/backend/internal/domain/models"

// Mode is the navigation state machine's top-level state.
type Mode string

const (
	ModeInFlow   Mode = "in_flow"
	ModeRecap    Mode = "recap"
	ModeComplete Mode = "complete"
)

// State is the current navigation position. SectionIdx and StepIdx index
// into the full (unfiltered) sections slice; the invariant is that in
// ModeInFlow they point at a visible section and step. All transitions are
// pure: they return the new state and never mutate the receiver.
type State struct {
	Mode       Mode `json:"mode"`
	SectionIdx int  `json:"section_idx"`
	StepIdx    int  `json:"step_idx"`
}

// Start returns the initial state: positioned at the first visible step of
// the first visible section, or recap when nothing is visible.
func (e *Evaluator) Start(sections []models.Section, answers models.AnswerSet) State {
	for si, sec := range sections {
		if !e.IsVisible(sec.DisplayRule, answers) {
			continue
		}
		for pi, step := range sec.Steps {
			if e.IsVisible(step.DisplayRule, answers) {
				return State{Mode: ModeInFlow, SectionIdx: si, StepIdx: pi}
			}
		}
	}
	return State{Mode: ModeRecap}
}

// Advance moves to the next visible step within the current section, or to
// the next visible section's first visible step, or to recap when nothing
// remains. Advance never regresses: the search runs strictly forward from
// the current position. Outside ModeInFlow it is a no-op.
func (e *Evaluator) Advance(state State, sections []models.Section, answers models.AnswerSet) State {
	if state.Mode != ModeInFlow {
		return state
	}
	if next, ok := e.nextVisible(sections, answers, state.SectionIdx, state.StepIdx+1); ok {
		return next
	}
	return State{Mode: ModeRecap}
}

// nextVisible finds the first visible (section, step) position at or after
// (sectionIdx, stepIdx), moving forward through the schema.
func (e *Evaluator) nextVisible(sections []models.Section, answers models.AnswerSet, sectionIdx, stepIdx int) (State, bool) {
	for si := sectionIdx; si < len(sections); si++ {
		sec := sections[si]
		if !e.IsVisible(sec.DisplayRule, answers) {
			continue
		}
		start := 0
		if si == sectionIdx {
			start = stepIdx
		}
		for pi := start; pi < len(sec.Steps); pi++ {
			if e.IsVisible(sec.Steps[pi].DisplayRule, answers) {
				return State{Mode: ModeInFlow, SectionIdx: si, StepIdx: pi}, true
			}
		}
	}
	return State{}, false
}

// Retreat moves to the previous visible step, crossing into the previous
// visible section's last visible step at a section boundary. At the very
// first visible node it is a no-op. Outside ModeInFlow it is a no-op.
func (e *Evaluator) Retreat(state State, sections []models.Section, answers models.AnswerSet) State {
	if state.Mode != ModeInFlow {
		return state
	}

	for si := state.SectionIdx; si >= 0; si-- {
		sec := sections[si]
		if !e.IsVisible(sec.DisplayRule, answers) {
			continue
		}
		end := len(sec.Steps) - 1
		if si == state.SectionIdx {
			end = state.StepIdx - 1
		}
		for pi := end; pi >= 0; pi-- {
			if e.IsVisible(sec.Steps[pi].DisplayRule, answers) {
				return State{Mode: ModeInFlow, SectionIdx: si, StepIdx: pi}
			}
		}
	}
	return state
}

// Jump navigates directly to a section by id, landing on its first visible
// step, or step 0 when none of its steps are visible. Jump is legal from
// recap (the "back to editing" path) as well as from within the flow. An
// unknown section id leaves the state unchanged and reports false.
func (e *Evaluator) Jump(state State, sections []models.Section, answers models.AnswerSet, sectionID int) (State, bool) {
	for si, sec := range sections {
		if sec.ID != sectionID {
			continue
		}
		for pi, step := range sec.Steps {
			if e.IsVisible(step.DisplayRule, answers) {
				return State{Mode: ModeInFlow, SectionIdx: si, StepIdx: pi}, true
			}
		}
		return State{Mode: ModeInFlow, SectionIdx: si, StepIdx: 0}, true
	}
	return state, false
}

// Reposition re-routes after an answer change: when the current node is no
// longer visible it advances to the next visible node at or after the
// current position, or recap when none remains. When the current node is
// still visible the state is returned unchanged. This is the reactive edge
// of the state machine; callers invoke it after every answer write.
func (e *Evaluator) Reposition(state State, sections []models.Section, answers models.AnswerSet) State {
	if state.Mode != ModeInFlow {
		return state
	}

	if state.SectionIdx < len(sections) {
		sec := sections[state.SectionIdx]
		if e.IsVisible(sec.DisplayRule, answers) && state.StepIdx < len(sec.Steps) {
			if e.IsVisible(sec.Steps[state.StepIdx].DisplayRule, answers) {
				return state
			}
		}
	}

	if next, ok := e.nextVisible(sections, answers, state.SectionIdx, state.StepIdx); ok {
		return next
	}
	return State{Mode: ModeRecap}
}

// AtFirst reports whether the state sits on the first visible node, i.e.
// whether Retreat would be a no-op.
func (e *Evaluator) AtFirst(state State, sections []models.Section, answers models.AnswerSet) bool {
	if state.Mode != ModeInFlow {
		return false
	}
	return e.Retreat(state, sections, answers) == state
}

// CurrentStep returns the step the state points at, or nil outside
// ModeInFlow or when indices are stale.
func CurrentStep(state State, sections []models.Section) *models.Step {
	if state.Mode != ModeInFlow || state.SectionIdx >= len(sections) {
		return nil
	}
	sec := sections[state.SectionIdx]
	if state.StepIdx >= len(sec.Steps) {
		return nil
	}
	return &sec.Steps[state.StepIdx]
}

// CurrentSection returns the section the state points at, or nil.
func CurrentSection(state State, sections []models.Section) *models.Section {
	if state.Mode != ModeInFlow || state.SectionIdx >= len(sections) {
		return nil
	}
	return &sections[state.SectionIdx]
}

// PositionFor converts a state to the persisted id-based position.
func PositionFor(state State, sections []models.Section) models.Position {
	pos := models.Position{Mode: string(state.Mode)}
	if sec := CurrentSection(state, sections); sec != nil {
		pos.SectionID = sec.ID
		if step := CurrentStep(state, sections); step != nil {
			pos.StepID = step.ID
		}
	}
	return pos
}

// StateFor converts a persisted id-based position back to an index-based
// state. Unknown ids fall back to Start so a position saved against a
// since-edited schema cannot strand the user.
func (e *Evaluator) StateFor(pos *models.Position, sections []models.Section, answers models.AnswerSet) State {
	if pos == nil {
		return e.Start(sections, answers)
	}
	switch Mode(pos.Mode) {
	case ModeRecap:
		return State{Mode: ModeRecap}
	case ModeComplete:
		return State{Mode: ModeComplete}
	}

	for si, sec := range sections {
		if sec.ID != pos.SectionID {
			continue
		}
		for pi, step := range sec.Steps {
			if step.ID == pos.StepID {
				return e.Reposition(State{Mode: ModeInFlow, SectionIdx: si, StepIdx: pi}, sections, answers)
			}
		}
	}
	return e.Start(sections, answers)
}
