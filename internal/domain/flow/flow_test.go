package flow

import (
	"testing"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/pkg/constants"
	"github.com/marketgate/backend/pkg/expression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleSelection(alias string, required bool, options ...string) models.Question {
	opts := make([]models.Option, 0, len(options))
	for _, o := range options {
		opts = append(opts, models.Option{Value: o, Label: o})
	}
	return models.Question{
		Type:     constants.QuestionSingleSelection,
		Alias:    alias,
		Editable: true,
		Props:    &models.SingleSelectionProps{Text: alias + "?", Required: required, Options: opts},
	}
}

// twoSectionSchema is the scenario from the recap example: two sections A
// and B, each with one required single-selection step. conditionalB, when
// set, gates section B on A's answer.
func twoSectionSchema(conditionalB *models.DisplayRule) []models.Section {
	return []models.Section{
		{
			ID: 1, Name: "A", Order: 0,
			Steps: []models.Step{
				{ID: 1, Order: 0, Questions: []models.Question{singleSelection("a1", true, "yes", "no")}},
			},
		},
		{
			ID: 2, Name: "B", Order: 1, DisplayRule: conditionalB,
			Steps: []models.Step{
				{ID: 1, Order: 0, Questions: []models.Question{singleSelection("b1", true, "x", "y")}},
			},
		},
	}
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(expression.NewEngine())
}

func TestIsVisible(t *testing.T) {
	e := newTestEvaluator()

	tests := []struct {
		name    string
		rule    *models.DisplayRule
		answers models.AnswerSet
		want    bool
	}{
		{name: "No Rule Always Visible", rule: nil, answers: models.AnswerSet{}, want: true},
		{
			name:    "Alias Match",
			rule:    &models.DisplayRule{Alias: "kind", Values: []string{"seller", "ally"}},
			answers: models.AnswerSet{"kind": "seller"},
			want:    true,
		},
		{
			name:    "Alias Mismatch",
			rule:    &models.DisplayRule{Alias: "kind", Values: []string{"seller"}},
			answers: models.AnswerSet{"kind": "buyer"},
			want:    false,
		},
		{
			name:    "Unanswered Alias Is Hidden",
			rule:    &models.DisplayRule{Alias: "kind", Values: []string{"seller"}},
			answers: models.AnswerSet{},
			want:    false,
		},
		{
			name:    "Numeric Answer Matches String Value",
			rule:    &models.DisplayRule{Alias: "score", Values: []string{"3"}},
			answers: models.AnswerSet{"score": float64(3)},
			want:    true,
		},
		{
			name:    "Multi Selection Intersects",
			rule:    &models.DisplayRule{Alias: "regions", Values: []string{"eu"}},
			answers: models.AnswerSet{"regions": []interface{}{"us", "eu"}},
			want:    true,
		},
		{
			name:    "Multi Selection Disjoint",
			rule:    &models.DisplayRule{Alias: "regions", Values: []string{"apac"}},
			answers: models.AnswerSet{"regions": []interface{}{"us", "eu"}},
			want:    false,
		},
		{
			name:    "Expression Rule",
			rule:    &models.DisplayRule{Expression: "employees > 50"},
			answers: models.AnswerSet{"employees": float64(80)},
			want:    true,
		},
		{
			name:    "Expression Rule Unanswered",
			rule:    &models.DisplayRule{Expression: "employees > 50"},
			answers: models.AnswerSet{},
			want:    false,
		},
		{
			name:    "Broken Expression Hides Node",
			rule:    &models.DisplayRule{Expression: "employees >"},
			answers: models.AnswerSet{"employees": float64(80)},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsVisible(tt.rule, tt.answers))
		})
	}
}

func TestVisibleSections_Order(t *testing.T) {
	e := newTestEvaluator()
	sections := []models.Section{
		{ID: 1, Order: 0},
		{ID: 2, Order: 1, DisplayRule: &models.DisplayRule{Alias: "gate", Values: []string{"open"}}},
		{ID: 3, Order: 2},
	}

	visible := e.VisibleSections(sections, models.AnswerSet{})
	require.Len(t, visible, 2)
	assert.Equal(t, 1, visible[0].ID)
	assert.Equal(t, 3, visible[1].ID)

	visible = e.VisibleSections(sections, models.AnswerSet{"gate": "open"})
	require.Len(t, visible, 3)
	assert.Equal(t, 2, visible[1].ID)
}

func TestValidateQuestion(t *testing.T) {
	multi := models.Question{
		Type:  constants.QuestionMultiSelection,
		Alias: "regions",
		Props: &models.MultiSelectionProps{
			Required: true,
			Options:  []models.Option{{Value: "eu"}, {Value: "us"}, {Value: "apac"}},
			MinSelections: 2,
			MaxSelections: 3,
		},
	}
	scale := models.Question{
		Type:  constants.QuestionSlidingScale,
		Alias: "confidence",
		Props: &models.ScaleProps{Required: true, Min: 1, Max: 10},
	}
	form := models.Question{
		Type:  constants.QuestionDetailForm,
		Alias: "contact",
		Props: &models.DetailFormProps{
			Required: true,
			Fields: []models.DetailField{
				{Alias: "first_name", Required: true},
				{Alias: "phone", Required: false},
			},
		},
	}

	tests := []struct {
		name    string
		q       models.Question
		value   interface{}
		wantErr bool
	}{
		{name: "Required Missing", q: singleSelection("a", true, "x"), value: nil, wantErr: true},
		{name: "Required Empty String", q: singleSelection("a", true, "x"), value: "", wantErr: true},
		{name: "Optional Missing", q: singleSelection("a", false, "x"), value: nil, wantErr: false},
		{name: "Valid Option", q: singleSelection("a", true, "x", "y"), value: "y", wantErr: false},
		{name: "Unknown Option", q: singleSelection("a", true, "x", "y"), value: "z", wantErr: true},
		{name: "Wrong Shape", q: singleSelection("a", true, "x"), value: []interface{}{"x"}, wantErr: true},
		{name: "Multi Below Min", q: multi, value: []interface{}{"eu"}, wantErr: true},
		{name: "Multi Within Bounds", q: multi, value: []interface{}{"eu", "us"}, wantErr: false},
		{name: "Multi Unknown Value", q: multi, value: []interface{}{"eu", "mars"}, wantErr: true},
		{name: "Scale In Range", q: scale, value: float64(7), wantErr: false},
		{name: "Scale Out Of Range", q: scale, value: float64(11), wantErr: true},
		{name: "Scale Not A Number", q: scale, value: "7", wantErr: true},
		{name: "Form Complete", q: form, value: map[string]interface{}{"first_name": "Ada"}, wantErr: false},
		{name: "Form Missing Required Field", q: form, value: map[string]interface{}{"phone": "555"}, wantErr: true},
		{name: "Form Empty Required Field", q: form, value: map[string]interface{}{"first_name": ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := ValidateQuestion(tt.q, tt.value)
			if tt.wantErr {
				require.NotNil(t, fe)
				assert.Equal(t, tt.q.Alias, fe.Alias)
			} else {
				assert.Nil(t, fe)
			}
		})
	}
}

func TestValidateSection_SkipsInvisibleSteps(t *testing.T) {
	e := newTestEvaluator()
	section := models.Section{
		ID: 1,
		Steps: []models.Step{
			{ID: 1, Questions: []models.Question{singleSelection("visible_q", true, "x")}},
			{
				ID:          2,
				DisplayRule: &models.DisplayRule{Alias: "gate", Values: []string{"open"}},
				Questions:   []models.Question{singleSelection("hidden_q", true, "x")},
			},
		},
	}

	// Gate closed: the hidden step's required question must not count.
	result := e.ValidateSection(section, models.AnswerSet{"visible_q": "x"})
	assert.True(t, result.Valid)

	// Gate open: now it does.
	result = e.ValidateSection(section, models.AnswerSet{"visible_q": "x", "gate": "open"})
	require.False(t, result.Valid)
	assert.Equal(t, "hidden_q", result.Errors[0].Alias)
}

func TestNavigation_AdvanceThroughSchema(t *testing.T) {
	e := newTestEvaluator()
	sections := twoSectionSchema(nil)
	answers := models.AnswerSet{}

	state := e.Start(sections, answers)
	assert.Equal(t, State{Mode: ModeInFlow, SectionIdx: 0, StepIdx: 0}, state)

	state = e.Advance(state, sections, answers)
	assert.Equal(t, State{Mode: ModeInFlow, SectionIdx: 1, StepIdx: 0}, state)

	state = e.Advance(state, sections, answers)
	assert.Equal(t, ModeRecap, state.Mode)

	// Advancing out of recap is a no-op; recap->complete is the service's
	// transition, gated on full validation.
	assert.Equal(t, state, e.Advance(state, sections, answers))
}

func TestNavigation_ConditionalSectionSkipped(t *testing.T) {
	e := newTestEvaluator()
	// B only shows when A answered "yes".
	sections := twoSectionSchema(&models.DisplayRule{Alias: "a1", Values: []string{"yes"}})

	// Chosen value makes B's rule false: advance from A goes straight to recap.
	answers := models.AnswerSet{"a1": "no"}
	state := e.Start(sections, answers)
	state = e.Advance(state, sections, answers)
	assert.Equal(t, ModeRecap, state.Mode)

	// Opposite answer keeps B reachable.
	answers = models.AnswerSet{"a1": "yes"}
	state = e.Start(sections, answers)
	state = e.Advance(state, sections, answers)
	assert.Equal(t, State{Mode: ModeInFlow, SectionIdx: 1, StepIdx: 0}, state)
}

func TestNavigation_AdvanceNeverRegresses(t *testing.T) {
	e := newTestEvaluator()
	sections := []models.Section{
		{ID: 1, Steps: []models.Step{
			{ID: 1}, {ID: 2}, {ID: 3},
		}},
	}
	answers := models.AnswerSet{}

	state := e.Start(sections, answers)
	seen := state
	for i := 0; i < 5; i++ {
		next := e.Advance(seen, sections, answers)
		if next.Mode == ModeRecap {
			break
		}
		require.True(t, next.StepIdx > seen.StepIdx, "advance regressed from %v to %v", seen, next)
		seen = next
	}
}

func TestNavigation_Retreat(t *testing.T) {
	e := newTestEvaluator()
	sections := twoSectionSchema(nil)
	answers := models.AnswerSet{}

	state := State{Mode: ModeInFlow, SectionIdx: 1, StepIdx: 0}
	state = e.Retreat(state, sections, answers)
	assert.Equal(t, State{Mode: ModeInFlow, SectionIdx: 0, StepIdx: 0}, state)

	// At the very first node retreat is a no-op.
	assert.Equal(t, state, e.Retreat(state, sections, answers))
	assert.True(t, e.AtFirst(state, sections, answers))
}

func TestNavigation_RetreatSkipsInvisible(t *testing.T) {
	e := newTestEvaluator()
	sections := []models.Section{
		{ID: 1, Steps: []models.Step{{ID: 1}}},
		{
			ID:          2,
			DisplayRule: &models.DisplayRule{Alias: "gate", Values: []string{"open"}},
			Steps:       []models.Step{{ID: 1}},
		},
		{ID: 3, Steps: []models.Step{{ID: 1}}},
	}
	answers := models.AnswerSet{}

	state := State{Mode: ModeInFlow, SectionIdx: 2, StepIdx: 0}
	state = e.Retreat(state, sections, answers)
	assert.Equal(t, State{Mode: ModeInFlow, SectionIdx: 0, StepIdx: 0}, state)
}

func TestNavigation_Jump(t *testing.T) {
	e := newTestEvaluator()
	sections := []models.Section{
		{ID: 10, Steps: []models.Step{{ID: 1}}},
		{ID: 20, Steps: []models.Step{
			{ID: 1, DisplayRule: &models.DisplayRule{Alias: "gate", Values: []string{"open"}}},
			{ID: 2},
		}},
	}
	answers := models.AnswerSet{}

	// Lands on first visible step of the target.
	state, ok := e.Jump(State{Mode: ModeRecap}, sections, answers, 20)
	require.True(t, ok)
	assert.Equal(t, State{Mode: ModeInFlow, SectionIdx: 1, StepIdx: 1}, state)

	// Unknown section id: unchanged.
	prev := State{Mode: ModeInFlow, SectionIdx: 0, StepIdx: 0}
	state, ok = e.Jump(prev, sections, answers, 99)
	assert.False(t, ok)
	assert.Equal(t, prev, state)
}

func TestNavigation_JumpFallsBackToStepZero(t *testing.T) {
	e := newTestEvaluator()
	sections := []models.Section{
		{ID: 10, Steps: []models.Step{
			{ID: 1, DisplayRule: &models.DisplayRule{Alias: "gate", Values: []string{"open"}}},
		}},
	}

	state, ok := e.Jump(State{Mode: ModeRecap}, sections, models.AnswerSet{}, 10)
	require.True(t, ok)
	assert.Equal(t, State{Mode: ModeInFlow, SectionIdx: 0, StepIdx: 0}, state)
}

func TestNavigation_RepositionAfterAnswerChange(t *testing.T) {
	e := newTestEvaluator()
	sections := []models.Section{
		{ID: 1, Steps: []models.Step{{ID: 1}}},
		{
			ID:          2,
			DisplayRule: &models.DisplayRule{Alias: "a1", Values: []string{"yes"}},
			Steps:       []models.Step{{ID: 1}},
		},
		{ID: 3, Steps: []models.Step{{ID: 1}}},
	}

	// User is inside section 2, then the gating answer flips.
	state := State{Mode: ModeInFlow, SectionIdx: 1, StepIdx: 0}

	// Still visible: no movement.
	assert.Equal(t, state, e.Reposition(state, sections, models.AnswerSet{"a1": "yes"}))

	// Now invisible: reroute to the next visible node.
	moved := e.Reposition(state, sections, models.AnswerSet{"a1": "no"})
	assert.Equal(t, State{Mode: ModeInFlow, SectionIdx: 2, StepIdx: 0}, moved)
}

func TestNavigation_RepositionToRecapWhenNothingRemains(t *testing.T) {
	e := newTestEvaluator()
	sections := []models.Section{
		{ID: 1, Steps: []models.Step{{ID: 1}}},
		{
			ID:          2,
			DisplayRule: &models.DisplayRule{Alias: "a1", Values: []string{"yes"}},
			Steps:       []models.Step{{ID: 1}},
		},
	}

	state := State{Mode: ModeInFlow, SectionIdx: 1, StepIdx: 0}
	moved := e.Reposition(state, sections, models.AnswerSet{"a1": "no"})
	assert.Equal(t, ModeRecap, moved.Mode)
}

func TestPositionRoundTrip(t *testing.T) {
	e := newTestEvaluator()
	sections := twoSectionSchema(nil)
	answers := models.AnswerSet{}

	state := State{Mode: ModeInFlow, SectionIdx: 1, StepIdx: 0}
	pos := PositionFor(state, sections)
	assert.Equal(t, models.Position{Mode: "in_flow", SectionID: 2, StepID: 1}, pos)

	restored := e.StateFor(&pos, sections, answers)
	assert.Equal(t, state, restored)

	// A position pointing at a deleted section falls back to Start.
	stale := models.Position{Mode: "in_flow", SectionID: 99, StepID: 1}
	assert.Equal(t, e.Start(sections, answers), e.StateFor(&stale, sections, answers))

	// Recap and complete survive as-is.
	assert.Equal(t, State{Mode: ModeRecap}, e.StateFor(&models.Position{Mode: "recap"}, sections, answers))
	assert.Equal(t, State{Mode: ModeComplete}, e.StateFor(&models.Position{Mode: "complete"}, sections, answers))
}

func TestStateFor_RepositionsStalePosition(t *testing.T) {
	e := newTestEvaluator()
	sections := twoSectionSchema(&models.DisplayRule{Alias: "a1", Values: []string{"yes"}})

	// Saved position inside section B, but the answer now hides B.
	pos := models.Position{Mode: "in_flow", SectionID: 2, StepID: 1}
	state := e.StateFor(&pos, sections, models.AnswerSet{"a1": "no"})
	assert.Equal(t, ModeRecap, state.Mode)
}
