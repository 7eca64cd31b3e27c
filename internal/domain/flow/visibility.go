// Package flow implements the onboarding flow engine: visibility
// evaluation, per-question validation, and the navigation state machine.
// Everything here is pure - state goes in, state comes out - so the engine
// can be unit tested without a database or HTTP layer.
package flow

import (
	"fmt"

	"github.com/marketgate/backend/internal/domain/models"
)

// RuleEvaluator evaluates expression-form display rules against the answer
// environment. pkg/expression.Engine satisfies it.
type RuleEvaluator interface {
	EvaluateBool(expression string, env map[string]interface{}) (bool, error)
}

// Evaluator computes node visibility against the latest answers. There is
// no caching: rules are cheap and recomputing on every call keeps
// visibility consistent with the answer set at all times.
type Evaluator struct {
	rules RuleEvaluator
}

// NewEvaluator creates an Evaluator. rules may be nil when no flow uses
// expression-form display rules; such rules then evaluate false.
func NewEvaluator(rules RuleEvaluator) *Evaluator {
	return &Evaluator{rules: rules}
}

// IsVisible reports whether a node with the given rule is visible. A node
// without a rule is always visible. A rule whose referenced alias is
// unanswered evaluates false, as does an expression that fails to
// evaluate: a broken rule hides its node rather than breaking the flow.
func (e *Evaluator) IsVisible(rule *models.DisplayRule, answers models.AnswerSet) bool {
	if rule == nil {
		return true
	}

	if rule.Expression != "" {
		if e.rules == nil {
			return false
		}
		ok, err := e.rules.EvaluateBool(rule.Expression, answers.Env())
		if err != nil {
			return false
		}
		return ok
	}

	if rule.Alias == "" {
		return true
	}

	value, answered := answers[rule.Alias]
	if !answered || value == nil {
		return false
	}

	return answerMatches(value, rule.Values)
}

// answerMatches reports whether the stored answer holds one of the
// expected values. Multi-selection answers match when any selected value
// is expected.
func answerMatches(value interface{}, expected []string) bool {
	switch v := value.(type) {
	case []interface{}:
		for _, item := range v {
			if stringMatches(item, expected) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if stringMatches(item, expected) {
				return true
			}
		}
		return false
	default:
		return stringMatches(v, expected)
	}
}

func stringMatches(value interface{}, expected []string) bool {
	s := answerString(value)
	for _, want := range expected {
		if s == want {
			return true
		}
	}
	return false
}

// answerString renders a scalar answer for comparison against rule values.
// Scale answers arrive as JSON numbers (float64); integral ones render
// without a decimal point so a rule value of "3" matches.
func answerString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// VisibleSections returns the sections currently visible, in schema order.
func (e *Evaluator) VisibleSections(sections []models.Section, answers models.AnswerSet) []models.Section {
	var visible []models.Section
	for _, sec := range sections {
		if e.IsVisible(sec.DisplayRule, answers) {
			visible = append(visible, sec)
		}
	}
	return visible
}

// VisibleSteps returns the steps of a section currently visible, in order.
func (e *Evaluator) VisibleSteps(section models.Section, answers models.AnswerSet) []models.Step {
	var visible []models.Step
	for _, step := range section.Steps {
		if e.IsVisible(step.DisplayRule, answers) {
			visible = append(visible, step)
		}
	}
	return visible
}
