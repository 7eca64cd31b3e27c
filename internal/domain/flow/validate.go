package flow

import (
	"fmt"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/pkg/constants"
	"github.com/marketgate/backend/pkg/errors"
)

// ValidationResult aggregates question-level errors for a step or section.
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []errors.FieldError `json:"errors,omitempty"`
}

// ValidateQuestion checks one answer value against its question's type
// rules. Returns nil when valid. Non-required questions pass when
// unanswered; answered values must still conform to the type shape.
func ValidateQuestion(q models.Question, value interface{}) *errors.FieldError {
	answered := value != nil && value != ""
	if !answered {
		if q.Required() {
			return &errors.FieldError{Alias: q.Alias, Message: "is required"}
		}
		return nil
	}

	switch q.Type {
	case constants.QuestionSingleSelection, constants.QuestionSingleSelectionBool:
		return validateSingleSelection(q, value)
	case constants.QuestionMultiSelection:
		return validateMultiSelection(q, value)
	case constants.QuestionSlidingScale, constants.QuestionEmotiveScale, constants.QuestionSignalScale:
		return validateScale(q, value)
	case constants.QuestionDetailForm:
		return validateDetailForm(q, value)
	default:
		return &errors.FieldError{Alias: q.Alias, Message: fmt.Sprintf("unknown question type '%s'", q.Type)}
	}
}

func validateSingleSelection(q models.Question, value interface{}) *errors.FieldError {
	s, ok := value.(string)
	if !ok {
		return &errors.FieldError{Alias: q.Alias, Message: "expected a single selection value"}
	}
	props, ok := q.Props.(*models.SingleSelectionProps)
	if !ok || len(props.Options) == 0 {
		return nil
	}
	for _, opt := range props.Options {
		if opt.Value == s {
			return nil
		}
	}
	return &errors.FieldError{Alias: q.Alias, Message: fmt.Sprintf("'%s' is not one of the configured options", s)}
}

func validateMultiSelection(q models.Question, value interface{}) *errors.FieldError {
	selected, ok := toStringList(value)
	if !ok {
		return &errors.FieldError{Alias: q.Alias, Message: "expected a list of selections"}
	}

	props, _ := q.Props.(*models.MultiSelectionProps)
	if props == nil {
		return nil
	}

	if q.Required() && len(selected) == 0 {
		return &errors.FieldError{Alias: q.Alias, Message: "is required"}
	}
	if len(selected) == 0 {
		return nil
	}

	if props.MinSelections > 0 && len(selected) < props.MinSelections {
		return &errors.FieldError{Alias: q.Alias, Message: fmt.Sprintf("select at least %d options", props.MinSelections)}
	}
	if props.MaxSelections > 0 && len(selected) > props.MaxSelections {
		return &errors.FieldError{Alias: q.Alias, Message: fmt.Sprintf("select at most %d options", props.MaxSelections)}
	}

	if len(props.Options) > 0 {
		allowed := make(map[string]bool, len(props.Options))
		for _, opt := range props.Options {
			allowed[opt.Value] = true
		}
		for _, s := range selected {
			if !allowed[s] {
				return &errors.FieldError{Alias: q.Alias, Message: fmt.Sprintf("'%s' is not one of the configured options", s)}
			}
		}
	}
	return nil
}

func validateScale(q models.Question, value interface{}) *errors.FieldError {
	num, ok := toNumber(value)
	if !ok {
		return &errors.FieldError{Alias: q.Alias, Message: "expected a numeric scale value"}
	}

	props, _ := q.Props.(*models.ScaleProps)
	if props == nil {
		return nil
	}

	min, max := props.ScaleRange()
	if min == 0 && max == 0 {
		return nil
	}
	if num < float64(min) || num > float64(max) {
		return &errors.FieldError{Alias: q.Alias, Message: fmt.Sprintf("value must be between %d and %d", min, max)}
	}
	return nil
}

func validateDetailForm(q models.Question, value interface{}) *errors.FieldError {
	fields, ok := value.(map[string]interface{})
	if !ok {
		return &errors.FieldError{Alias: q.Alias, Message: "expected a form value"}
	}

	props, _ := q.Props.(*models.DetailFormProps)
	if props == nil {
		return nil
	}

	for _, field := range props.Fields {
		if !field.Required {
			continue
		}
		v, present := fields[field.Alias]
		s, isString := v.(string)
		if !present || v == nil || (isString && s == "") {
			return &errors.FieldError{
				Alias:   q.Alias,
				Message: fmt.Sprintf("field '%s' is required", field.Alias),
			}
		}
	}
	return nil
}

// ValidateStep validates every question of a step against the answers.
func ValidateStep(step models.Step, answers models.AnswerSet) ValidationResult {
	var fieldErrors []errors.FieldError
	for _, q := range step.Questions {
		if fe := ValidateQuestion(q, answers[q.Alias]); fe != nil {
			fieldErrors = append(fieldErrors, *fe)
		}
	}
	return ValidationResult{Valid: len(fieldErrors) == 0, Errors: fieldErrors}
}

// ValidateSection validates a section, aggregating only over its currently
// visible steps. Invisible steps (and their questions) are never validated.
func (e *Evaluator) ValidateSection(section models.Section, answers models.AnswerSet) ValidationResult {
	var fieldErrors []errors.FieldError
	for _, step := range e.VisibleSteps(section, answers) {
		result := ValidateStep(step, answers)
		fieldErrors = append(fieldErrors, result.Errors...)
	}
	return ValidationResult{Valid: len(fieldErrors) == 0, Errors: fieldErrors}
}

func toStringList(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func toNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
