package models

import (
	"encoding/json"
	"fmt"

	"github.com/marketgate/backend/pkg/constants"
)

// Question is one typed input unit identified by an alias. The alias is the
// key under which its answer lives in the AnswerSet. Props is a tagged
// union: exactly one concrete type per question type tag.
type Question struct {
	Type     string        `json:"type"`
	Alias    string        `json:"alias"`
	Editable bool          `json:"editable"`
	Props    QuestionProps `json:"properties"`
}

// QuestionProps is implemented by every per-type property struct.
type QuestionProps interface {
	IsRequired() bool
}

// Option is one selectable choice.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SingleSelectionProps configures a pick-one question. Also used by the
// boolean-conditional variant, where choosing TriggerValue reveals a
// follow-up prompt on the client.
type SingleSelectionProps struct {
	Text            string   `json:"text"`
	Required        bool     `json:"required"`
	Options         []Option `json:"options"`
	TriggerValue    string   `json:"trigger_value,omitempty"`
	ConditionalText string   `json:"conditional_text,omitempty"`
}

func (p *SingleSelectionProps) IsRequired() bool { return p.Required }

// MultiSelectionProps configures a pick-many question with optional
// selection count bounds. Zero means unbounded.
type MultiSelectionProps struct {
	Text          string   `json:"text"`
	Required      bool     `json:"required"`
	Options       []Option `json:"options"`
	MinSelections int      `json:"min_selections,omitempty"`
	MaxSelections int      `json:"max_selections,omitempty"`
}

func (p *MultiSelectionProps) IsRequired() bool { return p.Required }

// ScaleProps configures the three scale variants (sliding, emotive,
// signal). Sliding scales use Min/Max/Step; emotive and signal scales use
// Levels (number of discrete points, answers are 1..Levels).
type ScaleProps struct {
	Text     string `json:"text"`
	Required bool   `json:"required"`
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
	Step     int    `json:"step,omitempty"`
	Levels   int    `json:"levels,omitempty"`
	MinLabel string `json:"min_label,omitempty"`
	MaxLabel string `json:"max_label,omitempty"`
}

func (p *ScaleProps) IsRequired() bool { return p.Required }

// ScaleRange returns the inclusive answer bounds for the scale.
func (p *ScaleProps) ScaleRange() (min, max int) {
	if p.Levels > 0 {
		return 1, p.Levels
	}
	return p.Min, p.Max
}

// DetailFormProps configures a nested form question. The answer is an
// object of field alias to string value.
type DetailFormProps struct {
	Text     string        `json:"text"`
	Required bool          `json:"required"`
	Fields   []DetailField `json:"fields"`
}

func (p *DetailFormProps) IsRequired() bool { return p.Required }

// DetailField is one sub-field of a DetailForm.
type DetailField struct {
	Alias       string `json:"alias"`
	Label       string `json:"label"`
	Required    bool   `json:"required"`
	Placeholder string `json:"placeholder,omitempty"`
}

// questionEnvelope is the wire shape: the type tag discriminates which
// concrete props struct the properties bag decodes into.
type questionEnvelope struct {
	Type     string          `json:"type"`
	Alias    string          `json:"alias"`
	Editable bool            `json:"editable"`
	Props    json.RawMessage `json:"properties"`
}

// UnmarshalJSON decodes the properties bag into the concrete props type
// selected by the type tag.
func (q *Question) UnmarshalJSON(data []byte) error {
	var env questionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	q.Type = env.Type
	q.Alias = env.Alias
	q.Editable = env.Editable

	if q.Alias == "" {
		return fmt.Errorf("question is missing an alias")
	}

	props, err := decodeProps(env.Type, env.Props)
	if err != nil {
		return fmt.Errorf("question '%s': %w", q.Alias, err)
	}
	q.Props = props
	return nil
}

func decodeProps(typeTag string, raw json.RawMessage) (QuestionProps, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	switch typeTag {
	case constants.QuestionSingleSelection, constants.QuestionSingleSelectionBool:
		var p SingleSelectionProps
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case constants.QuestionMultiSelection:
		var p MultiSelectionProps
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case constants.QuestionSlidingScale, constants.QuestionEmotiveScale, constants.QuestionSignalScale:
		var p ScaleProps
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case constants.QuestionDetailForm:
		var p DetailFormProps
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unknown question type '%s'", typeTag)
	}
}

// MarshalJSON writes the envelope form back out.
func (q Question) MarshalJSON() ([]byte, error) {
	props, err := json.Marshal(q.Props)
	if err != nil {
		return nil, err
	}
	return json.Marshal(questionEnvelope{
		Type:     q.Type,
		Alias:    q.Alias,
		Editable: q.Editable,
		Props:    props,
	})
}

// Required reports whether the question must be answered. Questions with
// no decoded props are treated as optional.
func (q *Question) Required() bool {
	if q.Props == nil {
		return false
	}
	return q.Props.IsRequired()
}
