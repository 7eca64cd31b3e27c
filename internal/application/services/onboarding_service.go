package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/marketgate/backend/internal/domain/flow"
	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/internal/infrastructure/persistence"
	"github.com/marketgate/backend/pkg/auth"
	"github.com/marketgate/backend/pkg/errors"
)

// OnboardingService is the flow runtime: it loads a user's saved position,
// validates and persists step submissions, and drives the navigation state
// machine (in-flow, recap, complete). All navigation decisions are made by
// the pure flow.Evaluator; this service adds persistence and access control
// around it.
type OnboardingService struct {
	flows    *persistence.FlowRepository
	answers  *persistence.AnswerRepository
	progress *ProgressService
	engine   *flow.Evaluator
}

// NewOnboardingService creates a new OnboardingService
func NewOnboardingService(flows *persistence.FlowRepository, answers *persistence.AnswerRepository, progress *ProgressService, engine *flow.Evaluator) *OnboardingService {
	return &OnboardingService{flows: flows, answers: answers, progress: progress, engine: engine}
}

// SectionSummary is one sidebar entry: a visible section plus whether the
// user's position is inside it.
type SectionSummary struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color,omitempty"`
	Current bool   `json:"current"`
}

// FlowState is the full view the frontend renders from: current mode and
// node, the visible section list, and the answer document.
type FlowState struct {
	FlowName     string           `json:"flow_name"`
	Mode         string           `json:"mode"`
	Section      *models.Section  `json:"section,omitempty"`
	Step         *models.Step     `json:"step,omitempty"`
	Sections     []SectionSummary `json:"sections"`
	Answers      models.AnswerSet `json:"answers"`
	CanRetreat   bool             `json:"can_retreat"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	StageWarning string           `json:"stage_warning,omitempty"`
}

// IncompleteItem is one unanswered-or-invalid question in a recap report,
// with the section and step to route back to.
type IncompleteItem struct {
	Alias     string `json:"alias"`
	Message   string `json:"message"`
	SectionID int    `json:"section_id"`
	StepID    int    `json:"step_id"`
}

// SectionRecap is the per-section portion of a recap report.
type SectionRecap struct {
	SectionID  int              `json:"section_id"`
	Name       string           `json:"name"`
	Valid      bool             `json:"valid"`
	Incomplete []IncompleteItem `json:"incomplete,omitempty"`
}

// RecapReport summarizes completeness across every visible section.
// Complete is true only when every visible question validates.
type RecapReport struct {
	FlowName string         `json:"flow_name"`
	Sections []SectionRecap `json:"sections"`
	Complete bool           `json:"complete"`
}

type flowContext struct {
	flow  *models.Flow
	rec   *models.AnswerRecord
	state flow.State
}

// load fetches the flow and the user's answer record, gates on role, and
// rebuilds the navigation state from the saved position.
func (s *OnboardingService) load(ctx context.Context, user *auth.UserSession, flowName string) (*flowContext, error) {
	f, err := s.flows.GetFlow(ctx, flowName)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if f == nil {
		return nil, errors.NewNotFoundError("flow", flowName)
	}
	if f.Role != user.Role && !user.IsAdmin() {
		return nil, errors.NewPermissionError("run", "flow "+flowName)
	}

	rec, err := s.answers.GetRecord(ctx, user.ID, flowName)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if rec == nil {
		rec = &models.AnswerRecord{
			UserID:   user.ID,
			FlowName: flowName,
			Answers:  models.AnswerSet{},
		}
	}
	if rec.Answers == nil {
		rec.Answers = models.AnswerSet{}
	}

	state := s.engine.StateFor(rec.Position, f.Sections, rec.Answers)
	return &flowContext{flow: f, rec: rec, state: state}, nil
}

// GetState returns the user's current view of a flow. Read-only: a stale
// saved position is repositioned in the returned view but not written back
// until the next mutation.
func (s *OnboardingService) GetState(ctx context.Context, user *auth.UserSession, flowName string) (*FlowState, error) {
	fc, err := s.load(ctx, user, flowName)
	if err != nil {
		return nil, err
	}
	return s.buildState(fc), nil
}

// SubmitStep validates the incoming answers against the current step,
// merges them into the answer document, and advances to the next visible
// node. Invalid submissions change nothing.
func (s *OnboardingService) SubmitStep(ctx context.Context, user *auth.UserSession, flowName string, incoming models.AnswerSet) (*FlowState, error) {
	fc, err := s.load(ctx, user, flowName)
	if err != nil {
		return nil, err
	}
	if fc.state.Mode != flow.ModeInFlow {
		return nil, errors.NewValidationError("step", "no active step to submit")
	}
	step := flow.CurrentStep(fc.state, fc.flow.Sections)
	if step == nil {
		return nil, errors.NewInternalError("navigation state points at no step", nil)
	}

	merged := models.AnswerSet{}
	merged.Merge(fc.rec.Answers)
	merged.Merge(incoming)

	result := flow.ValidateStep(*step, merged)
	if !result.Valid {
		return nil, errors.NewStepValidationError(result.Errors)
	}

	fc.rec.Answers = merged
	fc.state = s.engine.Advance(fc.state, fc.flow.Sections, merged)
	return s.save(ctx, fc)
}

// Retreat moves back to the previous visible node. No-op at the first
// node and outside in-flow mode.
func (s *OnboardingService) Retreat(ctx context.Context, user *auth.UserSession, flowName string) (*FlowState, error) {
	fc, err := s.load(ctx, user, flowName)
	if err != nil {
		return nil, err
	}
	fc.state = s.engine.Retreat(fc.state, fc.flow.Sections, fc.rec.Answers)
	return s.save(ctx, fc)
}

// Jump moves to the first visible step of the named section.
func (s *OnboardingService) Jump(ctx context.Context, user *auth.UserSession, flowName string, sectionID int) (*FlowState, error) {
	fc, err := s.load(ctx, user, flowName)
	if err != nil {
		return nil, err
	}
	next, ok := s.engine.Jump(fc.state, fc.flow.Sections, fc.rec.Answers, sectionID)
	if !ok {
		return nil, errors.NewNotFoundError("section", fmt.Sprintf("%d", sectionID))
	}
	fc.state = next
	return s.save(ctx, fc)
}

// BackToEditing leaves recap and re-enters the flow at a specific section
// and step, typically one a recap item routed to. Unknown ids land on the
// first visible node instead of failing.
func (s *OnboardingService) BackToEditing(ctx context.Context, user *auth.UserSession, flowName string, sectionID, stepID int) (*FlowState, error) {
	fc, err := s.load(ctx, user, flowName)
	if err != nil {
		return nil, err
	}
	target := &models.Position{Mode: string(flow.ModeInFlow), SectionID: sectionID, StepID: stepID}
	fc.state = s.engine.StateFor(target, fc.flow.Sections, fc.rec.Answers)
	return s.save(ctx, fc)
}

// Recap builds the completeness report shown on the recap screen.
func (s *OnboardingService) Recap(ctx context.Context, user *auth.UserSession, flowName string) (*RecapReport, error) {
	fc, err := s.load(ctx, user, flowName)
	if err != nil {
		return nil, err
	}
	return s.buildRecap(fc), nil
}

// Complete finishes the flow: every visible question must validate, the
// position moves to complete mode, and the flow's stage is advanced.
// Re-completing an already-complete flow is a no-op. When editing is true
// the stage side effect is skipped (an admin revisiting answers after the
// fact should not re-trigger progression). A stage advance failure does
// not roll back completion; it is surfaced as a warning on the returned
// state.
func (s *OnboardingService) Complete(ctx context.Context, user *auth.UserSession, flowName string, editing bool) (*FlowState, error) {
	fc, err := s.load(ctx, user, flowName)
	if err != nil {
		return nil, err
	}
	if fc.state.Mode == flow.ModeComplete {
		return s.buildState(fc), nil
	}
	if fc.state.Mode != flow.ModeRecap {
		return nil, errors.NewValidationError("mode", "flow must be reviewed on the recap screen before completing")
	}

	report := s.buildRecap(fc)
	if !report.Complete {
		var fieldErrors []errors.FieldError
		for _, sec := range report.Sections {
			for _, item := range sec.Incomplete {
				fieldErrors = append(fieldErrors, errors.FieldError{Alias: item.Alias, Message: item.Message})
			}
		}
		return nil, errors.NewStepValidationError(fieldErrors)
	}

	now := time.Now()
	fc.rec.CompletedAt = &now
	fc.state = flow.State{Mode: flow.ModeComplete}

	result, err := s.save(ctx, fc)
	if err != nil {
		return nil, err
	}

	if !editing {
		if err := s.progress.AdvanceStage(ctx, user.ID, fc.flow.Stage); err != nil {
			log.Printf("⚠️ Flow '%s' completed for %s but stage advance failed: %v", flowName, user.ID, err)
			result.StageWarning = "Your answers were saved, but stage progression could not be updated. An administrator has been notified."
		}
	}
	log.Printf("✅ User %s completed flow '%s'", user.ID, flowName)
	return result, nil
}

func (s *OnboardingService) save(ctx context.Context, fc *flowContext) (*FlowState, error) {
	pos := flow.PositionFor(fc.state, fc.flow.Sections)
	fc.rec.Position = &pos
	if err := s.answers.SaveRecord(ctx, fc.rec); err != nil {
		return nil, fmt.Errorf("failed to save answers: %w", err)
	}
	return s.buildState(fc), nil
}

func (s *OnboardingService) buildState(fc *flowContext) *FlowState {
	state := &FlowState{
		FlowName:    fc.flow.Name,
		Mode:        string(fc.state.Mode),
		Answers:     fc.rec.Answers,
		CompletedAt: fc.rec.CompletedAt,
	}

	current := flow.CurrentSection(fc.state, fc.flow.Sections)
	for _, sec := range s.engine.VisibleSections(fc.flow.Sections, fc.rec.Answers) {
		state.Sections = append(state.Sections, SectionSummary{
			ID:      sec.ID,
			Name:    sec.Name,
			Color:   sec.Color,
			Current: current != nil && current.ID == sec.ID,
		})
	}

	if fc.state.Mode == flow.ModeInFlow {
		state.Section = current
		state.Step = flow.CurrentStep(fc.state, fc.flow.Sections)
		state.CanRetreat = !s.engine.AtFirst(fc.state, fc.flow.Sections, fc.rec.Answers)
	}
	return state
}

func (s *OnboardingService) buildRecap(fc *flowContext) *RecapReport {
	report := &RecapReport{FlowName: fc.flow.Name, Complete: true}
	for _, sec := range s.engine.VisibleSections(fc.flow.Sections, fc.rec.Answers) {
		recap := SectionRecap{SectionID: sec.ID, Name: sec.Name, Valid: true}
		for _, step := range s.engine.VisibleSteps(sec, fc.rec.Answers) {
			result := flow.ValidateStep(step, fc.rec.Answers)
			for _, fe := range result.Errors {
				recap.Valid = false
				recap.Incomplete = append(recap.Incomplete, IncompleteItem{
					Alias:     fe.Alias,
					Message:   fe.Message,
					SectionID: sec.ID,
					StepID:    step.ID,
				})
			}
		}
		if !recap.Valid {
			report.Complete = false
		}
		report.Sections = append(report.Sections, recap)
	}
	return report
}
