package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"reflect"
	"regexp"
	"sort"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/internal/infrastructure/persistence"
	"github.com/marketgate/backend/pkg/constants"
	"github.com/marketgate/backend/pkg/errors"
	"github.com/marketgate/backend/pkg/expression"
)

var flowNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// FlowService owns admin CRUD over flow definitions: creation from
// templates, batched section saves, reordering, and deletion. Saves are
// diff-driven and skip the database entirely when nothing changed.
type FlowService struct {
	flows     *persistence.FlowRepository
	engine    *expression.Engine
	templates map[string][]models.Section
}

// NewFlowService creates a new FlowService. templates maps template name
// to the section tree a new flow starts from.
func NewFlowService(flows *persistence.FlowRepository, engine *expression.Engine, templates map[string][]models.Section) *FlowService {
	return &FlowService{flows: flows, engine: engine, templates: templates}
}

// GetFlow returns a flow by name.
func (s *FlowService) GetFlow(ctx context.Context, name string) (*models.Flow, error) {
	flow, err := s.flows.GetFlow(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if flow == nil {
		return nil, errors.NewNotFoundError("flow", name)
	}
	return flow, nil
}

// ListFlows returns every flow definition.
func (s *FlowService) ListFlows(ctx context.Context) ([]*models.Flow, error) {
	return s.flows.ListFlows(ctx)
}

// CreateFlow creates a new flow from a named template.
func (s *FlowService) CreateFlow(ctx context.Context, name, role, stage, template string) (*models.Flow, error) {
	if !flowNamePattern.MatchString(name) {
		return nil, errors.NewValidationError("name", "flow name must be snake_case: lowercase letters, digits, underscores")
	}
	if !constants.IsValidRole(role) || constants.IsAdminRole(role) {
		return nil, errors.NewValidationError("role", fmt.Sprintf("'%s' is not a flow role", role))
	}
	if !constants.IsValidStage(stage) {
		return nil, errors.NewValidationError("stage", fmt.Sprintf("unknown stage '%s'", stage))
	}

	sections, ok := s.templates[template]
	if !ok {
		return nil, errors.NewValidationError("template", fmt.Sprintf("unknown template '%s'", template))
	}

	existing, err := s.flows.GetFlow(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError("flow", "name", name)
	}

	flow := &models.Flow{
		Name:     name,
		Role:     role,
		Stage:    stage,
		Sections: cloneSections(sections),
	}
	if err := s.flows.InsertFlow(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}
	log.Printf("✅ Created flow '%s' (role=%s stage=%s template=%s)", name, role, stage, template)
	return flow, nil
}

// DeleteFlow removes a flow definition. User answers against it are kept;
// they become orphaned history.
func (s *FlowService) DeleteFlow(ctx context.Context, name string) error {
	if _, err := s.GetFlow(ctx, name); err != nil {
		return err
	}
	return s.flows.DeleteFlow(ctx, name)
}

// SaveSections applies a batch of section patches to a flow in one write.
// Each patch either deletes a section (_delete), updates the fields it
// carries, or inserts a new section when the id is unknown. Returns false
// without touching the database when the batch is empty or produces a tree
// identical to the stored one.
func (s *FlowService) SaveSections(ctx context.Context, name string, patches []models.SectionPatch) (bool, error) {
	if len(patches) == 0 {
		return false, nil
	}

	flow, err := s.GetFlow(ctx, name)
	if err != nil {
		return false, err
	}

	sections := cloneSections(flow.Sections)
	for _, patch := range patches {
		if patch.ID <= 0 {
			return false, errors.NewValidationError("id", "section id must be a positive integer")
		}
		if patch.Delete {
			sections = removeSection(sections, patch.ID)
			continue
		}

		idx := sectionIndex(sections, patch.ID)
		if idx < 0 {
			// New section. The editor assigns max+1 client-side but the
			// batch is authoritative on content, so require a name.
			if patch.Name == nil {
				return false, errors.NewValidationError("name", fmt.Sprintf("new section %d needs a name", patch.ID))
			}
			sec := models.Section{ID: patch.ID, Name: *patch.Name, Steps: []models.Step{}}
			applyPatch(&sec, patch)
			sections = append(sections, sec)
			continue
		}
		applyPatch(&sections[idx], patch)
	}

	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Order < sections[j].Order })

	if err := s.validateSchema(sections); err != nil {
		return false, err
	}
	if reflect.DeepEqual(sections, flow.Sections) {
		return false, nil
	}

	if err := s.flows.UpdateSections(ctx, name, sections); err != nil {
		if err == sql.ErrNoRows {
			return false, errors.NewNotFoundError("flow", name)
		}
		return false, fmt.Errorf("failed to save sections: %w", err)
	}
	return true, nil
}

// ReorderSections rewrites section order to match orderedIDs. The id set
// must match the flow exactly. Returns false when the sequence is already
// in effect, skipping the write.
func (s *FlowService) ReorderSections(ctx context.Context, name string, orderedIDs []int) (bool, error) {
	flow, err := s.GetFlow(ctx, name)
	if err != nil {
		return false, err
	}

	if len(orderedIDs) != len(flow.Sections) {
		return false, errors.NewValidationError("order", "ordered id list must cover every section exactly once")
	}
	byID := make(map[int]*models.Section, len(flow.Sections))
	for i := range flow.Sections {
		byID[flow.Sections[i].ID] = &flow.Sections[i]
	}

	unchanged := true
	sections := make([]models.Section, 0, len(orderedIDs))
	for pos, id := range orderedIDs {
		sec, ok := byID[id]
		if !ok {
			return false, errors.NewValidationError("order", fmt.Sprintf("unknown section id %d", id))
		}
		delete(byID, id)
		if flow.Sections[pos].ID != id || sec.Order != pos {
			unchanged = false
		}
		copied := *sec
		copied.Order = pos
		sections = append(sections, copied)
	}
	if unchanged {
		return false, nil
	}

	if err := s.flows.UpdateSections(ctx, name, sections); err != nil {
		if err == sql.ErrNoRows {
			return false, errors.NewNotFoundError("flow", name)
		}
		return false, fmt.Errorf("failed to reorder sections: %w", err)
	}
	return true, nil
}

// validateSchema checks the structural invariants the editor must not
// break: unique section and step ids, unique question aliases flow-wide,
// known question types, display rule aliases that reference defined
// questions, and compilable display rule expressions.
func (s *FlowService) validateSchema(sections []models.Section) error {
	sectionIDs := make(map[int]bool)
	aliases := make(map[string]bool)

	for _, sec := range sections {
		if sectionIDs[sec.ID] {
			return errors.NewValidationError("id", fmt.Sprintf("duplicate section id %d", sec.ID))
		}
		sectionIDs[sec.ID] = true

		stepIDs := make(map[int]bool)
		for _, step := range sec.Steps {
			if stepIDs[step.ID] {
				return errors.NewValidationError("id", fmt.Sprintf("duplicate step id %d in section %d", step.ID, sec.ID))
			}
			stepIDs[step.ID] = true

			for _, q := range step.Questions {
				if !constants.IsValidQuestionType(q.Type) {
					return errors.NewValidationError("type", fmt.Sprintf("unknown question type '%s'", q.Type))
				}
				if aliases[q.Alias] {
					return errors.NewValidationError("alias", fmt.Sprintf("duplicate question alias '%s'", q.Alias))
				}
				aliases[q.Alias] = true
			}
		}
	}

	// Rules may reference aliases defined anywhere in the flow, so they are
	// checked after the full alias set is known.
	for _, sec := range sections {
		if err := s.validateRule(sec.DisplayRule, aliases); err != nil {
			return err
		}
		for _, step := range sec.Steps {
			if err := s.validateRule(step.DisplayRule, aliases); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *FlowService) validateRule(rule *models.DisplayRule, aliases map[string]bool) error {
	if rule == nil {
		return nil
	}
	if rule.Alias != "" && !aliases[rule.Alias] {
		return errors.NewValidationError("display_rule", fmt.Sprintf("rule references unknown alias '%s'", rule.Alias))
	}
	if rule.Expression == "" {
		return nil
	}
	if err := s.engine.Validate(rule.Expression); err != nil {
		return errors.NewValidationError("display_rule", fmt.Sprintf("invalid expression: %v", err))
	}
	return nil
}

func applyPatch(sec *models.Section, patch models.SectionPatch) {
	if patch.Name != nil {
		sec.Name = *patch.Name
	}
	if patch.Color != nil {
		sec.Color = *patch.Color
	}
	if patch.Order != nil {
		sec.Order = *patch.Order
	}
	if patch.DisplayRule != nil {
		sec.DisplayRule = patch.DisplayRule
	}
	if patch.Steps != nil {
		sec.Steps = patch.Steps
	}
}

func sectionIndex(sections []models.Section, id int) int {
	for i := range sections {
		if sections[i].ID == id {
			return i
		}
	}
	return -1
}

func removeSection(sections []models.Section, id int) []models.Section {
	out := sections[:0]
	for _, sec := range sections {
		if sec.ID != id {
			out = append(out, sec)
		}
	}
	return out
}

func cloneSections(sections []models.Section) []models.Section {
	out := make([]models.Section, len(sections))
	copy(out, sections)
	return out
}
