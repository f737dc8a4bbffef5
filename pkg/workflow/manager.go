// Package workflow manages saved, replayable workflows: promotion of a
// detected sequential-workflow insight into a named automation, execution
// through the tab controller, and keyed mutations on the persisted list.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/retrace/pkg/browser"
	"github.com/entrhq/retrace/pkg/store"
	"github.com/entrhq/retrace/pkg/types"
	"github.com/google/uuid"
)

// Sentinel errors for workflow operations.
var (
	ErrNotFound      = errors.New("workflow not found")
	ErrDuplicate     = errors.New("identical workflow already saved")
	ErrNotPromotable = errors.New("insight is not a promotable workflow")
	ErrNoBrowser     = errors.New("no browser controller configured")
)

// Manager owns one user's saved workflows. The host serializes calls into a
// single instance per user, matching the insight manager's model.
type Manager struct {
	userID  string
	store   *store.WorkflowStore
	browser browser.Controller
	now     func() time.Time
}

// Option customizes manager construction.
type Option func(*Manager)

// WithBrowser wires the tab controller used by Execute.
func WithBrowser(b browser.Controller) Option {
	return func(m *Manager) { m.browser = b }
}

// WithNowFunc replaces the wall clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a workflow manager over the user's workflow store.
func NewManager(userID string, s *store.WorkflowStore, opts ...Option) *Manager {
	m := &Manager{
		userID: userID,
		store:  s,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Promote turns a workflow insight into a saved workflow. The insight must
// be a sequential-workflow insight with an open_urls action; steps pair the
// action's URL list positionally with the pattern's step metadata. Promotion
// is rejected when a saved workflow already has the identical ordered URL
// sequence, regardless of its name.
func (m *Manager) Promote(ins *types.ProactiveInsight, name, description string) (*types.SavedWorkflow, error) {
	if ins.Type != types.InsightWorkflow || ins.ActionType != types.ActionOpenURLs {
		return nil, fmt.Errorf("insight %s: %w", ins.ID, ErrNotPromotable)
	}
	urls := ins.ActionParams.URLs
	if len(urls) == 0 {
		return nil, fmt.Errorf("insight %s has no step URLs: %w", ins.ID, ErrNotPromotable)
	}

	existing, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if sameSequence(existing[i].URLSequence(), urls) {
			return nil, fmt.Errorf("workflow %q: %w", existing[i].Name, ErrDuplicate)
		}
	}

	wf := types.SavedWorkflow{
		ID:          uuid.New().String(),
		UserID:      m.userID,
		Name:        name,
		Description: description,
		CreatedAt:   m.now(),
		CreatedFrom: ins.ID,
		Steps:       buildSteps(ins, urls),
	}
	if err := m.store.Save(append(existing, wf)); err != nil {
		return nil, err
	}
	return &wf, nil
}

// buildSteps pairs the action URLs with pattern step metadata by position.
// The pattern may carry fewer steps than URLs (empty-URL steps were dropped
// at generation time); unmatched positions keep only the URL.
func buildSteps(ins *types.ProactiveInsight, urls []string) []types.WorkflowStep {
	var meta []types.SequenceStep
	for i := range ins.Patterns {
		if ins.Patterns[i].Type == types.PatternSequential && ins.Patterns[i].Sequential != nil {
			meta = ins.Patterns[i].Sequential.Steps
			break
		}
	}

	steps := make([]types.WorkflowStep, len(urls))
	for i, u := range urls {
		steps[i] = types.WorkflowStep{URL: u}
		if i < len(meta) {
			steps[i].Title = meta[i].Title
			steps[i].Category = meta[i].Category
			steps[i].Subcategory = meta[i].Subcategory
		}
	}
	return steps
}

func sameSequence(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Execute replays the workflow: opens each step URL as a tab in order,
// activates the last one, and bumps the usage stats.
func (m *Manager) Execute(workflowID string) types.ActionResult {
	if m.browser == nil {
		return failure(ErrNoBrowser)
	}

	workflows, err := m.store.Load()
	if err != nil {
		return failure(err)
	}
	wf := findWorkflow(workflows, workflowID)
	if wf == nil {
		return failure(fmt.Errorf("%s: %w", workflowID, ErrNotFound))
	}

	var last browser.TabHandle
	for _, step := range wf.Steps {
		handle, err := m.browser.CreateTab(step.URL)
		if err != nil {
			return failure(fmt.Errorf("open %s: %w", step.URL, err))
		}
		last = handle
	}
	if last != "" {
		if err := m.browser.SwitchActiveTab(last); err != nil {
			return failure(err)
		}
	}

	wf.LastUsed = m.now()
	wf.UseCount++
	if err := m.store.Save(workflows); err != nil {
		return failure(err)
	}
	return success(fmt.Sprintf("opened %d tabs for %q", len(wf.Steps), wf.Name))
}

// Rename updates the workflow's name.
func (m *Manager) Rename(workflowID, name string) error {
	workflows, err := m.store.Load()
	if err != nil {
		return err
	}
	wf := findWorkflow(workflows, workflowID)
	if wf == nil {
		return fmt.Errorf("%s: %w", workflowID, ErrNotFound)
	}
	wf.Name = name
	return m.store.Save(workflows)
}

// Delete removes the workflow from the persisted list.
func (m *Manager) Delete(workflowID string) error {
	workflows, err := m.store.Load()
	if err != nil {
		return err
	}
	kept := workflows[:0]
	found := false
	for i := range workflows {
		if workflows[i].ID == workflowID {
			found = true
			continue
		}
		kept = append(kept, workflows[i])
	}
	if !found {
		return fmt.Errorf("%s: %w", workflowID, ErrNotFound)
	}
	return m.store.Save(kept)
}

// List returns the user's saved workflows.
func (m *Manager) List() ([]types.SavedWorkflow, error) {
	return m.store.Load()
}

func findWorkflow(workflows []types.SavedWorkflow, id string) *types.SavedWorkflow {
	for i := range workflows {
		if workflows[i].ID == id {
			return &workflows[i]
		}
	}
	return nil
}

func success(msg string) types.ActionResult {
	return types.ActionResult{Success: true, Message: msg}
}

func failure(err error) types.ActionResult {
	return types.ActionResult{Success: false, Error: err.Error()}
}
