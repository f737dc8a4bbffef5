package workflow

import (
	"testing"
	"time"

	"github.com/entrhq/retrace/pkg/browser"
	"github.com/entrhq/retrace/pkg/store"
	"github.com/entrhq/retrace/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wfTime = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func workflowInsight(id string, urls []string) *types.ProactiveInsight {
	steps := make([]types.SequenceStep, len(urls))
	for i, u := range urls {
		steps[i] = types.SequenceStep{URL: u, Title: "step", Category: "dev", Subcategory: "docs"}
	}
	return &types.ProactiveInsight{
		ID:           id,
		UserID:       "u1",
		Type:         types.InsightWorkflow,
		ActionType:   types.ActionOpenURLs,
		ActionParams: types.ActionParams{URLs: urls},
		Patterns: []types.Pattern{{
			ID:         "seq_x",
			Type:       types.PatternSequential,
			Sequential: &types.SequentialPattern{Steps: steps},
		}},
	}
}

func newTestManager(t *testing.T) (*Manager, *browser.Fake) {
	t.Helper()
	fake := browser.NewFake()
	s := store.NewWorkflowStore(t.TempDir(), "u1")
	m := NewManager("u1", s,
		WithBrowser(fake),
		WithNowFunc(func() time.Time { return wfTime }),
	)
	return m, fake
}

func TestPromoteCreatesWorkflow(t *testing.T) {
	m, _ := newTestManager(t)
	ins := workflowInsight("i1", []string{"https://a.example/1", "https://a.example/2"})

	wf, err := m.Promote(ins, "Morning routine", "docs then questions")
	require.NoError(t, err)
	assert.NotEmpty(t, wf.ID)
	assert.Equal(t, "Morning routine", wf.Name)
	assert.Equal(t, "i1", wf.CreatedFrom)
	assert.Equal(t, wfTime, wf.CreatedAt)
	require.Len(t, wf.Steps, 2)
	assert.Equal(t, "https://a.example/1", wf.Steps[0].URL)
	assert.Equal(t, "docs", wf.Steps[0].Subcategory, "step metadata paired positionally")

	saved, err := m.List()
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestPromoteRejectsNonWorkflowInsight(t *testing.T) {
	m, _ := newTestManager(t)
	ins := workflowInsight("i1", []string{"https://a.example/1"})
	ins.Type = types.InsightResearch

	_, err := m.Promote(ins, "nope", "")
	assert.ErrorIs(t, err, ErrNotPromotable)
}

func TestPromoteRejectsDuplicateURLSequence(t *testing.T) {
	m, _ := newTestManager(t)
	urls := []string{"https://a.example/1", "https://a.example/2"}

	_, err := m.Promote(workflowInsight("i1", urls), "First name", "")
	require.NoError(t, err)

	// Same ordered URL sequence under a different name and source insight.
	_, err = m.Promote(workflowInsight("i2", urls), "Second name", "")
	assert.ErrorIs(t, err, ErrDuplicate)

	saved, err := m.List()
	require.NoError(t, err)
	assert.Len(t, saved, 1, "rejected promotion must not persist")
}

func TestPromoteAllowsDifferentOrder(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Promote(workflowInsight("i1", []string{"https://a.example/1", "https://a.example/2"}), "Forward", "")
	require.NoError(t, err)
	_, err = m.Promote(workflowInsight("i2", []string{"https://a.example/2", "https://a.example/1"}), "Reverse", "")
	assert.NoError(t, err, "order matters for identity")
}

func TestExecuteOpensTabsInOrderAndBumpsUsage(t *testing.T) {
	m, fake := newTestManager(t)
	urls := []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"}
	wf, err := m.Promote(workflowInsight("i1", urls), "Routine", "")
	require.NoError(t, err)

	res := m.Execute(wf.ID)
	require.True(t, res.Success, res.Error)

	assert.Equal(t, urls, fake.OpenedURLs())
	assert.Equal(t, "https://a.example/3", fake.ActiveURL(), "last tab is activated")

	saved, err := m.List()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 1, saved[0].UseCount)
	assert.Equal(t, wfTime, saved[0].LastUsed.UTC())
}

func TestExecuteUnknownWorkflow(t *testing.T) {
	m, _ := newTestManager(t)
	res := m.Execute("missing")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not found")
}

func TestExecuteReportsTabFailure(t *testing.T) {
	m, fake := newTestManager(t)
	wf, err := m.Promote(workflowInsight("i1", []string{"https://a.example/1"}), "Routine", "")
	require.NoError(t, err)

	fake.FailOpen = true
	res := m.Execute(wf.ID)
	assert.False(t, res.Success)

	saved, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, 0, saved[0].UseCount, "failed execution must not bump usage")
}

func TestRenameAndDelete(t *testing.T) {
	m, _ := newTestManager(t)
	wf, err := m.Promote(workflowInsight("i1", []string{"https://a.example/1"}), "Old name", "")
	require.NoError(t, err)

	require.NoError(t, m.Rename(wf.ID, "New name"))
	saved, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, "New name", saved[0].Name)

	require.NoError(t, m.Delete(wf.ID))
	saved, err = m.List()
	require.NoError(t, err)
	assert.Empty(t, saved)

	assert.ErrorIs(t, m.Delete(wf.ID), ErrNotFound)
	assert.ErrorIs(t, m.Rename(wf.ID, "x"), ErrNotFound)
}
