package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/entrhq/retrace/pkg/types"
)

// Fake is an in-memory Oracle for tests. Each judgment can be overridden per
// test through its Fn field; unset judgments return benign defaults. Call
// counts are recorded per method so tests can assert on oracle traffic (or
// its absence).
type Fake struct {
	mu    sync.Mutex
	calls map[string]int

	BoundaryFn    func(prev, curr *types.ContentAnalysis) (*BoundaryDecision, error)
	ThemeFn       func(steps []string) (string, error)
	TopicFn       func(category string, pages []string) (*TopicSummary, error)
	CompletionFn  func(s *types.BrowsingSession) (*CompletionAnalysis, error)
	RelatednessFn func(intent string, s *types.BrowsingSession) (*RelatednessDecision, error)
}

// NewFake creates a fake oracle with default judgments.
func NewFake() *Fake {
	return &Fake{calls: make(map[string]int)}
}

func (f *Fake) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

// Calls returns how many times the named method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the invocation count across all methods.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *Fake) SessionBoundary(_ context.Context, prev, curr *types.ContentAnalysis) (*BoundaryDecision, error) {
	f.record("SessionBoundary")
	if f.BoundaryFn != nil {
		return f.BoundaryFn(prev, curr)
	}
	return &BoundaryDecision{Decision: "SAME", Reason: "default", Confidence: 0.9}, nil
}

func (f *Fake) NameWorkflowTheme(_ context.Context, steps []string) (string, error) {
	f.record("NameWorkflowTheme")
	if f.ThemeFn != nil {
		return f.ThemeFn(steps)
	}
	return "Repeated browsing workflow", nil
}

func (f *Fake) SummarizeTopic(_ context.Context, category string, pages []string) (*TopicSummary, error) {
	f.record("SummarizeTopic")
	if f.TopicFn != nil {
		return f.TopicFn(category, pages)
	}
	return &TopicSummary{Summary: fmt.Sprintf("Researching %s", category)}, nil
}

func (f *Fake) AnalyzeCompletion(_ context.Context, s *types.BrowsingSession) (*CompletionAnalysis, error) {
	f.record("AnalyzeCompletion")
	if f.CompletionFn != nil {
		return f.CompletionFn(s)
	}
	return &CompletionAnalysis{
		Intent:          "Finished browsing task without issues",
		Progress:        "Task finished",
		Reason:          "session ended on a confirmation page",
		CompletionScore: 0.9,
		Suggestions:     []string{"nothing left to do"},
	}, nil
}

func (f *Fake) ConfirmRelatedness(_ context.Context, intent string, s *types.BrowsingSession) (*RelatednessDecision, error) {
	f.record("ConfirmRelatedness")
	if f.RelatednessFn != nil {
		return f.RelatednessFn(intent, s)
	}
	return &RelatednessDecision{Related: false, Confidence: 0.1}, nil
}
