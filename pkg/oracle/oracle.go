// Package oracle is the engine's client for the external semantic oracle:
// the text-understanding service consulted for session boundary decisions,
// workflow theme naming, topic summarization, completion analysis, and
// relatedness confirmation.
//
// Every call site in the mining pipeline treats oracle errors as soft: a
// failing or malformed response degrades to a documented fallback value at
// the call site, and the pipeline always completes a run even under total
// oracle failure.
package oracle

import (
	"context"

	"github.com/entrhq/retrace/pkg/types"
)

// BoundaryDecision is the oracle's verdict on whether two consecutive
// analyzed pages belong to the same browsing session.
type BoundaryDecision struct {
	Decision   string  `json:"decision"` // "NEW" or "SAME"
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// IsNew reports whether the decision closes the current session.
func (d *BoundaryDecision) IsNew() bool {
	return d.Decision == "NEW"
}

// TopicSummary is a one-sentence research-goal summary with up to three
// supporting observations.
type TopicSummary struct {
	Summary  string   `json:"summary"`
	Insights []string `json:"insights"`
}

// CompletionAnalysis is the oracle's judgment of how finished a browsing
// session's task was.
type CompletionAnalysis struct {
	Intent          string   `json:"intent"`
	Progress        string   `json:"progress"`
	Reason          string   `json:"reason"`
	CompletionScore float64  `json:"completionScore"`
	Suggestions     []string `json:"suggestions"`
}

// RelatednessDecision confirms or denies that a new session continues the
// task behind an open insight.
type RelatednessDecision struct {
	Related    bool    `json:"related"`
	Confidence float64 `json:"confidence"`
}

// Oracle is the set of semantic judgments the mining pipeline delegates to
// the external service. Implementations must be safe for concurrent use: the
// detectors fan their per-candidate calls out in parallel.
type Oracle interface {
	// SessionBoundary decides whether curr starts a new session relative to
	// prev. Callers fall back to a same-category heuristic on error.
	SessionBoundary(ctx context.Context, prev, curr *types.ContentAnalysis) (*BoundaryDecision, error)

	// NameWorkflowTheme names a recurring workflow in 3-5 words from its step
	// descriptions. Callers fall back to "<category> workflow" on error.
	NameWorkflowTheme(ctx context.Context, steps []string) (string, error)

	// SummarizeTopic produces a research-goal summary for a recurring
	// category. Callers fall back to "Researching <category>" on error.
	SummarizeTopic(ctx context.Context, category string, pages []string) (*TopicSummary, error)

	// AnalyzeCompletion judges how finished the session's task was. Callers
	// fall back to a 0.5 score with "Unknown" fields on error.
	AnalyzeCompletion(ctx context.Context, session *types.BrowsingSession) (*CompletionAnalysis, error)

	// ConfirmRelatedness checks whether a new session continues the task
	// described by intent. Callers fall back to unrelated on error.
	ConfirmRelatedness(ctx context.Context, intent string, session *types.BrowsingSession) (*RelatednessDecision, error)
}

// FallbackCompletion is the documented degraded result used when completion
// analysis fails: neutral score, no actionable content.
func FallbackCompletion() *CompletionAnalysis {
	return &CompletionAnalysis{
		Intent:          "Unknown",
		Progress:        "Unknown",
		Reason:          "analysis failed",
		CompletionScore: 0.5,
	}
}
