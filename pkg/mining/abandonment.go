package mining

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/retrace/pkg/logging"
	"github.com/entrhq/retrace/pkg/oracle"
	"github.com/entrhq/retrace/pkg/types"
)

const (
	// minAbandonmentDuration: sessions shorter than this are too brief to
	// represent an abandoned task worth resurfacing.
	minAbandonmentDuration = 30 * time.Second

	// minIntentLength guards against one-word non-answers from the analyzer.
	minIntentLength = 10
)

// genericPhrases are the analyzer's known degraded-output markers. A
// completion analysis containing any of these in its intent or progress is
// boilerplate, not a real judgment, and must not surface as a user-facing
// insight.
var genericPhrases = []string{
	"unknown",
	"analysis failed",
	"unclear",
	"not available",
	"n/a",
	"unable to determine",
}

// DetectAbandonment finds sessions the completion analyzer judges
// unfinished. Candidates are capped to the most recent maxCandidates
// sessions, which also bounds the concurrent analyzer calls.
func DetectAbandonment(ctx context.Context, o oracle.Oracle, log *logging.Logger, sessions []types.BrowsingSession, maxCandidates int, abandonedCutoff float64) []types.Pattern {
	candidates := abandonmentCandidates(sessions, maxCandidates)
	if len(candidates) == 0 {
		return nil
	}

	results := make([]*types.AbandonmentPattern, len(candidates))
	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = analyzeCandidate(ctx, o, log, candidates[i], abandonedCutoff)
		}(i)
	}
	wg.Wait()

	var patterns []types.Pattern
	for _, ap := range results {
		if ap == nil {
			continue
		}
		patterns = append(patterns, types.Pattern{
			ID:          "abandon_" + ap.SessionID,
			Type:        types.PatternAbandonment,
			Abandonment: ap,
		})
	}
	return patterns
}

func abandonmentCandidates(sessions []types.BrowsingSession, maxCandidates int) []*types.BrowsingSession {
	var candidates []*types.BrowsingSession
	for i := range sessions {
		s := &sessions[i]
		if len(s.Activities) < 2 || s.AnalyzedCount() == 0 || s.Duration < minAbandonmentDuration {
			continue
		}
		candidates = append(candidates, s)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EndTime.After(candidates[j].EndTime)
	})
	if maxCandidates > 0 && len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates
}

func analyzeCandidate(ctx context.Context, o oracle.Oracle, log *logging.Logger, s *types.BrowsingSession, abandonedCutoff float64) *types.AbandonmentPattern {
	analysis, err := o.AnalyzeCompletion(ctx, s)
	if err != nil {
		if log != nil {
			log.Warnf("completion analyzer failed for session %s: %v", s.SessionID, err)
		}
		analysis = oracle.FallbackCompletion()
	}

	if analysis.CompletionScore >= abandonedCutoff {
		return nil // finished enough
	}
	if !isMeaningful(analysis) {
		return nil
	}

	ap := &types.AbandonmentPattern{
		SessionID:       s.SessionID,
		SessionStart:    s.StartTime,
		SessionEnd:      s.EndTime,
		SessionDuration: s.Duration,
		Category:        s.PrimaryCategory,
		Hosts:           s.Hosts(),
		Brands:          s.Brands(),
		Intent:          analysis.Intent,
		ProgressMade:    analysis.Progress,
		WhyAbandoned:    analysis.Reason,
		CompletionScore: analysis.CompletionScore,
		Suggestions:     analysis.Suggestions,
	}

	last := &s.Activities[len(s.Activities)-1]
	ap.LastActivityURL = last.Activity.URL()
	if last.Analysis != nil {
		ap.LastAnalysisURL = last.Analysis.URL
	}
	return ap
}

// isMeaningful filters degraded analyzer output: the analyzer sometimes
// fails gracefully into boilerplate that passes the score check but carries
// nothing a user could act on.
func isMeaningful(a *oracle.CompletionAnalysis) bool {
	if len(a.Suggestions) == 0 {
		return false
	}
	if len(strings.TrimSpace(a.Intent)) <= minIntentLength {
		return false
	}
	intent := strings.ToLower(a.Intent)
	progress := strings.ToLower(a.Progress)
	for _, phrase := range genericPhrases {
		if strings.Contains(intent, phrase) || strings.Contains(progress, phrase) {
			return false
		}
	}
	return true
}
