package insight

import (
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/retrace/pkg/types"
)

// suspiciousIntentTerms mark completion-analyzer boilerplate that slipped
// past the detector's meaningfulness filter. An abandoned insight built on
// such an intent would read as nonsense, so it is suppressed here.
var suspiciousIntentTerms = []string{
	"unknown",
	"did not navigate",
	"likely",
}

// Generate maps each ranked pattern to at most one pending insight. The
// insight id is derived from the pattern id, so re-detection of the same
// behavior regenerates the same insight rather than a duplicate.
func Generate(userID string, patterns []types.Pattern, now time.Time) []types.ProactiveInsight {
	insights := make([]types.ProactiveInsight, 0, len(patterns))
	for i := range patterns {
		p := &patterns[i]
		ins := generateOne(p)
		if ins == nil {
			continue
		}
		ins.ID = "insight_" + p.ID
		ins.UserID = userID
		ins.Patterns = []types.Pattern{*p}
		ins.RelevanceScore = p.Score
		ins.CreatedAt = now
		ins.Status = types.StatusPending
		insights = append(insights, *ins)
	}
	return insights
}

func generateOne(p *types.Pattern) *types.ProactiveInsight {
	switch p.Type {
	case types.PatternSequential:
		return sequentialInsight(p.Sequential)
	case types.PatternTopic:
		return topicInsight(p.Topic)
	case types.PatternAbandonment:
		return abandonmentInsight(p.Abandonment)
	case types.PatternTemporal:
		return temporalInsight(p.Temporal)
	}
	return nil
}

func sequentialInsight(sp *types.SequentialPattern) *types.ProactiveInsight {
	if sp == nil || len(sp.Steps) == 0 {
		return nil
	}
	urls := make([]string, 0, len(sp.Steps))
	for _, step := range sp.Steps {
		if step.URL != "" {
			urls = append(urls, step.URL)
		}
	}
	if len(urls) == 0 {
		return nil
	}
	return &types.ProactiveInsight{
		Type:        types.InsightWorkflow,
		Title:       fmt.Sprintf("%s (done %d times)", sp.SemanticTheme, sp.Frequency),
		Description: fmt.Sprintf("You repeat this %d-step workflow regularly. Open all %d pages with one click.", len(sp.Steps), len(urls)),
		ActionType:  types.ActionOpenURLs,
		ActionParams: types.ActionParams{
			URLs: urls,
		},
	}
}

func topicInsight(tp *types.TopicPattern) *types.ProactiveInsight {
	if tp == nil {
		return nil
	}
	return &types.ProactiveInsight{
		Type:             types.InsightResearch,
		Title:            fmt.Sprintf("Continue researching %s", tp.MainCategory),
		Description:      tp.SemanticSummary,
		ActionType:       types.ActionResumeResearch,
		LinkedSessionIDs: append([]string(nil), tp.SessionIDs...),
	}
}

func abandonmentInsight(ap *types.AbandonmentPattern) *types.ProactiveInsight {
	if ap == nil {
		return nil
	}
	lastURL := ap.LastActivityURL
	if lastURL == "" {
		lastURL = ap.LastAnalysisURL
	}
	if lastURL == "" {
		return nil // nothing to resume into
	}
	intent := strings.ToLower(ap.Intent)
	for _, term := range suspiciousIntentTerms {
		if strings.Contains(intent, term) {
			return nil
		}
	}
	return &types.ProactiveInsight{
		Type:        types.InsightAbandoned,
		Title:       fmt.Sprintf("Pick up where you left off: %s", ap.Intent),
		Description: fmt.Sprintf("%s %s", ap.ProgressMade, ap.WhyAbandoned),
		ActionType:  types.ActionResumeResearch,
		ActionParams: types.ActionParams{
			LastURL: lastURL,
		},
		LinkedSessionIDs: []string{ap.SessionID},
	}
}

func temporalInsight(tp *types.TemporalPattern) *types.ProactiveInsight {
	if tp == nil {
		return nil
	}
	day := time.Weekday(tp.DayOfWeek).String()
	return &types.ProactiveInsight{
		Type:        types.InsightHabit,
		Title:       fmt.Sprintf("You usually visit %s on %ss around %d:00", tp.Domain, day, tp.Hour),
		Description: fmt.Sprintf("Seen %d times. Want a reminder?", tp.Frequency),
		ActionType:  types.ActionRemind,
		ActionParams: types.ActionParams{
			Domain:    tp.Domain,
			DayOfWeek: tp.DayOfWeek,
			Hour:      tp.Hour,
		},
	}
}
