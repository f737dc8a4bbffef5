package insight

import (
	"context"

	"github.com/entrhq/retrace/pkg/oracle"
	"github.com/entrhq/retrace/pkg/types"
)

// relinkSessions tests each newly segmented session against every open
// abandoned insight. Cheap structural heuristics run first; only when one
// fires is the oracle asked to confirm relatedness, which keeps the call
// volume proportional to plausible matches rather than all pairs.
//
// Caller holds m.mu.
func (m *Manager) relinkSessions(ctx context.Context, insights []types.ProactiveInsight, sessions []types.BrowsingSession) []types.ProactiveInsight {
	if len(sessions) == 0 {
		return insights
	}

	for i := range insights {
		ins := &insights[i]
		if !m.relinkEligible(ins) {
			continue
		}
		ap := abandonmentOf(ins)
		if ap == nil {
			continue
		}
		for j := range sessions {
			s := &sessions[j]
			if hasLinkedSession(ins, s.SessionID) {
				continue
			}
			if !relatedHeuristically(ap, s) {
				continue
			}
			decision, err := m.oracle.ConfirmRelatedness(ctx, ap.Intent, s)
			if err != nil {
				if m.log != nil {
					m.log.Warnf("relatedness check failed for insight %s, session %s: %v", ins.ID, s.SessionID, err)
				}
				continue // fallback is unrelated
			}
			if !decision.Related || decision.Confidence <= m.cfg.Mining.RelatednessCutoff {
				continue
			}
			m.linkSession(ctx, ins, s)
		}
	}
	return insights
}

// relinkEligible: in-progress insights re-link unconditionally; pending ones
// only while the pattern is fresh, inside the configured window of its last
// occurrence.
func (m *Manager) relinkEligible(ins *types.ProactiveInsight) bool {
	if ins.Type != types.InsightAbandoned || ins.Status == types.StatusCompleted {
		return false
	}
	if ins.Status == types.StatusInProgress {
		return true
	}
	if len(ins.Patterns) == 0 {
		return false
	}
	age := m.clock.Now().Sub(ins.Patterns[0].LastOccurrence())
	return age >= 0 && age <= m.cfg.Mining.RelinkWindow
}

func abandonmentOf(ins *types.ProactiveInsight) *types.AbandonmentPattern {
	for i := range ins.Patterns {
		if ins.Patterns[i].Type == types.PatternAbandonment {
			return ins.Patterns[i].Abandonment
		}
	}
	return nil
}

func hasLinkedSession(ins *types.ProactiveInsight, sessionID string) bool {
	for _, id := range ins.LinkedSessionIDs {
		if id == sessionID {
			return true
		}
	}
	return false
}

// relatedHeuristically is the cheap pre-filter: shared primary category, any
// shared URL hostname, or any shared brand.
func relatedHeuristically(ap *types.AbandonmentPattern, s *types.BrowsingSession) bool {
	if ap.Category != "" && ap.Category == s.PrimaryCategory {
		return true
	}
	if anyOverlap(ap.Hosts, s.Hosts()) {
		return true
	}
	return anyOverlap(ap.Brands, s.Brands())
}

func anyOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

// linkSession records a confirmed continuation: the session is linked, the
// insight advances to in_progress, and the completion analyzer decides
// whether the continuation actually finished the task.
func (m *Manager) linkSession(ctx context.Context, ins *types.ProactiveInsight, s *types.BrowsingSession) {
	ins.LinkedSessionIDs = append(ins.LinkedSessionIDs, s.SessionID)
	m.sessionURLs[s.SessionID] = s.DistinctURLs()
	m.markInProgressLocked(ins)

	analysis, err := m.oracle.AnalyzeCompletion(ctx, s)
	if err != nil {
		if m.log != nil {
			m.log.Warnf("completion analysis failed for relinked session %s: %v", s.SessionID, err)
		}
		analysis = oracle.FallbackCompletion()
	}
	if analysis.CompletionScore >= m.cfg.Mining.AbandonedCutoff {
		m.completeLocked(ins)
		return
	}
	progress := analysis.CompletionScore
	ins.CompletionProgress = &progress
}
