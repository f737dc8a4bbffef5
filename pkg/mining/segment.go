package mining

import (
	"context"
	"sort"
	"time"

	"github.com/entrhq/retrace/pkg/logging"
	"github.com/entrhq/retrace/pkg/oracle"
	"github.com/entrhq/retrace/pkg/types"
)

// heuristicConfidence is the fixed confidence assigned to boundary decisions
// made by the same-category fallback when the oracle is unavailable.
const heuristicConfidence = 0.3

// Segmenter groups enriched activities into browsing sessions, either by a
// pre-existing stable session id or by consulting the semantic boundary
// oracle between consecutive analyzed pages.
type Segmenter struct {
	oracle oracle.Oracle
	log    *logging.Logger
}

// NewSegmenter creates a segmenter. The logger may be nil.
func NewSegmenter(o oracle.Oracle, log *logging.Logger) *Segmenter {
	return &Segmenter{oracle: o, log: log}
}

// Segment turns time-ordered enriched activities into an ordered list of
// sessions. If every activity already carries a session id the grouping is
// purely structural and no oracle calls are made.
func (s *Segmenter) Segment(ctx context.Context, userID string, activities []types.EnrichedActivity) []types.BrowsingSession {
	if len(activities) == 0 {
		return nil
	}
	if allHaveSessionIDs(activities) {
		return s.groupByID(userID, activities)
	}
	return s.segmentByBoundary(ctx, userID, activities)
}

func allHaveSessionIDs(activities []types.EnrichedActivity) bool {
	for i := range activities {
		if activities[i].Activity.SessionID == "" {
			return false
		}
	}
	return true
}

// groupByID emits one session per distinct pre-existing session id,
// preserving activity order within each.
func (s *Segmenter) groupByID(userID string, activities []types.EnrichedActivity) []types.BrowsingSession {
	groups := make(map[string][]types.EnrichedActivity)
	var order []string
	for i := range activities {
		id := activities[i].Activity.SessionID
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], activities[i])
	}

	sessions := make([]types.BrowsingSession, 0, len(order))
	for _, id := range order {
		sessions = append(sessions, buildSession(id, userID, groups[id]))
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
	return sessions
}

// segmentByBoundary walks consecutive pairs of analyzed activities and asks
// the oracle whether the later one opens a new session. A NEW decision
// closes the current session and starts a fresh one at the current activity.
func (s *Segmenter) segmentByBoundary(ctx context.Context, userID string, activities []types.EnrichedActivity) []types.BrowsingSession {
	var sessions []types.BrowsingSession
	current := []types.EnrichedActivity{activities[0]}
	lastAnalyzed := analysisOf(&activities[0])

	for i := 1; i < len(activities); i++ {
		curr := analysisOf(&activities[i])
		if curr != nil && lastAnalyzed != nil {
			decision := s.decideBoundary(ctx, lastAnalyzed, curr)
			if decision.IsNew() {
				sessions = append(sessions, buildSession(sessionID(current), userID, current))
				current = nil
			}
		}
		current = append(current, activities[i])
		if curr != nil {
			lastAnalyzed = curr
		}
	}
	if len(current) > 0 {
		sessions = append(sessions, buildSession(sessionID(current), userID, current))
	}
	return sessions
}

// decideBoundary consults the oracle, degrading to the same-category
// heuristic at fixed 0.3 confidence on any failure.
func (s *Segmenter) decideBoundary(ctx context.Context, prev, curr *types.ContentAnalysis) *oracle.BoundaryDecision {
	decision, err := s.oracle.SessionBoundary(ctx, prev, curr)
	if err == nil {
		return decision
	}
	if s.log != nil {
		s.log.Warnf("boundary oracle failed, using category heuristic: %v", err)
	}

	fallback := &oracle.BoundaryDecision{
		Decision:   "NEW",
		Reason:     "category changed (heuristic)",
		Confidence: heuristicConfidence,
	}
	if prev.Category == curr.Category {
		fallback.Decision = "SAME"
		fallback.Reason = "same category (heuristic)"
	}
	return fallback
}

func analysisOf(ea *types.EnrichedActivity) *types.ContentAnalysis {
	return ea.Analysis
}

// sessionID derives a stable id for a freshly segmented session from its
// first activity, keeping re-segmentation of the same data idempotent.
func sessionID(activities []types.EnrichedActivity) string {
	return "sess_" + activities[0].Activity.ID
}

// buildSession assembles a BrowsingSession, computing the time bounds and
// the primary category (mode of analyzed categories, first-seen wins ties).
func buildSession(id, userID string, activities []types.EnrichedActivity) types.BrowsingSession {
	start := activities[0].Activity.Timestamp
	end := activities[len(activities)-1].Activity.Timestamp
	var duration time.Duration
	if end.After(start) {
		duration = end.Sub(start)
	}

	return types.BrowsingSession{
		SessionID:       id,
		UserID:          userID,
		StartTime:       start,
		EndTime:         end,
		Duration:        duration,
		Activities:      activities,
		PrimaryCategory: primaryCategory(activities),
	}
}

func primaryCategory(activities []types.EnrichedActivity) string {
	counts := make(map[string]int)
	var order []string
	for i := range activities {
		a := activities[i].Analysis
		if a == nil || a.Category == "" {
			continue
		}
		if _, ok := counts[a.Category]; !ok {
			order = append(order, a.Category)
		}
		counts[a.Category]++
	}

	best := ""
	bestCount := 0
	for _, cat := range order { // first-seen order breaks ties
		if counts[cat] > bestCount {
			best = cat
			bestCount = counts[cat]
		}
	}
	return best
}
