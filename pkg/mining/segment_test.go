package mining

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/entrhq/retrace/pkg/oracle"
	"github.com/entrhq/retrace/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func enrichedActivity(id, sessionID, url, category string, at time.Time) types.EnrichedActivity {
	ea := types.EnrichedActivity{
		Activity: types.Activity{
			ID:        id,
			UserID:    "u1",
			Timestamp: at,
			SessionID: sessionID,
			Type:      "page_visit",
			Data:      map[string]any{"url": url, "title": "page " + id},
		},
	}
	if category != "" {
		ea.Analysis = &types.ContentAnalysis{
			AnalysisID:      "an_" + id,
			ActivityIDs:     []string{id},
			URL:             url,
			PageDescription: "description of " + id,
			Category:        category,
		}
	}
	return ea
}

func TestSegmentGroupsByExistingSessionIDsWithoutOracle(t *testing.T) {
	fake := oracle.NewFake()
	seg := NewSegmenter(fake, nil)

	activities := []types.EnrichedActivity{
		enrichedActivity("a1", "s1", "https://a.example/1", "dev", baseTime),
		enrichedActivity("a2", "s1", "https://a.example/2", "dev", baseTime.Add(time.Minute)),
		enrichedActivity("a3", "s2", "https://b.example/1", "shopping", baseTime.Add(2*time.Minute)),
	}

	sessions := seg.Segment(context.Background(), "u1", activities)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].SessionID)
	assert.Len(t, sessions[0].Activities, 2)
	assert.Equal(t, "s2", sessions[1].SessionID)
	assert.Equal(t, 0, fake.TotalCalls(), "structural grouping must not consult the oracle")
}

func TestSegmentSessionFieldsDerived(t *testing.T) {
	seg := NewSegmenter(oracle.NewFake(), nil)

	activities := []types.EnrichedActivity{
		enrichedActivity("a1", "s1", "https://a.example/1", "dev", baseTime),
		enrichedActivity("a2", "s1", "https://a.example/2", "shopping", baseTime.Add(90*time.Second)),
		enrichedActivity("a3", "s1", "https://a.example/3", "dev", baseTime.Add(3*time.Minute)),
	}

	sessions := seg.Segment(context.Background(), "u1", activities)
	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, baseTime, s.StartTime)
	assert.Equal(t, baseTime.Add(3*time.Minute), s.EndTime)
	assert.Equal(t, 3*time.Minute, s.Duration)
	assert.Equal(t, "dev", s.PrimaryCategory, "mode of analyzed categories")
}

func TestSegmentBoundaryDecisionsSplitSessions(t *testing.T) {
	fake := oracle.NewFake()
	fake.BoundaryFn = func(prev, curr *types.ContentAnalysis) (*oracle.BoundaryDecision, error) {
		if prev.Category != curr.Category {
			return &oracle.BoundaryDecision{Decision: "NEW", Reason: "category switch", Confidence: 0.9}, nil
		}
		return &oracle.BoundaryDecision{Decision: "SAME", Reason: "same task", Confidence: 0.9}, nil
	}
	seg := NewSegmenter(fake, nil)

	activities := []types.EnrichedActivity{
		enrichedActivity("a1", "", "https://a.example/1", "dev", baseTime),
		enrichedActivity("a2", "", "https://a.example/2", "dev", baseTime.Add(time.Minute)),
		enrichedActivity("a3", "", "https://b.example/1", "shopping", baseTime.Add(2*time.Minute)),
		enrichedActivity("a4", "", "https://b.example/2", "shopping", baseTime.Add(3*time.Minute)),
	}

	sessions := seg.Segment(context.Background(), "u1", activities)
	require.Len(t, sessions, 2)
	assert.Equal(t, "sess_a1", sessions[0].SessionID)
	assert.Equal(t, "sess_a3", sessions[1].SessionID)
	assert.Len(t, sessions[0].Activities, 2)
	assert.Len(t, sessions[1].Activities, 2)
	assert.Equal(t, 3, fake.Calls("SessionBoundary"), "one call per consecutive analyzed pair")
}

func TestSegmentUnanalyzedActivitiesStayInCurrentSession(t *testing.T) {
	fake := oracle.NewFake()
	seg := NewSegmenter(fake, nil)

	activities := []types.EnrichedActivity{
		enrichedActivity("a1", "", "https://a.example/1", "dev", baseTime),
		enrichedActivity("a2", "", "https://a.example/2", "", baseTime.Add(time.Minute)),
		enrichedActivity("a3", "", "https://a.example/3", "dev", baseTime.Add(2*time.Minute)),
	}

	sessions := seg.Segment(context.Background(), "u1", activities)
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].Activities, 3)
	assert.Equal(t, 1, fake.Calls("SessionBoundary"), "unanalyzed activities never trigger boundary checks")
}

func TestSegmentHeuristicFallbackOnOracleFailure(t *testing.T) {
	fake := oracle.NewFake()
	fake.BoundaryFn = func(prev, curr *types.ContentAnalysis) (*oracle.BoundaryDecision, error) {
		return nil, fmt.Errorf("oracle down")
	}
	seg := NewSegmenter(fake, nil)

	activities := []types.EnrichedActivity{
		enrichedActivity("a1", "", "https://a.example/1", "dev", baseTime),
		enrichedActivity("a2", "", "https://a.example/2", "dev", baseTime.Add(time.Minute)),
		enrichedActivity("a3", "", "https://b.example/1", "shopping", baseTime.Add(2*time.Minute)),
	}

	sessions := seg.Segment(context.Background(), "u1", activities)
	require.Len(t, sessions, 2, "category change splits under the heuristic")
}

func TestSegmentEmptyInput(t *testing.T) {
	seg := NewSegmenter(oracle.NewFake(), nil)
	assert.Nil(t, seg.Segment(context.Background(), "u1", nil))
}
