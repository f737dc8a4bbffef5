package mining

import (
	"fmt"
	"testing"
	"time"

	"github.com/entrhq/retrace/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mondayAt returns the n-th consecutive Monday at the given hour.
func mondayAt(n, hour int) time.Time {
	monday := time.Date(2026, 3, 2, hour, 15, 0, 0, time.UTC) // a Monday
	return monday.AddDate(0, 0, 7*n)
}

func TestDetectTemporalRecurringVisits(t *testing.T) {
	var sessions []types.BrowsingSession
	for n := 0; n < 3; n++ {
		a := enrichedActivity(fmt.Sprintf("m%d", n), "", "https://www.example.com/news", "news", mondayAt(n, 9))
		sessions = append(sessions, buildSession(fmt.Sprintf("sess_m%d", n), "u1", []types.EnrichedActivity{a}))
	}

	patterns := DetectTemporal(sessions)
	require.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, types.PatternTemporal, p.Type)
	require.NotNil(t, p.Temporal)
	assert.Equal(t, int(time.Monday), p.Temporal.DayOfWeek)
	assert.Equal(t, 9, p.Temporal.Hour)
	assert.Equal(t, "example.com", p.Temporal.Domain, "www is stripped to the registrable domain")
	assert.Equal(t, 3, p.Temporal.Frequency)
	assert.InDelta(t, 0.3, p.Temporal.Confidence, 1e-9)
	assert.Equal(t, mondayAt(2, 9), p.Temporal.LastOccurrence)
}

func TestDetectTemporalBelowThreshold(t *testing.T) {
	var sessions []types.BrowsingSession
	for n := 0; n < 2; n++ {
		a := enrichedActivity(fmt.Sprintf("m%d", n), "", "https://example.com/", "news", mondayAt(n, 9))
		sessions = append(sessions, buildSession(fmt.Sprintf("sess_m%d", n), "u1", []types.EnrichedActivity{a}))
	}
	assert.Empty(t, DetectTemporal(sessions))
}

func TestDetectTemporalSeparateBuckets(t *testing.T) {
	var activities []types.EnrichedActivity
	for n := 0; n < 3; n++ {
		activities = append(activities,
			enrichedActivity(fmt.Sprintf("a%d", n), "", "https://example.com/", "news", mondayAt(n, 9)),
			enrichedActivity(fmt.Sprintf("b%d", n), "", "https://example.com/", "news", mondayAt(n, 14)),
		)
	}
	sessions := []types.BrowsingSession{buildSession("sess_all", "u1", activities)}

	patterns := DetectTemporal(sessions)
	require.Len(t, patterns, 2, "different hours are different habits")
}

func TestDetectTemporalSkipsUnanalyzed(t *testing.T) {
	var sessions []types.BrowsingSession
	for n := 0; n < 3; n++ {
		a := enrichedActivity(fmt.Sprintf("m%d", n), "", "https://example.com/", "", mondayAt(n, 9))
		sessions = append(sessions, buildSession(fmt.Sprintf("sess_m%d", n), "u1", []types.EnrichedActivity{a}))
	}
	assert.Empty(t, DetectTemporal(sessions))
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "ycombinator.com", registrableDomain("news.ycombinator.com"))
	assert.Equal(t, "example.com", registrableDomain("example.com"))
	assert.Equal(t, "localhost", registrableDomain("localhost"), "non-PSL hosts fall back to the raw name")
	assert.Equal(t, "", registrableDomain(""))
}
