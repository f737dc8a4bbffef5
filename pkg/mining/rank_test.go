package mining

import (
	"testing"
	"time"

	"github.com/entrhq/retrace/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialPattern(frequency int, steps int, last time.Time) types.Pattern {
	sp := &types.SequentialPattern{Frequency: frequency, LastOccurrence: last}
	for i := 0; i < steps; i++ {
		sp.Steps = append(sp.Steps, types.SequenceStep{URL: "https://a.example", Category: "dev"})
	}
	return types.Pattern{ID: "seq_x", Type: types.PatternSequential, Sequential: sp}
}

func topicPattern(sessions int, total time.Duration, last time.Time) types.Pattern {
	tp := &types.TopicPattern{TotalTime: total, LastOccurrence: last}
	for i := 0; i < sessions; i++ {
		tp.SessionIDs = append(tp.SessionIDs, "s")
	}
	return types.Pattern{ID: "topic_x", Type: types.PatternTopic, Topic: tp}
}

func TestPatternScoreRecencyMonotonic(t *testing.T) {
	now := baseTime.AddDate(0, 0, 30)

	fresh := topicPattern(4, time.Hour, now)
	stale := topicPattern(4, time.Hour, now.AddDate(0, 0, -20))

	assert.Greater(t, PatternScore(&fresh, now), PatternScore(&stale, now),
		"same frequency and impact, older last occurrence must score lower")
}

func TestPatternScoreSequentialBoost(t *testing.T) {
	now := baseTime
	seq := sequentialPattern(3, 3, now)
	topic := topicPattern(3, 30*time.Minute, now)

	seqScore := PatternScore(&seq, now)
	topicScore := PatternScore(&topic, now)
	assert.Greater(t, seqScore, topicScore, "workflows outrank at comparable raw terms")
	assert.LessOrEqual(t, seqScore, 1.0, "boost is capped")
}

func TestPatternScoreClamped(t *testing.T) {
	now := baseTime
	// Maxed-out terms with the x2 boost would exceed 1 unclamped.
	p := sequentialPattern(10, 10, now)
	assert.Equal(t, 1.0, PatternScore(&p, now))
}

func TestRankSortsAndCuts(t *testing.T) {
	now := baseTime
	patterns := []types.Pattern{
		topicPattern(2, 10*time.Minute, now.AddDate(0, 0, -10)),
		sequentialPattern(5, 4, now),
		topicPattern(8, 2*time.Hour, now),
	}

	ranked := Rank(patterns, now, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, types.PatternSequential, ranked[0].Type)
	assert.GreaterOrEqual(t, ranked[0].Score, ranked[1].Score)
	for _, p := range ranked {
		assert.Greater(t, p.Score, 0.0)
	}
}

func TestRankZeroTopNKeepsAll(t *testing.T) {
	patterns := []types.Pattern{
		topicPattern(2, time.Hour, baseTime),
		topicPattern(3, time.Hour, baseTime),
	}
	assert.Len(t, Rank(patterns, baseTime, 0), 2)
}

func TestFrequencyScoreAbandonmentInverted(t *testing.T) {
	p := types.Pattern{
		Type:        types.PatternAbandonment,
		Abandonment: &types.AbandonmentPattern{CompletionScore: 0.2, SessionDuration: 10 * time.Minute},
	}
	assert.InDelta(t, 0.8, frequencyScore(&p), 1e-9, "less finished means more worth resurfacing")
}
