package mining

import (
	"sort"
	"time"

	"github.com/entrhq/retrace/pkg/types"
)

// Ranking weights and normalizers. The formula is
// 0.3*frequency + 0.3*recency + 0.4*impact, each term in [0, 1], with a
// final x2 boost for sequential patterns: workflows are the cheapest insight
// to act on (one click opens N tabs), so they outrank everything else at
// equal raw score.
const (
	frequencyWeight = 0.3
	recencyWeight   = 0.3
	impactWeight    = 0.4

	sequentialBoost = 2.0

	recencyDecayPerDay = 0.1
)

// Rank fills each pattern's score, sorts descending, and returns at most
// topN patterns. now anchors the recency term.
func Rank(patterns []types.Pattern, now time.Time, topN int) []types.Pattern {
	for i := range patterns {
		patterns[i].Score = PatternScore(&patterns[i], now)
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Score > patterns[j].Score
	})
	if topN > 0 && len(patterns) > topN {
		patterns = patterns[:topN]
	}
	return patterns
}

// PatternScore computes the weighted frequency/recency/impact score of a
// single pattern. It is strictly decreasing in the age of the pattern's last
// occurrence for fixed frequency and impact.
func PatternScore(p *types.Pattern, now time.Time) float64 {
	score := frequencyWeight*frequencyScore(p) +
		recencyWeight*recencyScore(p, now) +
		impactWeight*impactScore(p)

	if p.Type == types.PatternSequential {
		score *= sequentialBoost
	}
	return clamp01(score)
}

// recencyScore decays smoothly with age and never reaches zero, so old
// patterns stay rankable behind fresh ones.
func recencyScore(p *types.Pattern, now time.Time) float64 {
	days := now.Sub(p.LastOccurrence()).Hours() / 24
	if days < 0 {
		days = 0
	}
	return 1 / (1 + days*recencyDecayPerDay)
}

func frequencyScore(p *types.Pattern) float64 {
	switch p.Type {
	case types.PatternSequential:
		return capped(float64(p.Sequential.Frequency), 5)
	case types.PatternTopic:
		return capped(float64(len(p.Topic.SessionIDs)), 10)
	case types.PatternTemporal:
		return capped(float64(p.Temporal.Frequency), 10)
	case types.PatternAbandonment:
		return clamp01(1 - p.Abandonment.CompletionScore)
	}
	return 0
}

func impactScore(p *types.Pattern) float64 {
	switch p.Type {
	case types.PatternSequential:
		// Roughly 10 saved seconds per replayed step, normalized to a minute.
		return capped(float64(len(p.Sequential.Steps))*10, 60)
	case types.PatternTopic:
		return clamp01(p.Topic.TotalTime.Hours())
	case types.PatternAbandonment:
		impact := p.Abandonment.SessionDuration.Minutes() / 30
		if impact > 0.5 {
			impact = 0.5
		}
		return impact
	case types.PatternTemporal:
		return capped(float64(p.Temporal.Frequency), 20)
	}
	return 0
}

func capped(v, max float64) float64 {
	if v >= max {
		return 1
	}
	return v / max
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
