package mining

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/retrace/pkg/logging"
	"github.com/entrhq/retrace/pkg/oracle"
	"github.com/entrhq/retrace/pkg/types"
)

const (
	// Candidate sessions for workflow mining: short, mostly-analyzed runs.
	minSequenceLen      = 2
	maxSequenceLen      = 5
	minAnalyzedSteps    = 2
	similarityThreshold = 0.2
	minPatternFrequency = 2

	// Position-wise similarity weights. Subcategory and brand matches are
	// stronger workflow signals than a shared top-level category.
	categoryWeight    = 0.2
	subcategoryWeight = 0.4
	brandWeight       = 0.4
)

// sequenceCandidate is one session reshaped for pairwise comparison.
type sequenceCandidate struct {
	session *types.BrowsingSession
	steps   []types.SequenceStep
}

// DetectSequential mines repeated multi-step workflows: sessions whose step
// structure (category/subcategory/brand per position) recurs. Each
// sufficiently similar session pair supports a pattern keyed by the earlier
// session's canonical step tuple; patterns with fewer than two supporting
// pairs are noise and discarded.
func DetectSequential(ctx context.Context, o oracle.Oracle, log *logging.Logger, sessions []types.BrowsingSession) []types.Pattern {
	candidates := sequenceCandidates(sessions)
	if len(candidates) < 2 {
		return nil
	}

	type merged struct {
		pattern       *types.SequentialPattern
		durationTotal time.Duration
		durationN     int
	}
	byKey := make(map[string]*merged)
	var keys []string

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			sim := compareSequences(candidates[i].steps, candidates[j].steps)
			if sim <= similarityThreshold {
				continue
			}

			key := canonicalKey(candidates[i].steps)
			m, ok := byKey[key]
			if !ok {
				m = &merged{pattern: &types.SequentialPattern{
					Steps: candidates[i].steps,
				}}
				byKey[key] = m
				keys = append(keys, key)
			}
			m.pattern.Frequency++
			last := candidates[i].session.EndTime
			if candidates[j].session.EndTime.After(last) {
				last = candidates[j].session.EndTime
			}
			if last.After(m.pattern.LastOccurrence) {
				m.pattern.LastOccurrence = last
			}
			m.durationTotal += candidates[i].session.Duration + candidates[j].session.Duration
			m.durationN += 2
		}
	}

	var patterns []types.Pattern
	for _, key := range keys {
		m := byKey[key]
		if m.pattern.Frequency < minPatternFrequency {
			continue
		}
		if m.durationN > 0 {
			m.pattern.AvgDuration = m.durationTotal / time.Duration(m.durationN)
		}
		patterns = append(patterns, types.Pattern{
			ID:         "seq_" + shortHash(key),
			Type:       types.PatternSequential,
			Sequential: m.pattern,
		})
	}

	nameThemes(ctx, o, log, patterns)
	return patterns
}

// nameThemes asks the oracle for a 3-5 word theme per pattern, concurrently,
// after all merging is done. Failures fall back to "<category> workflow".
func nameThemes(ctx context.Context, o oracle.Oracle, log *logging.Logger, patterns []types.Pattern) {
	var wg sync.WaitGroup
	for i := range patterns {
		wg.Add(1)
		go func(p *types.SequentialPattern) {
			defer wg.Done()
			theme, err := o.NameWorkflowTheme(ctx, stepDescriptions(p.Steps))
			if err != nil {
				if log != nil {
					log.Warnf("theme naming failed, using fallback: %v", err)
				}
				theme = fmt.Sprintf("%s workflow", p.Steps[0].Category)
			}
			p.SemanticTheme = theme
		}(patterns[i].Sequential)
	}
	wg.Wait()
}

func stepDescriptions(steps []types.SequenceStep) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		desc := s.Description
		if desc == "" {
			desc = strings.TrimSpace(fmt.Sprintf("%s %s %s", s.Category, s.Subcategory, s.Brand))
		}
		out[i] = fmt.Sprintf("%d. %s", i+1, desc)
	}
	return out
}

func sequenceCandidates(sessions []types.BrowsingSession) []sequenceCandidate {
	var candidates []sequenceCandidate
	for i := range sessions {
		s := &sessions[i]
		if len(s.Activities) < minSequenceLen || len(s.Activities) > maxSequenceLen {
			continue
		}
		if s.AnalyzedCount() < minAnalyzedSteps {
			continue
		}
		candidates = append(candidates, sequenceCandidate{
			session: s,
			steps:   sessionSteps(s),
		})
	}
	return candidates
}

func sessionSteps(s *types.BrowsingSession) []types.SequenceStep {
	steps := make([]types.SequenceStep, 0, len(s.Activities))
	for i := range s.Activities {
		ea := &s.Activities[i]
		step := types.SequenceStep{
			URL:   ea.URL(),
			Title: ea.Activity.Title(),
		}
		if ea.Analysis != nil {
			step.Category = ea.Analysis.Category
			step.Subcategory = ea.Analysis.Subcategory
			step.Brand = ea.Analysis.Brand
			step.Description = ea.Analysis.PageDescription
		}
		steps = append(steps, step)
	}
	return steps
}

// compareSequences scores the structural similarity of two step sequences in
// [0, 1]: a weighted position-by-position comparison averaged over the
// shorter sequence's length. Sequences whose lengths differ by more than one
// are never the same workflow and score 0 outright.
func compareSequences(a, b []types.SequenceStep) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	diff := len(a) - len(b)
	if diff < -1 || diff > 1 {
		return 0
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	total := 0.0
	for i := 0; i < n; i++ {
		if a[i].Category != "" && a[i].Category == b[i].Category {
			total += categoryWeight
		}
		if a[i].Subcategory != "" && a[i].Subcategory == b[i].Subcategory {
			total += subcategoryWeight
		}
		if a[i].Brand != "" && a[i].Brand == b[i].Brand {
			total += brandWeight
		}
	}
	return total / float64(n)
}

// canonicalKey is the pattern identity: the category:subcategory:brand tuple
// of every step, joined in order.
func canonicalKey(steps []types.SequenceStep) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = fmt.Sprintf("%s:%s:%s", s.Category, s.Subcategory, s.Brand)
	}
	return strings.Join(parts, "|")
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
