// Package mining implements the analysis pipeline that turns raw browsing
// activities into ranked behavior patterns: enrichment, session
// segmentation, the four pattern detectors, and scoring.
package mining

import (
	"github.com/entrhq/retrace/pkg/types"
	"github.com/gobwas/glob"
)

// Enrich joins each activity to its content analysis (if any) via the
// activity-id index, dropping activities whose hostname matches an
// ignore-domain pattern. Input order is preserved.
func Enrich(activities []types.Activity, index map[string]*types.ContentAnalysis, ignore []glob.Glob) []types.EnrichedActivity {
	enriched := make([]types.EnrichedActivity, 0, len(activities))
	for i := range activities {
		if matchesIgnored(activities[i].Host(), ignore) {
			continue
		}
		enriched = append(enriched, types.EnrichedActivity{
			Activity: activities[i],
			Analysis: index[activities[i].ID],
		})
	}
	return enriched
}

func matchesIgnored(host string, ignore []glob.Glob) bool {
	if host == "" {
		return false
	}
	for _, g := range ignore {
		if g.Match(host) {
			return true
		}
	}
	return false
}
