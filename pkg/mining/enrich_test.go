package mining

import (
	"testing"

	"github.com/entrhq/retrace/pkg/types"
	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichJoinsAnalyses(t *testing.T) {
	activities := []types.Activity{
		{ID: "a1", Data: map[string]any{"url": "https://a.example/1"}},
		{ID: "a2", Data: map[string]any{"url": "https://a.example/2"}},
	}
	index := map[string]*types.ContentAnalysis{
		"a1": {AnalysisID: "an1", Category: "dev"},
	}

	enriched := Enrich(activities, index, nil)
	require.Len(t, enriched, 2)
	require.NotNil(t, enriched[0].Analysis)
	assert.Equal(t, "dev", enriched[0].Analysis.Category)
	assert.Nil(t, enriched[1].Analysis)
}

func TestEnrichDropsIgnoredDomains(t *testing.T) {
	activities := []types.Activity{
		{ID: "a1", Data: map[string]any{"url": "https://ads.doubleclick.net/x"}},
		{ID: "a2", Data: map[string]any{"url": "https://news.example.com/x"}},
		{ID: "a3"}, // no URL, kept
	}
	ignore := []glob.Glob{glob.MustCompile("*.doubleclick.net")}

	enriched := Enrich(activities, nil, ignore)
	require.Len(t, enriched, 2)
	assert.Equal(t, "a2", enriched[0].Activity.ID)
	assert.Equal(t, "a3", enriched[1].Activity.ID)
}
