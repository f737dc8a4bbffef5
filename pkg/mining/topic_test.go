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

func categorySession(n int, category string, day int) types.BrowsingSession {
	start := baseTime.AddDate(0, 0, day)
	a1 := enrichedActivity(fmt.Sprintf("%s%d_1", category, n), "", fmt.Sprintf("https://%s.example/%d", category, n), category, start)
	a2 := enrichedActivity(fmt.Sprintf("%s%d_2", category, n), "", fmt.Sprintf("https://%s.example/%d/b", category, n), category, start.Add(10*time.Minute))
	a2.Analysis.Subcategory = "reviews"
	a2.Analysis.Brand = "acme"
	return buildSession(fmt.Sprintf("sess_%s%d", category, n), "u1", []types.EnrichedActivity{a1, a2})
}

func TestDetectTopicGroupsRecurringCategories(t *testing.T) {
	fake := oracle.NewFake()
	fake.TopicFn = func(category string, pages []string) (*oracle.TopicSummary, error) {
		return &oracle.TopicSummary{
			Summary:  "Looking for running headphones",
			Insights: []string{"prefers wireless", "budget around $100"},
		}, nil
	}

	sessions := []types.BrowsingSession{
		categorySession(1, "shopping", 0),
		categorySession(2, "shopping", 1),
		categorySession(1, "news", 2), // single session, dropped
	}

	patterns := DetectTopic(context.Background(), fake, nil, sessions, 10)
	require.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, types.PatternTopic, p.Type)
	assert.Equal(t, "topic_shopping", p.ID)
	require.NotNil(t, p.Topic)
	assert.Equal(t, "shopping", p.Topic.MainCategory)
	assert.ElementsMatch(t, []string{"sess_shopping1", "sess_shopping2"}, p.Topic.SessionIDs)
	assert.Equal(t, 20*time.Minute, p.Topic.TotalTime)
	assert.Equal(t, 4, p.Topic.PagesSeen)
	assert.Equal(t, []string{"reviews"}, p.Topic.Subcategories)
	assert.Equal(t, []string{"acme"}, p.Topic.Brands)
	assert.Equal(t, "Looking for running headphones", p.Topic.SemanticSummary)
	assert.Len(t, p.Topic.KeyInsights, 2)
}

func TestDetectTopicCapsGroupCount(t *testing.T) {
	fake := oracle.NewFake()
	var sessions []types.BrowsingSession
	for _, cat := range []string{"a", "b", "c"} {
		sessions = append(sessions, categorySession(1, cat, 0), categorySession(2, cat, 1))
	}
	// Category "a" gets a third session so it outranks the others.
	sessions = append(sessions, categorySession(3, "a", 2))

	patterns := DetectTopic(context.Background(), fake, nil, sessions, 1)
	require.Len(t, patterns, 1)
	assert.Equal(t, "topic_a", patterns[0].ID)
	assert.Equal(t, 1, fake.Calls("SummarizeTopic"), "cap also bounds oracle traffic")
}

func TestDetectTopicSummarizerFallback(t *testing.T) {
	fake := oracle.NewFake()
	fake.TopicFn = func(category string, pages []string) (*oracle.TopicSummary, error) {
		return nil, fmt.Errorf("oracle down")
	}

	sessions := []types.BrowsingSession{
		categorySession(1, "travel", 0),
		categorySession(2, "travel", 1),
	}
	patterns := DetectTopic(context.Background(), fake, nil, sessions, 10)
	require.Len(t, patterns, 1)
	assert.Equal(t, "Researching travel", patterns[0].Topic.SemanticSummary)
	assert.Empty(t, patterns[0].Topic.KeyInsights)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "web_dev", slug("Web Dev"))
	assert.Equal(t, "caf__news", slug("Café News"))
}
