package mining

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/entrhq/retrace/pkg/logging"
	"github.com/entrhq/retrace/pkg/oracle"
	"github.com/entrhq/retrace/pkg/types"
)

// minTopicSessions: topics must recur; a single session on a category is not
// a sustained research interest.
const minTopicSessions = 2

type topicGroup struct {
	category string
	sessions []*types.BrowsingSession
}

// DetectTopic mines sustained research interests: primary categories that
// recur across sessions. Only the largest maxGroups groups are summarized by
// the oracle, which caps both cost and concurrency.
func DetectTopic(ctx context.Context, o oracle.Oracle, log *logging.Logger, sessions []types.BrowsingSession, maxGroups int) []types.Pattern {
	groups := groupByCategory(sessions)
	if len(groups) == 0 {
		return nil
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].sessions) > len(groups[j].sessions)
	})
	if maxGroups > 0 && len(groups) > maxGroups {
		groups = groups[:maxGroups]
	}

	patterns := make([]types.Pattern, len(groups))
	var wg sync.WaitGroup
	for i := range groups {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			patterns[i] = buildTopicPattern(ctx, o, log, groups[i])
		}(i)
	}
	wg.Wait()
	return patterns
}

func groupByCategory(sessions []types.BrowsingSession) []topicGroup {
	byCat := make(map[string][]*types.BrowsingSession)
	var order []string
	for i := range sessions {
		cat := sessions[i].PrimaryCategory
		if cat == "" {
			continue
		}
		if _, ok := byCat[cat]; !ok {
			order = append(order, cat)
		}
		byCat[cat] = append(byCat[cat], &sessions[i])
	}

	var groups []topicGroup
	for _, cat := range order {
		if len(byCat[cat]) < minTopicSessions {
			continue
		}
		groups = append(groups, topicGroup{category: cat, sessions: byCat[cat]})
	}
	return groups
}

func buildTopicPattern(ctx context.Context, o oracle.Oracle, log *logging.Logger, g topicGroup) types.Pattern {
	tp := &types.TopicPattern{
		MainCategory: g.category,
	}

	subSeen := make(map[string]struct{})
	brandSeen := make(map[string]struct{})
	var pages []string
	for _, s := range g.sessions {
		tp.SessionIDs = append(tp.SessionIDs, s.SessionID)
		tp.TotalTime += s.Duration
		if s.EndTime.After(tp.LastOccurrence) {
			tp.LastOccurrence = s.EndTime
		}
		for i := range s.Activities {
			a := s.Activities[i].Analysis
			if a == nil {
				continue
			}
			tp.PagesSeen++
			if a.Subcategory != "" {
				if _, ok := subSeen[a.Subcategory]; !ok {
					subSeen[a.Subcategory] = struct{}{}
					tp.Subcategories = append(tp.Subcategories, a.Subcategory)
				}
			}
			if a.Brand != "" {
				if _, ok := brandSeen[a.Brand]; !ok {
					brandSeen[a.Brand] = struct{}{}
					tp.Brands = append(tp.Brands, a.Brand)
				}
			}
			if a.PageDescription != "" {
				pages = append(pages, a.PageDescription)
			}
		}
	}

	summary, err := o.SummarizeTopic(ctx, g.category, pages)
	if err != nil {
		if log != nil {
			log.Warnf("topic summarizer failed for %q, using fallback: %v", g.category, err)
		}
		tp.SemanticSummary = fmt.Sprintf("Researching %s", g.category)
	} else {
		tp.SemanticSummary = summary.Summary
		tp.KeyInsights = summary.Insights
	}

	return types.Pattern{
		ID:    "topic_" + slug(g.category),
		Type:  types.PatternTopic,
		Topic: tp,
	}
}

// slug normalizes a category into an id-safe token.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
