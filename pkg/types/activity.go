// Package types defines the core data model shared across the retrace engine:
// raw browsing activities, per-page content analyses, segmented browsing
// sessions, detected patterns, proactive insights, and saved workflows.
package types

import (
	"net/url"
	"time"
)

// Activity is one recorded browser event (page visit, click, search, etc.).
// Activities are produced by the external collector and are read-only to the
// engine. Navigational activity types carry "url" and "title" in Data.
type Activity struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"sessionId,omitempty"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// URL returns the activity's page URL, if present.
func (a *Activity) URL() string {
	if a.Data == nil {
		return ""
	}
	if u, ok := a.Data["url"].(string); ok {
		return u
	}
	return ""
}

// Title returns the activity's page title, if present.
func (a *Activity) Title() string {
	if a.Data == nil {
		return ""
	}
	if t, ok := a.Data["title"].(string); ok {
		return t
	}
	return ""
}

// Host returns the hostname of the activity's URL, or "" if the URL is
// missing or unparsable.
func (a *Activity) Host() string {
	raw := a.URL()
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// ContentAnalysis is the AI-derived description of a visited page. One
// analysis may cover several activities when the collector deduplicates
// repeat visits, which is why membership is expressed as a set of activity
// ids rather than a single pointer.
type ContentAnalysis struct {
	AnalysisID            string   `json:"analysisId"`
	ActivityIDs           []string `json:"activityIds"`
	URL                   string   `json:"url"`
	PageDescription       string   `json:"pageDescription"`
	RawText               string   `json:"rawText,omitempty"`
	ScreenshotDescription string   `json:"screenshotDescription,omitempty"`
	Category              string   `json:"category"`
	Subcategory           string   `json:"subcategory,omitempty"`
	Brand                 string   `json:"brand,omitempty"`
	PrimaryLanguage       string   `json:"primaryLanguage,omitempty"`
	Languages             []string `json:"languages,omitempty"`
}

// Covers reports whether this analysis covers the given activity id.
func (c *ContentAnalysis) Covers(activityID string) bool {
	for _, id := range c.ActivityIDs {
		if id == activityID {
			return true
		}
	}
	return false
}

// EnrichedActivity joins an activity with its content analysis, when one
// exists. The join is recomputed per mining run and never persisted.
type EnrichedActivity struct {
	Activity Activity         `json:"activity"`
	Analysis *ContentAnalysis `json:"analysis,omitempty"`
}

// URL returns the best-known URL for the enriched activity, preferring the
// raw activity's URL over the analysis URL.
func (e *EnrichedActivity) URL() string {
	if u := e.Activity.URL(); u != "" {
		return u
	}
	if e.Analysis != nil {
		return e.Analysis.URL
	}
	return ""
}

// BrowsingSession is a contiguous, time-ordered run of enriched activities
// judged to belong to one coherent browsing episode.
type BrowsingSession struct {
	SessionID  string             `json:"sessionId"`
	UserID     string             `json:"userId"`
	StartTime  time.Time          `json:"startTime"`
	EndTime    time.Time          `json:"endTime"`
	Duration   time.Duration      `json:"duration"`
	Activities []EnrichedActivity `json:"activities"`

	// PrimaryCategory is the statistical mode of analysis categories across
	// the session's activities, ties broken by first-seen.
	PrimaryCategory string `json:"primaryCategory,omitempty"`
}

// AnalyzedCount returns the number of activities in the session that carry a
// content analysis.
func (s *BrowsingSession) AnalyzedCount() int {
	n := 0
	for i := range s.Activities {
		if s.Activities[i].Analysis != nil {
			n++
		}
	}
	return n
}

// DistinctURLs returns the distinct activity URLs of the session, in order of
// first appearance.
func (s *BrowsingSession) DistinctURLs() []string {
	seen := make(map[string]struct{}, len(s.Activities))
	var urls []string
	for i := range s.Activities {
		u := s.Activities[i].URL()
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

// Hosts returns the distinct URL hostnames observed in the session.
func (s *BrowsingSession) Hosts() []string {
	seen := make(map[string]struct{})
	var hosts []string
	for i := range s.Activities {
		h := s.Activities[i].Activity.Host()
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		hosts = append(hosts, h)
	}
	return hosts
}

// Brands returns the distinct non-empty brands observed in the session's
// analyzed activities.
func (s *BrowsingSession) Brands() []string {
	seen := make(map[string]struct{})
	var brands []string
	for i := range s.Activities {
		a := s.Activities[i].Analysis
		if a == nil || a.Brand == "" {
			continue
		}
		if _, ok := seen[a.Brand]; ok {
			continue
		}
		seen[a.Brand] = struct{}{}
		brands = append(brands, a.Brand)
	}
	return brands
}
