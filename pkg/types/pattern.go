package types

import "time"

// PatternType identifies which variant of the pattern union is populated.
type PatternType string

const (
	PatternSequential  PatternType = "sequential"
	PatternTopic       PatternType = "topic"
	PatternAbandonment PatternType = "abandonment"
	PatternTemporal    PatternType = "temporal"
)

// Pattern is a tagged union over the four detector outputs. Exactly one of
// the variant pointers is non-nil, matching Type. Score is zero until the
// ranker fills it in.
type Pattern struct {
	ID    string      `json:"id"`
	Type  PatternType `json:"type"`
	Score float64     `json:"score"`

	Sequential  *SequentialPattern  `json:"sequential,omitempty"`
	Topic       *TopicPattern       `json:"topic,omitempty"`
	Abandonment *AbandonmentPattern `json:"abandonment,omitempty"`
	Temporal    *TemporalPattern    `json:"temporal,omitempty"`
}

// LastOccurrence returns the most recent time the pattern was observed,
// regardless of variant.
func (p *Pattern) LastOccurrence() time.Time {
	switch p.Type {
	case PatternSequential:
		if p.Sequential != nil {
			return p.Sequential.LastOccurrence
		}
	case PatternTopic:
		if p.Topic != nil {
			return p.Topic.LastOccurrence
		}
	case PatternAbandonment:
		if p.Abandonment != nil {
			return p.Abandonment.SessionEnd
		}
	case PatternTemporal:
		if p.Temporal != nil {
			return p.Temporal.LastOccurrence
		}
	}
	return time.Time{}
}

// SequenceStep is one position of a recurring multi-step workflow.
type SequenceStep struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Description string `json:"description,omitempty"`
}

// SequentialPattern is a repeated multi-step workflow mined from short
// sessions with similar step structure.
type SequentialPattern struct {
	Steps          []SequenceStep `json:"steps"`
	Frequency      int            `json:"frequency"`
	AvgDuration    time.Duration  `json:"avgDuration"`
	LastOccurrence time.Time      `json:"lastOccurrence"`
	SemanticTheme  string         `json:"semanticTheme"`
}

// TopicPattern is a sustained research interest: the same primary category
// recurring across multiple sessions.
type TopicPattern struct {
	MainCategory    string        `json:"mainCategory"`
	Subcategories   []string      `json:"subcategories,omitempty"`
	Brands          []string      `json:"brands,omitempty"`
	SemanticSummary string        `json:"semanticSummary"`
	SessionIDs      []string      `json:"sessionIds"`
	TotalTime       time.Duration `json:"totalTime"`
	PagesSeen       int           `json:"pagesSeen"`
	KeyInsights     []string      `json:"keyInsights,omitempty"`
	LastOccurrence  time.Time     `json:"lastOccurrence"`
}

// AbandonmentPattern is a session the completion analyzer judged unfinished.
// It carries a compact digest of the originating session so that re-linking
// and action resolution do not need the full session to be re-materialized.
type AbandonmentPattern struct {
	SessionID       string        `json:"sessionId"`
	SessionStart    time.Time     `json:"sessionStart"`
	SessionEnd      time.Time     `json:"sessionEnd"`
	SessionDuration time.Duration `json:"sessionDuration"`
	Category        string        `json:"category,omitempty"`
	Hosts           []string      `json:"hosts,omitempty"`
	Brands          []string      `json:"brands,omitempty"`
	LastActivityURL string        `json:"lastActivityUrl,omitempty"`
	LastAnalysisURL string        `json:"lastAnalysisUrl,omitempty"`

	Intent          string   `json:"intent"`
	ProgressMade    string   `json:"progressMade"`
	WhyAbandoned    string   `json:"whyAbandoned"`
	CompletionScore float64  `json:"completionScore"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

// TemporalPattern is a time-of-day habit: repeated visits to the same domain
// in the same (weekday, hour) bucket.
type TemporalPattern struct {
	DayOfWeek int    `json:"dayOfWeek"` // 0 = Sunday
	Hour      int    `json:"hour"`
	Domain    string `json:"domain"`
	Frequency int    `json:"frequency"`

	// Confidence is frequency/10, stored uncapped; cap at 1.0 before using
	// it as a score input.
	Confidence     float64   `json:"confidence"`
	LastOccurrence time.Time `json:"lastOccurrence"`
}
