package types

import "time"

// InsightType classifies what kind of behavior an insight surfaces.
type InsightType string

const (
	InsightWorkflow  InsightType = "workflow"
	InsightResearch  InsightType = "research"
	InsightAbandoned InsightType = "abandoned"
	InsightHabit     InsightType = "habit"
)

// ActionType is the action a user can take on an insight.
type ActionType string

const (
	ActionOpenURLs       ActionType = "open_urls"
	ActionResumeResearch ActionType = "resume_research"
	ActionRemind         ActionType = "remind"
	ActionCreateWorkflow ActionType = "create_workflow"
)

// InsightStatus is the lifecycle state of an insight. Transitions are
// monotonic: pending -> in_progress -> completed, never backwards.
type InsightStatus string

const (
	StatusPending    InsightStatus = "pending"
	StatusInProgress InsightStatus = "in_progress"
	StatusCompleted  InsightStatus = "completed"
)

// Priority orders statuses for duplicate resolution: when two stored records
// share an id, the one with the higher priority wins.
func (s InsightStatus) Priority() int {
	switch s {
	case StatusCompleted:
		return 3
	case StatusInProgress:
		return 2
	case StatusPending:
		return 1
	default:
		return 0
	}
}

// ActionParams carries the type-specific parameters of an insight's action.
type ActionParams struct {
	URLs      []string `json:"urls,omitempty"`    // open_urls
	LastURL   string   `json:"lastUrl,omitempty"` // resume_research (abandoned)
	Domain    string   `json:"domain,omitempty"`  // remind
	DayOfWeek int      `json:"dayOfWeek,omitempty"`
	Hour      int      `json:"hour,omitempty"`
}

// ProactiveInsight is a user-facing, actionable surfacing of one detected
// pattern. Identity is the id, derived deterministically from the pattern id
// so that re-detection of the same pattern is idempotent.
type ProactiveInsight struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	Type           InsightType   `json:"type"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	ActionType     ActionType    `json:"actionType"`
	ActionParams   ActionParams  `json:"actionParams"`
	Patterns       []Pattern     `json:"patterns"`
	RelevanceScore float64       `json:"relevanceScore"`
	CreatedAt      time.Time     `json:"createdAt"`
	Status         InsightStatus `json:"status"`

	LastResumedAt    *time.Time `json:"lastResumedAt,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	LinkedSessionIDs []string   `json:"linkedSessionIds,omitempty"`

	// LinkedSessionURLs is the distinct URL set across the linked sessions,
	// captured when a session is linked. Sessions themselves are not
	// persisted, so this is what tab-completion percentages are measured
	// against after a restart.
	LinkedSessionURLs []string `json:"linkedSessionUrls,omitempty"`

	CompletionProgress *float64 `json:"completionProgress,omitempty"`
	OpenedTabURLs      []string `json:"openedTabUrls,omitempty"`
}

// GenerationMetadata bounds incremental reprocessing: only activities newer
// than LastGenerationTimestamp are fed into the next mining run. One record
// per user, fully rewritten after every run.
type GenerationMetadata struct {
	UserID string `json:"userId"`

	// LastGenerationTimestamp is the timestamp of the last activity loaded by
	// the previous run, not wall-clock time, so backfilled data with past
	// timestamps is not silently skipped.
	LastGenerationTimestamp time.Time `json:"lastGenerationTimestamp"`
	LastActivityTimestamp   time.Time `json:"lastActivityTimestamp"`
	TotalInsightsGenerated  int       `json:"totalInsightsGenerated"`
	TotalInsightsActedUpon  int       `json:"totalInsightsActedUpon"`
}

// ActionResult is the outward-facing outcome of executing an insight or
// workflow action. Failures are reported here rather than as errors so that
// callers can surface them without unwrapping.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Notification is emitted by the lifecycle manager toward the host
// application: auto-completion announcements and confirmation requests.
type Notification struct {
	InsightID string    `json:"insightId"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"` // "auto_completed" or "confirm_completion" or "reminder"
	Message   string    `json:"message"`
	Progress  float64   `json:"progress"`
	At        time.Time `json:"at"`
}
