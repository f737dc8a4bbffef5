package types

import "time"

// WorkflowStep is one replayable step of a saved workflow.
type WorkflowStep struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
}

// SavedWorkflow is a named, replayable step list created by explicit user
// promotion of a sequential-pattern insight. Workflows are never
// auto-generated.
type SavedWorkflow struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	CreatedFrom string         `json:"createdFrom"` // source insight id
	Steps       []WorkflowStep `json:"steps"`
	LastUsed    time.Time      `json:"lastUsed,omitempty"`
	UseCount    int            `json:"useCount"`
}

// URLSequence returns the ordered URL list of the workflow's steps, used for
// duplicate detection at promotion time.
func (w *SavedWorkflow) URLSequence() []string {
	urls := make([]string, len(w.Steps))
	for i, s := range w.Steps {
		urls[i] = s.URL
	}
	return urls
}
