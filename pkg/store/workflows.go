package store

import (
	"log/slog"
	"path/filepath"

	"github.com/entrhq/retrace/pkg/types"
)

// WorkflowStore persists a user's saved workflows as one JSON document.
type WorkflowStore struct {
	path string
}

// NewWorkflowStore creates a store over dataDir/<userID>/saved-workflows.json.
func NewWorkflowStore(dataDir, userID string) *WorkflowStore {
	return &WorkflowStore{path: filepath.Join(userDir(dataDir, userID), workflowsFile)}
}

// Load returns the saved workflows; missing or unreadable means none yet.
func (s *WorkflowStore) Load() ([]types.SavedWorkflow, error) {
	var workflows []types.SavedWorkflow
	if _, err := readJSONFile(s.path, &workflows); err != nil {
		slog.Warn("treating unreadable workflows file as empty", "path", s.path, "err", err)
		return nil, nil
	}
	return workflows, nil
}

// Save overwrites the workflows document. Save failures propagate.
func (s *WorkflowStore) Save(workflows []types.SavedWorkflow) error {
	return writeJSONFile(s.path, workflows)
}
