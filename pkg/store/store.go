// Package store implements the engine's persistence: read-only loaders over
// the collector's date-partitioned activity and analysis logs, and
// whole-file JSON documents for insights, generation metadata, and saved
// workflows (one document per user per concern, fully overwritten on save).
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	activitiesDir = "activities"
	analysesDir   = "analyses"

	insightsFile  = "insights.json"
	metadataFile  = "insights-metadata.json"
	workflowsFile = "saved-workflows.json"
)

// userDir returns the per-user data directory.
func userDir(dataDir, userID string) string {
	return filepath.Join(dataDir, userID)
}

// readJSONFile decodes the file at path into out. A missing file is reported
// via the bool, not an error.
func readJSONFile(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// writeJSONFile writes v to path atomically via a temp file and rename,
// creating parent directories as needed. Write failures propagate: silently
// losing a mutation is worse than a visible failure.
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("atomic rename %s: %w", path, err)
	}
	return nil
}
