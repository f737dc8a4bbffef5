package store

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/entrhq/retrace/pkg/types"
)

// InsightStore persists a user's insights as a single JSON document,
// rewritten whole on every save. Insights are never hard-deleted; history is
// retained in the document.
type InsightStore struct {
	path string
}

// NewInsightStore creates a store over dataDir/<userID>/insights.json.
func NewInsightStore(dataDir, userID string) *InsightStore {
	return &InsightStore{path: filepath.Join(userDir(dataDir, userID), insightsFile)}
}

// persistedInsight tolerates the legacy on-disk shape that carried
// actedUpon/actedUponAt booleans alongside (or instead of) the status enum.
// Legacy fields are migrated to the enum at load time and never written back.
type persistedInsight struct {
	types.ProactiveInsight
	ActedUpon   *bool      `json:"actedUpon,omitempty"`
	ActedUponAt *time.Time `json:"actedUponAt,omitempty"`
}

func (p *persistedInsight) migrate() types.ProactiveInsight {
	out := p.ProactiveInsight
	if out.Status == "" {
		if p.ActedUpon != nil && *p.ActedUpon {
			out.Status = types.StatusCompleted
			if out.CompletedAt == nil {
				out.CompletedAt = p.ActedUponAt
			}
		} else {
			out.Status = types.StatusPending
		}
	}
	return out
}

// Load returns the persisted insights, deduplicated by id. A missing file is
// no data yet; a corrupt file is treated the same way (logged), per the
// engine's storage-failure policy.
func (s *InsightStore) Load() ([]types.ProactiveInsight, error) {
	var persisted []persistedInsight
	if _, err := readJSONFile(s.path, &persisted); err != nil {
		slog.Warn("treating unreadable insights file as empty", "path", s.path, "err", err)
		return nil, nil
	}

	insights := make([]types.ProactiveInsight, 0, len(persisted))
	for i := range persisted {
		insights = append(insights, persisted[i].migrate())
	}
	return DedupeInsights(insights), nil
}

// Save overwrites the insights document. The set is deduplicated before
// writing so the stored invariant (one record per id) holds even if the
// caller slipped. Save failures propagate to the caller.
func (s *InsightStore) Save(insights []types.ProactiveInsight) error {
	return writeJSONFile(s.path, DedupeInsights(insights))
}

// DedupeInsights collapses duplicate ids, keeping for each id the record
// with the highest status priority (completed > in_progress > pending).
// Relative order of the surviving records is preserved.
func DedupeInsights(insights []types.ProactiveInsight) []types.ProactiveInsight {
	byID := make(map[string]int, len(insights))
	out := make([]types.ProactiveInsight, 0, len(insights))

	for _, ins := range insights {
		idx, seen := byID[ins.ID]
		if !seen {
			byID[ins.ID] = len(out)
			out = append(out, ins)
			continue
		}
		if ins.Status.Priority() > out[idx].Status.Priority() {
			out[idx] = ins
		}
	}
	return out
}
