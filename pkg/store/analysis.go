package store

import (
	"log/slog"
	"path/filepath"

	"github.com/entrhq/retrace/pkg/types"
)

// AnalysisStore reads a user's content analyses from the analysis pipeline's
// date-partitioned log, mirroring the activity log layout.
type AnalysisStore struct {
	dir string
}

// NewAnalysisStore creates a loader over dataDir/<userID>/analyses.
func NewAnalysisStore(dataDir, userID string) *AnalysisStore {
	return &AnalysisStore{dir: filepath.Join(userDir(dataDir, userID), analysesDir)}
}

// LoadRecent returns the analyses from the most recent partitions. Order is
// not meaningful; analyses are joined to activities by id membership.
func (s *AnalysisStore) LoadRecent(maxPartitions int) ([]types.ContentAnalysis, error) {
	paths, err := recentPartitions(s.dir, maxPartitions)
	if err != nil {
		return nil, err
	}

	var analyses []types.ContentAnalysis
	for _, path := range paths {
		var partition []types.ContentAnalysis
		if _, err := readJSONFile(path, &partition); err != nil {
			slog.Warn("skipping corrupt analysis partition", "path", path, "err", err)
			continue
		}
		analyses = append(analyses, partition...)
	}
	return analyses, nil
}

// IndexByActivity builds the activity-id to analysis lookup used by the
// enricher. When several analyses claim the same activity the first loaded
// one wins; the collector should not produce overlaps.
func IndexByActivity(analyses []types.ContentAnalysis) map[string]*types.ContentAnalysis {
	index := make(map[string]*types.ContentAnalysis)
	for i := range analyses {
		for _, id := range analyses[i].ActivityIDs {
			if _, ok := index[id]; !ok {
				index[id] = &analyses[i]
			}
		}
	}
	return index
}
