package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/entrhq/retrace/pkg/types"
)

// ActivityStore reads a user's raw browsing activities from the collector's
// date-partitioned log: one JSON array per day, named YYYY-MM-DD.json. The
// log is append-only and read-only to the engine.
type ActivityStore struct {
	dir string
}

// NewActivityStore creates a loader over dataDir/<userID>/activities.
func NewActivityStore(dataDir, userID string) *ActivityStore {
	return &ActivityStore{dir: filepath.Join(userDir(dataDir, userID), activitiesDir)}
}

// LoadRecent returns activities from the most recent partitions (at most
// maxPartitions of them), sorted ascending by timestamp. A missing directory
// means no data yet; corrupt partitions are skipped and logged.
func (s *ActivityStore) LoadRecent(maxPartitions int) ([]types.Activity, error) {
	paths, err := recentPartitions(s.dir, maxPartitions)
	if err != nil {
		return nil, err
	}

	var activities []types.Activity
	for _, path := range paths {
		var partition []types.Activity
		if _, err := readJSONFile(path, &partition); err != nil {
			slog.Warn("skipping corrupt activity partition", "path", path, "err", err)
			continue
		}
		activities = append(activities, partition...)
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.Before(activities[j].Timestamp)
	})
	return activities, nil
}

// recentPartitions lists the newest maxPartitions *.json files in dir. The
// YYYY-MM-DD naming makes lexical order chronological.
func recentPartitions(dir string, maxPartitions int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list partitions in %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if maxPartitions > 0 && len(names) > maxPartitions {
		names = names[len(names)-maxPartitions:]
	}

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}
