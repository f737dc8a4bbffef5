package store

import (
	"log/slog"
	"path/filepath"

	"github.com/entrhq/retrace/pkg/types"
)

// MetadataStore persists the single per-user GenerationMetadata record that
// bounds incremental reprocessing.
type MetadataStore struct {
	path   string
	userID string
}

// NewMetadataStore creates a store over dataDir/<userID>/insights-metadata.json.
func NewMetadataStore(dataDir, userID string) *MetadataStore {
	return &MetadataStore{
		path:   filepath.Join(userDir(dataDir, userID), metadataFile),
		userID: userID,
	}
}

// Load returns the stored metadata, or a zero-valued record (forcing a full
// reprocess) when the file is missing or unreadable.
func (s *MetadataStore) Load() (*types.GenerationMetadata, error) {
	var meta types.GenerationMetadata
	found, err := readJSONFile(s.path, &meta)
	if err != nil {
		slog.Warn("treating unreadable metadata file as empty", "path", s.path, "err", err)
		found = false
	}
	if !found {
		return &types.GenerationMetadata{UserID: s.userID}, nil
	}
	return &meta, nil
}

// Save overwrites the metadata record.
func (s *MetadataStore) Save(meta *types.GenerationMetadata) error {
	return writeJSONFile(s.path, meta)
}
