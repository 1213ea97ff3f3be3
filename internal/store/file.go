package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

// FileSource reads a snapshot from a YAML or JSON file on every Load, so
// edits to the file are picked up without a restart.
type FileSource struct {
	path string
}

// NewFileSource creates a file source. The format follows the extension:
// .json is JSON, anything else is YAML.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load parses and validates the snapshot file.
func (f *FileSource) Load(_ context.Context) (models.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("reading snapshot %s: %w", f.path, err)
	}
	snap, err := DecodeSnapshot(data, filepath.Ext(f.path))
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("parsing snapshot %s: %w", f.path, err)
	}
	return snap, nil
}

// Close is a no-op for file sources.
func (f *FileSource) Close() error {
	return nil
}

// DecodeSnapshot parses data as JSON when ext is ".json" and as YAML
// otherwise, then validates it.
func DecodeSnapshot(data []byte, ext string) (models.Snapshot, error) {
	var snap models.Snapshot
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &snap); err != nil {
			return models.Snapshot{}, fmt.Errorf("decoding json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return models.Snapshot{}, fmt.Errorf("decoding yaml: %w", err)
		}
	}
	if err := snap.Validate(); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}
