package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestName is the file recording input hashes in the output directory.
const ManifestName = ".kbprep-manifest.json"

// Manifest records which inputs an output directory was built from, so
// unchanged files can be skipped on the next run.
type Manifest struct {
	// RunID identifies the run that last wrote the manifest.
	RunID string `json:"run_id"`
	// GeneratedAt is when the manifest was written.
	GeneratedAt time.Time `json:"generated_at"`
	// Files maps relative input paths to sha256 content hashes.
	Files map[string]string `json:"files"`
}

// loadManifest reads the manifest from dir. A missing or corrupt manifest
// yields an empty one; the worst case is a full re-run.
func loadManifest(dir string) Manifest {
	empty := Manifest{Files: make(map[string]string)}

	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return empty
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return empty
	}
	if m.Files == nil {
		m.Files = make(map[string]string)
	}
	return m
}

func (m Manifest) save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
