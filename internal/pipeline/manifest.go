// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/keepconv/pkg/types"
)

// manifestFile is the run record written into the Markdown output root.
const manifestFile = "manifest.yaml"

// Manifest records one conversion run: identity, timing, counts, and the
// outcome of every note in the run.
type Manifest struct {
	RunID      string       `yaml:"run_id"`
	StartedAt  time.Time    `yaml:"started_at"`
	FinishedAt time.Time    `yaml:"finished_at"`
	Converted  int          `yaml:"converted"`
	Skipped    int          `yaml:"skipped"`
	Failed     int          `yaml:"failed"`
	Notes      []NoteStatus `yaml:"notes"`
}

func newManifest() *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

// finish stamps the end time and tallies the per-note outcomes.
func (m *Manifest) finish(statuses []NoteStatus) {
	m.FinishedAt = time.Now().UTC()
	m.Notes = statuses
	for _, st := range statuses {
		switch st.Status {
		case types.ConversionDone:
			m.Converted++
		case types.ConversionSkipped:
			m.Skipped++
		case types.ConversionFailed:
			m.Failed++
		}
	}
}

func (m *Manifest) summary() Summary {
	return Summary{Converted: m.Converted, Skipped: m.Skipped, Failed: m.Failed}
}

// write persists the manifest as YAML under dir.
func (m *Manifest) write(dir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(dir, manifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
