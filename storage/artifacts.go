package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dealradar/models"
	"dealradar/utils"
)

// Artifact file names. Fixed: the static page fetches them by name.
const (
	AlertsFile  = "alerts.json"
	DealsFile   = "top_deals.json"
	LastRunFile = "last_run.json"
)

const tmpSuffix = ".tmp"

// JSONWriter writes the run artifacts into the output directory. All files
// are staged as temporaries and renamed into place only once every stage
// succeeded, so a reader never sees a half-written set and a failed run
// leaves the previous artifacts exactly as they were.
type JSONWriter struct {
	dir    string
	logger *utils.Logger
}

// NewJSONWriter creates the output directory if needed.
func NewJSONWriter(dir string, logger *utils.Logger) (*JSONWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: create output dir %q: %w", dir, err)
	}
	return &JSONWriter{dir: dir, logger: logger}, nil
}

// WriteArtifacts stages alerts.json, top_deals.json and last_run.json, then
// commits them with renames.
func (w *JSONWriter) WriteArtifacts(alerts, deals []*models.ScoredListing, summary *models.RunSummary) error {
	// Both listing files are promised as JSON arrays, never null.
	if alerts == nil {
		alerts = []*models.ScoredListing{}
	}
	if deals == nil {
		deals = []*models.ScoredListing{}
	}

	files := []struct {
		name string
		data any
	}{
		{AlertsFile, alerts},
		{DealsFile, deals},
		{LastRunFile, summary},
	}

	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp := filepath.Join(w.dir, f.name+tmpSuffix)
		if err := writeJSON(tmp, f.data); err != nil {
			cleanup()
			return fmt.Errorf("artifacts: stage %s: %w", f.name, err)
		}
		staged = append(staged, tmp)
	}

	for _, f := range files {
		tmp := filepath.Join(w.dir, f.name+tmpSuffix)
		if err := os.Rename(tmp, filepath.Join(w.dir, f.name)); err != nil {
			cleanup()
			return fmt.Errorf("artifacts: commit %s: %w", f.name, err)
		}
	}

	w.logger.Info("[artifacts] Wrote %s, %s and %s to %s", AlertsFile, DealsFile, LastRunFile, w.dir)
	return nil
}

// writeJSON marshals v with indentation and writes it in one call.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
