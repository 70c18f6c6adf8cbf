package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// ManifestName is the run manifest's file name for a sample.
func ManifestName(sample string) string { return sample + "_run.json" }

// Timing is how long one stage took.
type Timing struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Manifest describes a finished run: what went in, what came out, and how long
// each stage took.
type Manifest struct {
	RunID      string    `json:"run_id"`
	SampleName string    `json:"sample_name"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`

	ForwardReads string `json:"forward_reads,omitempty"`
	ReverseReads string `json:"reverse_reads,omitempty"`
	ModelDir     string `json:"model_dir"`

	Centroids     string `json:"centroids"`
	FullReport    string `json:"full_report"`
	SummaryReport string `json:"summary_report"`

	OTUs           int      `json:"otus"`
	TotalAbundance int      `json:"total_abundance"`
	Timings        []Timing `json:"timings"`
}

// WriteManifest writes m as indented JSON to path. It's written to a temporary
// file in the same directory first and renamed, so a reader never sees a
// partial manifest.
func WriteManifest(path string, m Manifest) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp manifest")
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to encode manifest")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to close temp manifest")
	}

	return errors.Wrapf(os.Rename(tmp.Name(), path), "failed to write %s", path)
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, errors.Wrapf(err, "failed to read %s", path)
	}
	return m, errors.Wrapf(json.Unmarshal(data, &m), "failed to decode %s", path)
}
