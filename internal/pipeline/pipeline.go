// Package pipeline runs the stages that turn a sample's paired reads into a
// taxonomic abundance report: clean, discover, classify.
//
// Each stage takes the RunContext left by the previous one and returns an
// updated copy. The run stops at the first failing stage and returns a
// *StageError naming it. Files written by a failed run are left in place.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Kartikesh07/eDNA-Classification/config"
	"github.com/Kartikesh07/eDNA-Classification/internal/clean"
	"github.com/Kartikesh07/eDNA-Classification/internal/otu"
	"github.com/Kartikesh07/eDNA-Classification/internal/report"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Stage names, in run order.
const (
	Clean    = "clean"
	Discover = "discover"
	Classify = "classify"
)

// RunContext is everything a run has produced so far.
type RunContext struct {
	// RunID is unique per run and goes in the manifest
	RunID string

	// Started is when the run started
	Started time.Time

	SampleName   string
	ForwardReads string
	ReverseReads string
	ModelDir     string

	// OutputDir is where reports go
	OutputDir string

	// TempDir is where intermediate files go
	TempDir string

	// set by the clean stage
	Trimmed clean.Trimmed

	// set by the discover stage
	Discovery otu.Discovery

	// Centroids is the OTU FASTA the classify stage reads. The discover stage
	// sets it, a reclassification sets it up front.
	Centroids string

	// set by the classify stage
	FullReport     string
	SummaryReport  string
	OTUs           int
	TotalAbundance int

	// Timings of each finished stage, in run order
	Timings []report.Timing
}

// NewRunContext starts a run for the sample and settings in c.
func NewRunContext(c config.Config) RunContext {
	return RunContext{
		RunID:        uuid.NewString(),
		Started:      time.Now(),
		SampleName:   c.SampleName,
		ForwardReads: c.ForwardReads,
		ReverseReads: c.ReverseReads,
		ModelDir:     c.ModelDir,
		OutputDir:    c.OutputDir,
		TempDir:      c.TempDir(),
		Centroids:    c.OTUs,
	}
}

// ManifestPath is where the run manifest is written.
func (rc RunContext) ManifestPath() string {
	return filepath.Join(rc.OutputDir, report.ManifestName(rc.SampleName))
}

// Stage is one step of the pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, rc RunContext) (RunContext, error)
}

// Pipeline is the fixed list of stages.
type Pipeline struct {
	stages []Stage
}

// New returns the clean, discover, classify pipeline for c. Tools are resolved
// when the stage that needs them starts.
func New(c config.Config, tools Toolbox) *Pipeline {
	return &Pipeline{stages: []Stage{
		&cleanStage{tools: tools, trim: c.Trim},
		&discoverStage{tools: tools, cluster: c.Cluster},
		&classifyStage{kmerSize: c.Classify.KmerSize},
	}}
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run every stage in order.
func (p *Pipeline) Run(ctx context.Context, rc RunContext) (RunContext, error) {
	return p.RunFrom(ctx, p.stages[0].Name(), rc)
}

// RunFrom runs the stages from the one named first through the last. The run
// is only successful if the summary report exists once the last stage is done.
func (p *Pipeline) RunFrom(ctx context.Context, first string, rc RunContext) (RunContext, error) {
	start := -1
	for i, s := range p.stages {
		if s.Name() == first {
			start = i
			break
		}
	}
	if start < 0 {
		return rc, errors.Errorf("no stage named %q", first)
	}

	if err := os.MkdirAll(rc.TempDir, 0755); err != nil {
		return rc, &StageError{Stage: first, Err: errors.Wrap(err, "failed to create working directories")}
	}

	for _, s := range p.stages[start:] {
		if err := ctx.Err(); err != nil {
			return rc, &StageError{Stage: s.Name(), Err: err}
		}

		slog.Info("starting stage", "stage", s.Name(), "run", rc.RunID)
		began := time.Now()

		next, err := s.Run(ctx, rc)
		if err != nil {
			return next, &StageError{Stage: s.Name(), Err: err}
		}

		elapsed := time.Since(began)
		next.Timings = append(next.Timings, report.Timing{Stage: s.Name(), Duration: elapsed})
		slog.Info("finished stage", "stage", s.Name(), "elapsed", elapsed.Round(time.Millisecond))
		rc = next
	}

	last := p.stages[len(p.stages)-1].Name()
	if rc.SummaryReport == "" {
		return rc, &StageError{Stage: last, Err: errors.New("no summary report was written")}
	}
	if _, err := os.Stat(rc.SummaryReport); err != nil {
		return rc, &StageError{Stage: last, Err: errors.Wrap(err, "summary report missing")}
	}

	if err := writeManifest(rc); err != nil {
		return rc, err
	}
	return rc, nil
}

func writeManifest(rc RunContext) error {
	return report.WriteManifest(rc.ManifestPath(), report.Manifest{
		RunID:          rc.RunID,
		SampleName:     rc.SampleName,
		Started:        rc.Started,
		Finished:       time.Now(),
		ForwardReads:   rc.ForwardReads,
		ReverseReads:   rc.ReverseReads,
		ModelDir:       rc.ModelDir,
		Centroids:      rc.Centroids,
		FullReport:     rc.FullReport,
		SummaryReport:  rc.SummaryReport,
		OTUs:           rc.OTUs,
		TotalAbundance: rc.TotalAbundance,
		Timings:        rc.Timings,
	})
}
