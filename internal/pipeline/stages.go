package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/Kartikesh07/eDNA-Classification/config"
	"github.com/Kartikesh07/eDNA-Classification/internal/classify"
	"github.com/Kartikesh07/eDNA-Classification/internal/clean"
	"github.com/Kartikesh07/eDNA-Classification/internal/otu"
	"github.com/Kartikesh07/eDNA-Classification/internal/report"
	"github.com/Kartikesh07/eDNA-Classification/internal/tool"
	"github.com/pkg/errors"
)

// Toolbox resolves the external tools. Each is resolved when the first stage
// that needs it starts, so a missing vsearch fails the discover stage.
type Toolbox interface {
	Trimmer() (tool.Runner, error)
	Clusterer() (tool.Runner, error)
}

// Tools is the Toolbox of real executables.
type Tools struct {
	config.ToolConfig
}

// Trimmer looks cutadapt up on the PATH.
func (t Tools) Trimmer() (tool.Runner, error) {
	c, err := tool.Lookup("cutadapt", t.Cutadapt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Clusterer pins the packaged vsearch.
func (t Tools) Clusterer() (tool.Runner, error) {
	c, err := tool.Pin("vsearch", t.Vsearch)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type cleanStage struct {
	tools Toolbox
	trim  config.TrimConfig
}

func (s *cleanStage) Name() string { return Clean }

func (s *cleanStage) Run(ctx context.Context, rc RunContext) (RunContext, error) {
	trimmer, err := s.tools.Trimmer()
	if err != nil {
		return rc, err
	}

	c := clean.New(trimmer)
	c.Quality = s.trim.Quality
	c.MinLength = s.trim.MinLength

	trimmed, err := c.Clean(ctx, rc.ForwardReads, rc.ReverseReads, rc.TempDir)
	rc.Trimmed = trimmed
	return rc, err
}

type discoverStage struct {
	tools   Toolbox
	cluster config.ClusterConfig
}

func (s *discoverStage) Name() string { return Discover }

func (s *discoverStage) Run(ctx context.Context, rc RunContext) (RunContext, error) {
	clusterer, err := s.tools.Clusterer()
	if err != nil {
		return rc, err
	}

	d := otu.New(clusterer)
	d.Identity = s.cluster.Identity

	disc, err := d.Discover(ctx, rc.Trimmed.Forward, rc.Trimmed.Reverse, rc.TempDir)
	rc.Discovery = disc
	if err != nil {
		return rc, err
	}
	rc.Centroids = disc.Centroids
	return rc, nil
}

type classifyStage struct {
	kmerSize int
}

func (s *classifyStage) Name() string { return Classify }

// Run parses the centroids before loading the model, so a malformed
// abundance never reaches inference.
func (s *classifyStage) Run(ctx context.Context, rc RunContext) (RunContext, error) {
	otus, err := otu.Read(rc.Centroids)
	if err != nil {
		return rc, err
	}

	artifacts, err := classify.Load(rc.ModelDir)
	if err != nil {
		return rc, err
	}
	classifier, err := classify.New(artifacts, s.kmerSize)
	if err != nil {
		return rc, err
	}

	seqs := make([]string, len(otus))
	for i, o := range otus {
		seqs[i] = o.Sequence
	}
	labels, err := classifier.Classify(seqs)
	if err != nil {
		return rc, err
	}

	records, err := report.Build(otus, labels)
	if err != nil {
		return rc, err
	}

	rc.FullReport = filepath.Join(rc.OutputDir, report.FullName(rc.SampleName))
	if err := report.WriteFull(rc.FullReport, records); err != nil {
		return rc, err
	}

	summary := report.Summarize(records)
	rc.SummaryReport = filepath.Join(rc.OutputDir, report.SummaryName(rc.SampleName))
	if err := report.WriteSummary(rc.SummaryReport, summary); err != nil {
		return rc, err
	}

	rc.OTUs = len(otus)
	rc.TotalAbundance = summary.Total()
	if full := otu.Abundance(otus); full != rc.TotalAbundance {
		return rc, errors.Errorf("summary abundance %d doesn't match the full report's %d", rc.TotalAbundance, full)
	}

	slog.Info("classified OTUs", "otus", rc.OTUs, "classes", len(summary), "abundance", rc.TotalAbundance)
	return rc, nil
}
