// Package clean quality and length trims paired-end reads with cutadapt.
package clean

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/Kartikesh07/eDNA-Classification/internal/seqio"
	"github.com/Kartikesh07/eDNA-Classification/internal/tool"
	"github.com/pkg/errors"
)

const (
	// DefaultQuality is the 3' quality cutoff passed to cutadapt -q
	DefaultQuality = 20

	// DefaultMinLength is the minimum read length kept, cutadapt -m
	DefaultMinLength = 150

	forwardName = "reads_1.trimmed.fastq"
	reverseName = "reads_2.trimmed.fastq"
)

// Trimmed is the pair of FASTQ files left after trimming. Mate order is the
// same as the input's.
type Trimmed struct {
	Forward string
	Reverse string
}

// Cleaner trims read pairs by calling the trimming tool.
//
// Whether a failing mate drops its partner is cutadapt's decision (its
// --pair-filter default), not something enforced here.
type Cleaner struct {
	// Trimmer is cutadapt (or a stand-in)
	Trimmer tool.Runner

	// Quality cutoff for trimming low-quality ends
	Quality int

	// MinLength of reads to keep after trimming
	MinLength int
}

// New returns a Cleaner with the default cutoffs.
func New(trimmer tool.Runner) *Cleaner {
	return &Cleaner{
		Trimmer:   trimmer,
		Quality:   DefaultQuality,
		MinLength: DefaultMinLength,
	}
}

// Clean trims forward and reverse, writing the trimmed pair into outDir.
func (c *Cleaner) Clean(ctx context.Context, forward, reverse, outDir string) (Trimmed, error) {
	trimmed := Trimmed{
		Forward: filepath.Join(outDir, forwardName),
		Reverse: filepath.Join(outDir, reverseName),
	}

	// https://cutadapt.readthedocs.io/en/stable/guide.html#paired-end-reads
	_, err := c.Trimmer.Run(ctx,
		"-q", strconv.Itoa(c.Quality),
		"-m", strconv.Itoa(c.MinLength),
		"-o", trimmed.Forward,
		"-p", trimmed.Reverse,
		forward,
		reverse,
	)
	if err != nil {
		return trimmed, errors.Wrapf(err, "failed to trim %s and %s", forward, reverse)
	}

	c.report(forward, trimmed.Forward)

	return trimmed, nil
}

// report logs how many mates survived. It's informational only, a count
// failure never fails the stage.
func (c *Cleaner) report(in, out string) {
	before, err := seqio.Count(in)
	if err != nil {
		slog.Debug("could not count input reads", "path", in, "error", err)
		return
	}
	after, err := seqio.Count(out)
	if err != nil {
		slog.Debug("could not count trimmed reads", "path", out, "error", err)
		return
	}

	slog.Info("trimmed reads", "input_pairs", before, "kept_pairs", after, "dropped", before-after)
}
