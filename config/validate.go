package config

import (
	"fmt"
	"os"
	"strings"
)

// InputValidationError is returned when a required parameter is missing or
// malformed. It's raised before any stage runs.
type InputValidationError struct {
	Param  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid --%s: %s", e.Param, e.Reason)
}

// Validate checks the settings for a full run from raw reads.
func (c Config) Validate() error {
	if err := requireFile("forward-reads", c.ForwardReads); err != nil {
		return err
	}
	if err := requireFile("reverse-reads", c.ReverseReads); err != nil {
		return err
	}
	return c.validateCommon()
}

// ValidateClassify checks the settings for reclassifying an existing centroid
// FASTA.
func (c Config) ValidateClassify() error {
	if err := requireFile("otus", c.OTUs); err != nil {
		return err
	}
	return c.validateCommon()
}

func (c Config) validateCommon() error {
	if c.OutputDir == "" {
		return &InputValidationError{"output-dir", "required"}
	}
	if info, err := os.Stat(c.OutputDir); err == nil && !info.IsDir() {
		return &InputValidationError{"output-dir", c.OutputDir + " is a file"}
	}

	switch {
	case c.SampleName == "":
		return &InputValidationError{"sample-name", "required"}
	case strings.ContainsAny(c.SampleName, `/\`):
		return &InputValidationError{"sample-name", "can't contain a path separator"}
	case c.ModelDir == "":
		return &InputValidationError{"model-dir", "required"}
	case c.Trim.Quality < 0:
		return &InputValidationError{"quality-cutoff", "can't be negative"}
	case c.Trim.MinLength < 0:
		return &InputValidationError{"min-length", "can't be negative"}
	case c.Cluster.Identity <= 0 || c.Cluster.Identity > 1:
		return &InputValidationError{"identity", fmt.Sprintf("%v isn't in (0, 1]", c.Cluster.Identity)}
	case c.Classify.KmerSize < 1:
		return &InputValidationError{"kmer-size", "has to be at least 1"}
	}
	return nil
}

func requireFile(param, path string) error {
	if path == "" {
		return &InputValidationError{param, "required"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &InputValidationError{param, err.Error()}
	}
	if info.IsDir() {
		return &InputValidationError{param, path + " is a directory"}
	}
	return nil
}
