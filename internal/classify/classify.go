// Package classify assigns a taxon label to each OTU sequence using a
// pre-trained k-mer classifier.
//
// The classifier, its k-mer vocabulary and its label table are produced by a
// separate training process and shipped together in a model directory (see
// Load). Classification is deterministic: the same artifacts and sequences
// always give the same labels.
package classify

import (
	"log/slog"

	"github.com/Kartikesh07/eDNA-Classification/internal/kmer"
	"github.com/pkg/errors"
)

// Labels is the label-code -> taxon name table the model was trained with.
type Labels struct {
	names []string
}

// NewLabels makes a table where code i is names[i].
func NewLabels(names []string) (*Labels, error) {
	if len(names) == 0 {
		return nil, errors.New("empty label table")
	}
	return &Labels{names: append([]string(nil), names...)}, nil
}

// Decode returns the taxon name of code.
func (l *Labels) Decode(code int) (string, error) {
	if code < 0 || code >= len(l.names) {
		return "", &UnknownLabelError{Code: code, Known: len(l.names)}
	}
	return l.names[code], nil
}

// Len is the number of labels in the table.
func (l *Labels) Len() int {
	return len(l.names)
}

// Classifier featurizes, predicts and decodes.
type Classifier struct {
	artifacts *Artifacts
	k         int
}

// New returns a Classifier that counts k-mers of width k. k has to match the
// width of the vocabulary's k-mers.
func New(artifacts *Artifacts, k int) (*Classifier, error) {
	if vk := artifacts.Vocabulary.K(); vk != k {
		return nil, &ModelLoadError{
			Artifact: VocabularyFile,
			Err:      errors.Errorf("vocabulary k-mers are %d wide, configured k is %d", vk, k),
		}
	}
	return &Classifier{artifacts: artifacts, k: k}, nil
}

// Featurize turns each sequence into a vector over the vocabulary.
func (c *Classifier) Featurize(seqs []string) []kmer.Vector {
	vectors := make([]kmer.Vector, len(seqs))
	for i, s := range seqs {
		vectors[i] = c.artifacts.Vocabulary.Project(kmer.Count(s, c.k))
	}
	return vectors
}

// Classify returns the taxon label of every sequence, in order.
func (c *Classifier) Classify(seqs []string) ([]string, error) {
	vectors := c.Featurize(seqs)

	empty := 0
	for _, v := range vectors {
		if len(v.Indices) == 0 {
			empty++
		}
	}
	if empty > 0 {
		slog.Warn("sequences without any vocabulary k-mers", "count", empty, "of", len(seqs))
	}

	codes, err := c.artifacts.Model.Predict(vectors)
	if err != nil {
		return nil, errors.Wrap(err, "failed to predict")
	}

	labels := make([]string, len(codes))
	for i, code := range codes {
		if labels[i], err = c.artifacts.Labels.Decode(code); err != nil {
			return nil, err
		}
	}
	return labels, nil
}
