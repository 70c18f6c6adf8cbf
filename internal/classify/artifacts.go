package classify

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Kartikesh07/eDNA-Classification/internal/kmer"
	"github.com/pkg/errors"
)

// Artifact file names inside a model directory.
const (
	ModelFile      = "tax_classifier.json"
	VocabularyFile = "kmer_vectorizer.json"
	LabelsFile     = "label_encoder.json"
)

// Artifacts are the three pre-trained pieces a classification needs. They're
// loaded once per run and never modified.
type Artifacts struct {
	Model      *Model
	Vocabulary *kmer.Vocabulary
	Labels     *Labels
}

// modelFile is the serialized form of a trained model.
//
// "linear" models score with coef/intercept (logistic regression, linear SVM).
// "multinomial_nb" models score with feature_log_prob/class_log_prior, which is
// the same arithmetic with different names.
type modelFile struct {
	Kind           string      `json:"kind"`
	Classes        []int       `json:"classes"`
	Coef           [][]float64 `json:"coef"`
	Intercept      []float64   `json:"intercept"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
}

type vocabularyFile struct {
	Vocabulary map[string]int `json:"vocabulary"`
}

type labelsFile struct {
	Classes []string `json:"classes"`
}

// Load reads the model, vocabulary and label table from dir. Any of them
// missing, undecodable, or inconsistent with the others is a *ModelLoadError.
func Load(dir string) (*Artifacts, error) {
	var mf modelFile
	if err := readJSON(dir, ModelFile, &mf); err != nil {
		return nil, err
	}
	var vf vocabularyFile
	if err := readJSON(dir, VocabularyFile, &vf); err != nil {
		return nil, err
	}
	var lf labelsFile
	if err := readJSON(dir, LabelsFile, &lf); err != nil {
		return nil, err
	}

	vocab, err := kmer.NewVocabulary(vf.Vocabulary)
	if err != nil {
		return nil, loadErr(dir, VocabularyFile, err)
	}
	if vocab.Dim() == 0 {
		return nil, loadErr(dir, VocabularyFile, errors.New("empty vocabulary"))
	}

	model, err := newModel(mf)
	if err != nil {
		return nil, loadErr(dir, ModelFile, err)
	}
	if model.Dim() != vocab.Dim() {
		return nil, loadErr(dir, ModelFile, errors.Errorf(
			"model has %d features but the vocabulary has %d", model.Dim(), vocab.Dim()))
	}

	labels, err := NewLabels(lf.Classes)
	if err != nil {
		return nil, loadErr(dir, LabelsFile, err)
	}

	return &Artifacts{Model: model, Vocabulary: vocab, Labels: labels}, nil
}

func readJSON(dir, name string, v interface{}) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return loadErr(dir, name, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return loadErr(dir, name, errors.Wrap(err, "failed to decode"))
	}
	return nil
}

func loadErr(dir, name string, err error) error {
	return &ModelLoadError{Artifact: name, Path: filepath.Join(dir, name), Err: err}
}
