// Package classifytest writes small model directories for tests.
package classifytest

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Bundle is the contents of a model directory. Any nil field's file isn't
// written, which is how tests simulate a missing artifact.
type Bundle struct {
	Model      map[string]interface{}
	Vocabulary map[string]interface{}
	Labels     map[string]interface{}
}

// Rotifera is a bundle that calls any sequence containing ACGTTG or TTTGGG
// "Rotifera" and any sequence containing only AAAAAA "Arthropoda".
func Rotifera() Bundle {
	return Bundle{
		Model: map[string]interface{}{
			"kind":    "linear",
			"classes": []int{0, 1},
			"coef": [][]float64{
				{0, 0, 1}, // Arthropoda
				{1, 1, 0}, // Rotifera
			},
			"intercept": []float64{0, 0},
		},
		Vocabulary: map[string]interface{}{
			"vocabulary": map[string]int{"ACGTTG": 0, "TTTGGG": 1, "AAAAAA": 2},
		},
		Labels: map[string]interface{}{
			"classes": []string{"Arthropoda", "Rotifera"},
		},
	}
}

// Write writes b into dir with the file names classify.Load expects.
func Write(dir string, b Bundle) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	files := []struct {
		name string
		v    map[string]interface{}
	}{
		{"tax_classifier.json", b.Model},
		{"kmer_vectorizer.json", b.Vocabulary},
		{"label_encoder.json", b.Labels},
	}
	for _, f := range files {
		if f.v == nil {
			continue
		}
		data, err := json.Marshal(f.v)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, f.name), data, 0644); err != nil {
			return err
		}
	}
	return nil
}
