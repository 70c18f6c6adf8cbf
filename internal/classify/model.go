package classify

import (
	"github.com/Kartikesh07/eDNA-Classification/internal/kmer"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Model is a trained linear classifier: the class of a feature row x is the
// argmax over classes of W·x + b.
type Model struct {
	// classes are the label codes of W's rows
	classes []int

	// weights is classes x features
	weights *mat.Dense

	// bias per class
	bias []float64

	// binary models store a single row; positive scores are classes[1]
	binary bool
}

func newModel(mf modelFile) (*Model, error) {
	var rows [][]float64
	var bias []float64
	switch mf.Kind {
	case "linear", "":
		rows, bias = mf.Coef, mf.Intercept
	case "multinomial_nb":
		rows, bias = mf.FeatureLogProb, mf.ClassLogPrior
	default:
		return nil, errors.Errorf("unknown model kind %q", mf.Kind)
	}

	if len(mf.Classes) == 0 {
		return nil, errors.New("model has no classes")
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("model has no weights")
	}

	binary := len(rows) == 1 && len(mf.Classes) == 2
	if !binary && len(rows) != len(mf.Classes) {
		return nil, errors.Errorf("model has %d weight rows for %d classes", len(rows), len(mf.Classes))
	}
	if len(bias) != len(rows) {
		return nil, errors.Errorf("model has %d intercepts for %d weight rows", len(bias), len(rows))
	}

	features := len(rows[0])
	weights := mat.NewDense(len(rows), features, nil)
	for i, row := range rows {
		if len(row) != features {
			return nil, errors.Errorf("weight row %d has %d features, row 0 has %d", i, len(row), features)
		}
		weights.SetRow(i, row)
	}

	return &Model{
		classes: append([]int(nil), mf.Classes...),
		weights: weights,
		bias:    append([]float64(nil), bias...),
		binary:  binary,
	}, nil
}

// Dim is the number of features the model expects per row.
func (m *Model) Dim() int {
	_, c := m.weights.Dims()
	return c
}

// Classes are the label codes the model can predict.
func (m *Model) Classes() []int {
	return append([]int(nil), m.classes...)
}

// Predict returns one class code per vector. Ties go to the class listed
// first, so predictions are deterministic.
func (m *Model) Predict(vectors []kmer.Vector) ([]int, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	features := m.Dim()
	x := mat.NewDense(len(vectors), features, nil)
	for i, vec := range vectors {
		if vec.Dim() != features {
			return nil, errors.Errorf("vector %d has %d features, the model expects %d", i, vec.Dim(), features)
		}
		for j, col := range vec.Indices {
			x.Set(i, col, vec.Values[j])
		}
	}

	var scores mat.Dense
	scores.Mul(x, m.weights.T())

	codes := make([]int, len(vectors))
	for i := range vectors {
		row := scores.RawRowView(i)
		if m.binary {
			if row[0]+m.bias[0] > 0 {
				codes[i] = m.classes[1]
			} else {
				codes[i] = m.classes[0]
			}
			continue
		}

		best := 0
		for c := 1; c < len(row); c++ {
			if row[c]+m.bias[c] > row[best]+m.bias[best] {
				best = c
			}
		}
		codes[i] = m.classes[best]
	}
	return codes, nil
}
