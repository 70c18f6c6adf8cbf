package kmer

import (
	"sort"

	"github.com/pkg/errors"
)

// Vocabulary is the fixed k-mer -> feature column mapping learned when the
// classifier was trained. Lookups are O(1).
type Vocabulary struct {
	index map[string]int
	k     int
}

// NewVocabulary builds a Vocabulary from a k-mer -> column map. Columns must be
// 0..len(index)-1 with no repeats, and every k-mer must have the same width.
func NewVocabulary(index map[string]int) (*Vocabulary, error) {
	seen := make([]bool, len(index))
	k := -1
	for kmer, col := range index {
		if col < 0 || col >= len(index) {
			return nil, errors.Errorf("column %d of %q is outside 0..%d", col, kmer, len(index)-1)
		}
		if seen[col] {
			return nil, errors.Errorf("column %d is used by more than one k-mer", col)
		}
		seen[col] = true

		if k == -1 {
			k = len(kmer)
		} else if len(kmer) != k {
			return nil, errors.Errorf("k-mer %q isn't %d wide like the rest of the vocabulary", kmer, k)
		}
	}

	copied := make(map[string]int, len(index))
	for kmer, col := range index {
		copied[kmer] = col
	}
	return &Vocabulary{index: copied, k: k}, nil
}

// Dim is the number of feature columns.
func (v *Vocabulary) Dim() int {
	return len(v.index)
}

// K is the k-mer width of the vocabulary, 0 for an empty vocabulary.
func (v *Vocabulary) K() int {
	if v.k < 0 {
		return 0
	}
	return v.k
}

// Column returns the feature column of kmer.
func (v *Vocabulary) Column(kmer string) (int, bool) {
	col, ok := v.index[kmer]
	return col, ok
}

// Project maps counts onto the vocabulary's columns. K-mers that aren't in
// the vocabulary are dropped.
func (v *Vocabulary) Project(counts Counts) Vector {
	vec := Vector{dim: v.Dim()}
	counts.Each(func(kmer string, n int) {
		if col, ok := v.index[kmer]; ok {
			vec.Indices = append(vec.Indices, col)
			vec.Values = append(vec.Values, float64(n))
		}
	})
	vec.sort()
	return vec
}

// Vector is a sparse feature vector with ascending Indices.
type Vector struct {
	Indices []int
	Values  []float64
	dim     int
}

// Dim is the full (dense) width of the vector.
func (vec Vector) Dim() int {
	return vec.dim
}

// Dense expands the vector to its full width.
func (vec Vector) Dense() []float64 {
	dense := make([]float64, vec.dim)
	for i, col := range vec.Indices {
		dense[col] = vec.Values[i]
	}
	return dense
}

func (vec *Vector) sort() {
	sort.Sort(byIndex{vec})
}

type byIndex struct{ *Vector }

func (b byIndex) Len() int           { return len(b.Indices) }
func (b byIndex) Less(i, j int) bool { return b.Indices[i] < b.Indices[j] }
func (b byIndex) Swap(i, j int) {
	b.Indices[i], b.Indices[j] = b.Indices[j], b.Indices[i]
	b.Values[i], b.Values[j] = b.Values[j], b.Values[i]
}
