// Package kmer turns sequences into k-mer count features.
package kmer

import "sort"

// DefaultK is the k-mer width the classifier was trained with.
const DefaultK = 6

// Counts is a sparse k-mer count map with a deterministic key order.
type Counts struct {
	counts map[string]int
}

// Count slides a window of width k, stride 1, over seq and counts every
// substring. K-mers are case-sensitive and aren't canonicalized (a k-mer and
// its reverse complement are different features).
//
// A sequence shorter than k has no k-mers; that's an empty Counts, not an error.
func Count(seq string, k int) Counts {
	c := Counts{counts: make(map[string]int)}
	if k < 1 {
		return c
	}
	for i := 0; i+k <= len(seq); i++ {
		c.counts[seq[i:i+k]]++
	}
	return c
}

// Get returns the count of kmer, 0 if absent.
func (c Counts) Get(kmer string) int {
	return c.counts[kmer]
}

// Len is the number of distinct k-mers.
func (c Counts) Len() int {
	return len(c.counts)
}

// Total is the number of k-mer windows, ie: max(0, L-k+1).
func (c Counts) Total() (total int) {
	for _, n := range c.counts {
		total += n
	}
	return
}

// Keys returns the distinct k-mers in ascending lexical order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c.counts))
	for k := range c.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Each calls fn for every k-mer and its count, in Keys() order.
func (c Counts) Each(fn func(kmer string, count int)) {
	for _, k := range c.Keys() {
		fn(k, c.counts[k])
	}
}
