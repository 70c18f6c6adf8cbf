package otu

import (
	"log/slog"
	"os"

	"github.com/Kartikesh07/eDNA-Classification/internal/seqio"
)

// Tally is the abundance mass at each step of discovery. With nothing lost,
// Pooled, UniqueMass and OTUMass are all equal.
type Tally struct {
	Pooled     int
	Uniques    int
	UniqueMass int
	OTUs       int
	OTUMass    int
}

// Check counts the sequences in each file of disc and logs a warning for
// every place abundance wasn't conserved between steps.
func Check(disc Discovery) (Tally, error) {
	var t Tally
	var err error

	if t.Pooled, err = seqio.Count(disc.Pool); err != nil {
		return t, err
	}

	uniques, err := seqio.ReadSized(disc.Uniques)
	if err != nil {
		return t, err
	}
	t.Uniques, t.UniqueMass = len(uniques), seqio.Total(uniques)

	centroids, err := seqio.ReadSized(disc.Centroids)
	if err != nil {
		return t, err
	}
	t.OTUs, t.OTUMass = len(centroids), seqio.Total(centroids)

	if t.UniqueMass != t.Pooled {
		slog.Warn("dereplication changed abundance", "pooled", t.Pooled, "unique_mass", t.UniqueMass)
	}
	if t.OTUMass != t.UniqueMass {
		slog.Warn("clustering changed abundance", "unique_mass", t.UniqueMass, "otu_mass", t.OTUMass)
	}

	if _, err := os.Stat(disc.Membership); err != nil {
		return t, nil // membership is optional for the check
	}
	if err := checkMembership(disc.Membership, centroids); err != nil {
		return t, err
	}

	return t, nil
}

// checkMembership compares each cluster's summed member sizes to its centroid's
// cumulative abundance.
func checkMembership(path string, centroids []seqio.Sized) error {
	clusters, err := seqio.ReadMembership(path)
	if err != nil {
		return err
	}

	abundance := make(map[string]int, len(centroids))
	for _, c := range centroids {
		abundance[c.ID] = c.Size
	}

	for _, c := range clusters {
		id, _, err := seqio.ParseSize(c.Centroid)
		if err != nil {
			return err
		}
		members, err := c.MemberSize()
		if err != nil {
			return err
		}

		want, ok := abundance[id]
		if !ok {
			slog.Warn("cluster centroid missing from centroids file", "centroid", id)
			continue
		}
		if members != want {
			slog.Warn("cluster members don't sum to centroid abundance", "centroid", id, "members", members, "abundance", want)
		}
	}
	return nil
}
