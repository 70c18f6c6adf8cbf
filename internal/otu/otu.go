// Package otu discovers operational taxonomic units (OTUs) from trimmed reads.
//
// Reads are pooled, dereplicated into unique sequences with a multiplicity,
// then greedily clustered by vsearch: uniques are visited largest first and
// each either joins the first cluster whose centroid is within the identity
// threshold or seeds a new cluster.
package otu

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/Kartikesh07/eDNA-Classification/internal/seqio"
	"github.com/Kartikesh07/eDNA-Classification/internal/tool"
	"github.com/pkg/errors"
)

// DefaultIdentity is the minimum pairwise identity for a unique to join a cluster.
const DefaultIdentity = 0.97

const (
	poolName       = "all.trimmed.fastq"
	uniquesName    = "unique_sequences.fasta"
	centroidsName  = "otus.fasta"
	membershipName = "clusters.uc"
)

// OTU is a cluster of sequences, represented by its centroid.
type OTU struct {
	// ID of the centroid, its header without the size annotation
	ID string

	// Sequence of the centroid
	Sequence string

	// Abundance is the summed multiplicity of every unique in the cluster
	Abundance int
}

// Discovery are the files written while discovering OTUs.
type Discovery struct {
	// Pool is every forward read followed by every reverse read
	Pool string

	// Uniques is the dereplicated pool, ";size=" annotated
	Uniques string

	// Centroids has one record per OTU, ";size=" is cumulative abundance
	Centroids string

	// Membership is the vsearch UC file mapping uniques to clusters
	Membership string
}

// Discoverer pools, dereplicates and clusters reads with vsearch.
type Discoverer struct {
	// Clusterer is vsearch (or a stand-in)
	Clusterer tool.Runner

	// Identity threshold for clustering, 0-1
	Identity float64
}

// New returns a Discoverer at the default identity threshold.
func New(clusterer tool.Runner) *Discoverer {
	return &Discoverer{Clusterer: clusterer, Identity: DefaultIdentity}
}

// Discover runs pooling, dereplication and clustering in order, writing every
// intermediate file into outDir.
func (d *Discoverer) Discover(ctx context.Context, forward, reverse, outDir string) (Discovery, error) {
	disc := Discovery{
		Pool:       filepath.Join(outDir, poolName),
		Uniques:    filepath.Join(outDir, uniquesName),
		Centroids:  filepath.Join(outDir, centroidsName),
		Membership: filepath.Join(outDir, membershipName),
	}

	if err := seqio.Concat(disc.Pool, forward, reverse); err != nil {
		return disc, errors.Wrap(err, "failed to pool trimmed reads")
	}

	if err := d.Dereplicate(ctx, disc.Pool, disc.Uniques); err != nil {
		return disc, err
	}

	if err := d.Cluster(ctx, disc.Uniques, disc.Centroids, disc.Membership); err != nil {
		return disc, err
	}

	if tally, err := Check(disc); err != nil {
		slog.Warn("could not verify OTU abundances", "error", err)
	} else {
		slog.Info("discovered OTUs", "pooled", tally.Pooled, "uniques", tally.Uniques, "otus", tally.OTUs)
	}

	return disc, nil
}

// Dereplicate collapses identical sequences of in into uniques with a
// ";size=" multiplicity, sorted by decreasing multiplicity.
func (d *Discoverer) Dereplicate(ctx context.Context, in, out string) error {
	_, err := d.Clusterer.Run(ctx,
		"--fastx_uniques", in,
		"--sizeout",
		"--fastaout", out,
	)
	return errors.Wrapf(err, "failed to dereplicate %s", in)
}

// Cluster greedily clusters the uniques at the Discoverer's identity.
//
// --sizein makes vsearch weigh uniques by their multiplicity and --sizeout
// makes the centroid headers carry the cluster's cumulative abundance.
func (d *Discoverer) Cluster(ctx context.Context, uniques, centroids, membership string) error {
	_, err := d.Clusterer.Run(ctx,
		"--cluster_size", uniques,
		"--id", strconv.FormatFloat(d.Identity, 'f', -1, 64),
		"--sizein",
		"--sizeout",
		"--centroids", centroids,
		"--uc", membership,
	)
	return errors.Wrapf(err, "failed to cluster %s", uniques)
}

// Read parses the OTUs of a centroid FASTA, in file (discovery) order.
func Read(centroids string) ([]OTU, error) {
	records, err := seqio.ReadSized(centroids)
	if err != nil {
		return nil, err
	}

	otus := make([]OTU, len(records))
	for i, r := range records {
		otus[i] = OTU{ID: r.ID, Sequence: r.Seq, Abundance: r.Size}
	}
	return otus, nil
}

// Abundance sums the abundance of otus.
func Abundance(otus []OTU) (total int) {
	for _, o := range otus {
		total += o.Abundance
	}
	return
}
