package seqio

import (
	"bufio"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// Cluster is one cluster of a vsearch --uc membership file.
type Cluster struct {
	// Number is vsearch's 0-based cluster number
	Number int

	// Centroid is the header of the cluster's centroid
	Centroid string

	// Members are the headers of every sequence in the cluster, centroid first
	Members []string
}

// ReadMembership parses a vsearch/usearch cluster format (UC) file.
//
// Only the S (centroid) and H (hit) records are used: the 2nd column is the
// cluster number and the 9th column the query's header. C (cluster summary)
// records repeat the S records and are skipped.
// https://www.drive5.com/usearch/manual/opt_uc.html
func ReadMembership(path string) ([]Cluster, error) {
	in, err := xopen.Ropen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer in.Close()

	byNumber := make(map[int]*Cluster)
	hits := make(map[int][]string)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		cols := strings.Split(text, "\t")
		if len(cols) < 9 {
			return nil, errors.Errorf("%s:%d: expected 10 tab separated columns, got %d", path, line, len(cols))
		}

		recType := cols[0]
		if recType != "S" && recType != "H" {
			continue
		}

		number, err := strconv.Atoi(cols[1])
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: bad cluster number", path, line)
		}

		if recType == "S" {
			byNumber[number] = &Cluster{Number: number, Centroid: cols[8]}
		} else {
			hits[number] = append(hits[number], cols[8])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	clusters := make([]Cluster, 0, len(byNumber))
	for number, c := range byNumber {
		c.Members = append([]string{c.Centroid}, hits[number]...)
		clusters = append(clusters, *c)
	}
	for number := range hits {
		if _, ok := byNumber[number]; !ok {
			return nil, errors.Errorf("%s: hits for cluster %d without a centroid record", path, number)
		}
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Number < clusters[j].Number
	})
	return clusters, nil
}

// MemberSize sums the ";size=" annotations of a cluster's members.
func (c Cluster) MemberSize() (total int, err error) {
	for _, m := range c.Members {
		_, size, err := ParseSize(m)
		if err != nil {
			return 0, err
		}
		total += size
	}
	return total, nil
}
