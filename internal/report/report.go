// Package report writes the per-OTU report and the biodiversity summary.
package report

import (
	"encoding/csv"
	"sort"
	"strconv"

	"github.com/Kartikesh07/eDNA-Classification/internal/otu"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// Record is one row of the full report: an OTU and its predicted class.
type Record struct {
	OTUID          string
	Abundance      int
	Sequence       string
	PredictedClass string
}

// Group is one row of the summary: a predicted class and its summed abundance.
type Group struct {
	PredictedClass string
	Abundance      int
}

// Summary is the biodiversity summary, sorted by decreasing abundance.
type Summary []Group

// Total is the summed abundance of every group.
func (s Summary) Total() (total int) {
	for _, g := range s {
		total += g.Abundance
	}
	return
}

var (
	fullHeader    = []string{"otu_id", "abundance", "sequence", "predicted_class"}
	summaryHeader = []string{"predicted_class", "abundance"}
)

// FullName and SummaryName are the report file names for a sample.
func FullName(sample string) string    { return sample + "_full_report.csv" }
func SummaryName(sample string) string { return sample + "_summary_report.csv" }

// Build pairs each OTU with its label, keeping discovery order.
func Build(otus []otu.OTU, labels []string) ([]Record, error) {
	if len(otus) != len(labels) {
		return nil, errors.Errorf("%d OTUs but %d predicted labels", len(otus), len(labels))
	}

	records := make([]Record, len(otus))
	for i, o := range otus {
		records[i] = Record{
			OTUID:          o.ID,
			Abundance:      o.Abundance,
			Sequence:       o.Sequence,
			PredictedClass: labels[i],
		}
	}
	return records, nil
}

// Summarize groups records by predicted class and sums their abundance.
// Groups are sorted by decreasing abundance; equal abundances are sorted by
// class name so the summary is the same run to run.
func Summarize(records []Record) Summary {
	index := make(map[string]int)
	var summary Summary
	for _, r := range records {
		i, ok := index[r.PredictedClass]
		if !ok {
			i = len(summary)
			index[r.PredictedClass] = i
			summary = append(summary, Group{PredictedClass: r.PredictedClass})
		}
		summary[i].Abundance += r.Abundance
	}

	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Abundance != summary[j].Abundance {
			return summary[i].Abundance > summary[j].Abundance
		}
		return summary[i].PredictedClass < summary[j].PredictedClass
	})
	return summary
}

// WriteFull writes records as CSV, one row per OTU.
func WriteFull(path string, records []Record) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.OTUID, strconv.Itoa(r.Abundance), r.Sequence, r.PredictedClass}
	}
	return writeCSV(path, fullHeader, rows)
}

// WriteSummary writes the summary as CSV indexed by predicted class.
func WriteSummary(path string, summary Summary) error {
	rows := make([][]string, len(summary))
	for i, g := range summary {
		rows[i] = []string{g.PredictedClass, strconv.Itoa(g.Abundance)}
	}
	return writeCSV(path, summaryHeader, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	out, err := xopen.Wopen(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := w.WriteAll(rows); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}

	return errors.Wrapf(out.Close(), "failed to close %s", path)
}
