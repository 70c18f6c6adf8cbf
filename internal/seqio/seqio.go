// Package seqio reads and writes the sequence files that pass between the
// pipeline's stages: trimmed FASTQ, the pooled FASTQ, and the size-annotated
// FASTA files written by vsearch.
package seqio

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
)

// sizeTag is the vsearch abundance annotation, ex: ">Otu1;size=6"
const sizeTag = ";size="

// Sized is a FASTA record whose header carries a ";size=N" abundance. Both
// dereplicated uniques and cluster centroids are Sized.
type Sized struct {
	// ID is the header up to the size annotation
	ID string

	// Size is the multiplicity (uniques) or cumulative abundance (centroids)
	Size int

	// Seq is the sequence as written by the tool
	Seq string
}

// Record is a plain FASTA/FASTQ record.
type Record struct {
	ID  string
	Seq string
}

// Read reads every record of a (possibly gzipped) FASTA/FASTQ file.
func Read(path string) (records []Record, err error) {
	if empty, err := isEmpty(path); err != nil || empty {
		return nil, err
	}

	reader, err := fastx.NewReader(seq.Unlimit, path, fastx.DefaultIDRegexp)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer reader.Close()

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		records = append(records, Record{ID: string(record.ID), Seq: string(record.Seq.Seq)})
	}
}

// Count returns the number of FASTA/FASTQ records in a (possibly gzipped) file.
func Count(path string) (n int, err error) {
	if empty, err := isEmpty(path); err != nil || empty {
		return 0, err
	}

	reader, err := fastx.NewReader(seq.Unlimit, path, fastx.DefaultIDRegexp)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open %s", path)
	}
	defer reader.Close()

	for {
		_, err := reader.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, errors.Wrapf(err, "failed to read record %d of %s", n+1, path)
		}
		n++
	}
}

// Concat byte-concatenates srcs, in order, into dst. Gzipped sources are
// decompressed on the way through.
func Concat(dst string, srcs ...string) error {
	out, err := xopen.Wopen(dst)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}

	for _, src := range srcs {
		in, err := xopen.Ropen(src)
		if err != nil {
			out.Close()
			return errors.Wrapf(err, "failed to open %s", src)
		}

		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			return errors.Wrapf(err, "failed to copy %s into %s", src, dst)
		}
	}

	return errors.Wrapf(out.Close(), "failed to close %s", dst)
}

// ReadSized reads every record of a size-annotated FASTA file, in file order.
// A header without a parseable size is a *ParseError.
func ReadSized(path string) (records []Sized, err error) {
	if empty, err := isEmpty(path); err != nil || empty {
		return nil, err
	}

	reader, err := fastx.NewReader(seq.Unlimit, path, fastx.DefaultIDRegexp)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer reader.Close()

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}

		header := string(record.ID)
		id, size, err := ParseSize(header)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Path = path
				pe.Record = len(records) + 1
			}
			return nil, err
		}

		records = append(records, Sized{
			ID:   id,
			Size: size,
			Seq:  string(record.Seq.Seq),
		})
	}
}

// ParseSize splits a "<id>;size=<N>" header into its id and size. Anything
// after the size, ex: a trailing ";", is ignored.
func ParseSize(header string) (id string, size int, err error) {
	i := strings.Index(header, sizeTag)
	if i < 0 {
		return "", 0, &ParseError{Header: header, Reason: "missing " + sizeTag + " annotation"}
	}

	id = header[:i]
	sizeField := header[i+len(sizeTag):]
	if j := strings.IndexByte(sizeField, ';'); j >= 0 {
		sizeField = sizeField[:j]
	}

	size, err = strconv.Atoi(sizeField)
	if err != nil {
		return "", 0, &ParseError{Header: header, Reason: "non-integer size " + strconv.Quote(sizeField)}
	}
	if size < 0 {
		return "", 0, &ParseError{Header: header, Reason: "negative size"}
	}

	return id, size, nil
}

// WriteSized writes records as size-annotated FASTA.
func WriteSized(path string, records []Sized) error {
	out, err := xopen.Wopen(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}

	for _, r := range records {
		if _, err := io.WriteString(out, ">"+r.ID+sizeTag+strconv.Itoa(r.Size)+"\n"+r.Seq+"\n"); err != nil {
			out.Close()
			return errors.Wrapf(err, "failed to write %s", path)
		}
	}

	return errors.Wrapf(out.Close(), "failed to close %s", path)
}

// Total sums the sizes of records.
func Total(records []Sized) (total int) {
	for _, r := range records {
		total += r.Size
	}
	return
}

func isEmpty(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to stat %s", path)
	}
	return info.Size() == 0, nil
}
