// Package tooltest has in-process stand-ins for the external tools, for
// testing stage wiring without cutadapt or vsearch installed.
package tooltest

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/Kartikesh07/eDNA-Classification/internal/seqio"
	"github.com/Kartikesh07/eDNA-Classification/internal/tool"
)

// Recorder is a tool.Runner that records every call and then delegates.
type Recorder struct {
	mu    sync.Mutex
	Calls [][]string
	Next  tool.Runner
}

// Run records args then calls r.Next.
func (r *Recorder) Run(ctx context.Context, args ...string) (tool.Result, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, args)
	r.mu.Unlock()
	return r.Next.Run(ctx, args...)
}

// Fail is a tool.Runner that always exits with code and the given streams.
func Fail(name string, code int, stdout, stderr string) tool.Runner {
	return tool.RunnerFunc(func(ctx context.Context, args ...string) (tool.Result, error) {
		res := tool.Result{ExitCode: code, Stdout: stdout, Stderr: stderr}
		return res, &tool.ExecutionError{Tool: name, Args: args, Result: res}
	})
}

// Cutadapt stands in for cutadapt when every read passes the filters: the
// two inputs are copied to the -o and -p outputs unchanged.
func Cutadapt() tool.Runner {
	return tool.RunnerFunc(func(ctx context.Context, args ...string) (tool.Result, error) {
		if len(args) < 2 {
			return usage("cutadapt", args)
		}
		fwd, rev := args[len(args)-2], args[len(args)-1]
		if err := copyFile(fwd, tool.Arg(args, "-o")); err != nil {
			return failed("cutadapt", args, err)
		}
		if err := copyFile(rev, tool.Arg(args, "-p")); err != nil {
			return failed("cutadapt", args, err)
		}
		return tool.Result{Stdout: "This is cutadapt (stand-in)\n"}, nil
	})
}

// Vsearch stands in for vsearch's --fastx_uniques and --cluster_size.
//
// Dereplication is exact. Clustering is greedy, largest unique first. Identity
// ignores terminal gaps like vsearch's default --iddef 2: a sequence contained
// in another is 100% identical to it, otherwise equal length sequences are
// compared position by position. That's enough for hand-built fixtures.
func Vsearch() tool.Runner {
	return tool.RunnerFunc(func(ctx context.Context, args ...string) (tool.Result, error) {
		var err error
		switch {
		case tool.Arg(args, "--fastx_uniques") != "":
			err = uniques(tool.Arg(args, "--fastx_uniques"), tool.Arg(args, "--fastaout"))
		case tool.Arg(args, "--cluster_size") != "":
			var id float64
			if _, err = fmt.Sscanf(tool.Arg(args, "--id"), "%g", &id); err == nil {
				err = cluster(tool.Arg(args, "--cluster_size"), id, tool.Arg(args, "--centroids"), tool.Arg(args, "--uc"))
			}
		default:
			return usage("vsearch", args)
		}
		if err != nil {
			return failed("vsearch", args, err)
		}
		return tool.Result{Stderr: "vsearch (stand-in)\n"}, nil
	})
}

func uniques(in, out string) error {
	records, err := seqio.Read(in)
	if err != nil {
		return err
	}

	var order []seqio.Sized
	index := make(map[string]int)
	for _, r := range records {
		if i, seen := index[r.Seq]; seen {
			order[i].Size++
			continue
		}
		id := r.ID
		if bare, _, err := seqio.ParseSize(id); err == nil {
			id = bare // --sizeout without --sizein replaces old sizes
		}
		index[r.Seq] = len(order)
		order = append(order, seqio.Sized{ID: id, Size: 1, Seq: r.Seq})
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Size > order[j].Size
	})
	return seqio.WriteSized(out, order)
}

func cluster(in string, id float64, centroidsPath, ucPath string) error {
	uniques, err := seqio.ReadSized(in)
	if err != nil {
		return err
	}
	sort.SliceStable(uniques, func(i, j int) bool {
		return uniques[i].Size > uniques[j].Size
	})

	var centroids []seqio.Sized
	var labels []string // centroids' headers as read
	var uc strings.Builder
	label := func(s seqio.Sized) string { return fmt.Sprintf("%s;size=%d", s.ID, s.Size) }

	for _, u := range uniques {
		joined := -1
		for c := range centroids {
			if identity(u.Seq, centroids[c].Seq) >= id {
				joined = c
				break
			}
		}

		if joined < 0 {
			fmt.Fprintf(&uc, "S\t%d\t%d\t*\t*\t*\t*\t*\t%s\t*\n", len(centroids), len(u.Seq), label(u))
			centroids = append(centroids, u)
			labels = append(labels, label(u))
			continue
		}

		c := &centroids[joined]
		fmt.Fprintf(&uc, "H\t%d\t%d\t%.1f\t+\t0\t0\t%dM\t%s\t%s\n",
			joined, len(u.Seq), identity(u.Seq, c.Seq)*100, len(u.Seq), label(u), labels[joined])
		c.Size += u.Size
	}

	if err := seqio.WriteSized(centroidsPath, centroids); err != nil {
		return err
	}
	if ucPath == "" {
		return nil
	}
	return os.WriteFile(ucPath, []byte(uc.String()), 0644)
}

func identity(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 1
	}
	if len(a) != len(b) {
		return 0
	}
	same := 0
	for i := range a {
		if a[i] == b[i] {
			same++
		}
	}
	return float64(same) / float64(len(a))
}

// Forward and Reverse are a read pair that pools into 10 reads: 3 sequences
// appear in both files, so dereplication gives 7 uniques. Clustered, they form
// two OTUs around ACGTTGCAAC (abundance 6) and TTTGGGCCCA (abundance 4).
var (
	Forward = []string{"ACGTTGCAAC", "ACGTTGCAA", "TTTGGGCCCA", "CGTTGCAAC", "TTGGGCCCA"}
	Reverse = []string{"ACGTTGCAAC", "ACGTTGCAA", "TTTGGGCCCA", "GTTGCA", "TTTGGGCC"}
)

// WriteFASTQ writes seqs as FASTQ records named prefix1, prefix2...
func WriteFASTQ(path, prefix string, seqs []string) error {
	var sb strings.Builder
	for i, s := range seqs {
		fmt.Fprintf(&sb, "@%s%d\n%s\n+\n%s\n", prefix, i+1, s, strings.Repeat("I", len(s)))
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func copyFile(src, dst string) error {
	if dst == "" {
		return fmt.Errorf("no output path")
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0644)
}

func usage(name string, args []string) (tool.Result, error) {
	res := tool.Result{ExitCode: 1, Stderr: "unsupported arguments\n"}
	return res, &tool.ExecutionError{Tool: name, Args: args, Result: res}
}

func failed(name string, args []string, err error) (tool.Result, error) {
	res := tool.Result{ExitCode: 1, Stderr: err.Error() + "\n"}
	return res, &tool.ExecutionError{Tool: name, Args: args, Result: res}
}
