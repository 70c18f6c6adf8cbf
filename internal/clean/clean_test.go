package clean

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Kartikesh07/eDNA-Classification/internal/seqio"
	"github.com/Kartikesh07/eDNA-Classification/internal/tool"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func reads(t *testing.T, dir, name string, n int) string {
	t.Helper()
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("@read" + string(rune('a'+i)) + "\n" + strings.Repeat("ACGT", 40) + "\n+\n" + strings.Repeat("I", 160) + "\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))
	return path
}

// passAll behaves like cutadapt when every read passes: outputs equal inputs
func passAll(calls *[][]string) tool.Runner {
	return tool.RunnerFunc(func(ctx context.Context, args ...string) (tool.Result, error) {
		*calls = append(*calls, args)

		n := len(args)
		fwdIn, revIn := args[n-2], args[n-1]
		for out, in := range map[string]string{tool.Arg(args, "-o"): fwdIn, tool.Arg(args, "-p"): revIn} {
			b, err := os.ReadFile(in)
			if err != nil {
				return tool.Result{ExitCode: 1}, err
			}
			if err := os.WriteFile(out, b, 0644); err != nil {
				return tool.Result{ExitCode: 1}, err
			}
		}
		return tool.Result{}, nil
	})
}

func TestCleaner_Clean(t *testing.T) {
	dir := t.TempDir()
	fwd := reads(t, dir, "r1.fastq", 6)
	rev := reads(t, dir, "r2.fastq", 6)

	var calls [][]string
	c := New(passAll(&calls))

	trimmed, err := c.Clean(context.Background(), fwd, rev, dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "reads_1.trimmed.fastq"), trimmed.Forward)
	require.Equal(t, filepath.Join(dir, "reads_2.trimmed.fastq"), trimmed.Reverse)

	require.Len(t, calls, 1)
	require.Equal(t, []string{
		"-q", "20",
		"-m", "150",
		"-o", trimmed.Forward,
		"-p", trimmed.Reverse,
		fwd, rev,
	}, calls[0])

	// every read passes, so every mate is kept
	for in, out := range map[string]string{fwd: trimmed.Forward, rev: trimmed.Reverse} {
		before, err := seqio.Count(in)
		require.NoError(t, err)
		after, err := seqio.Count(out)
		require.NoError(t, err)
		require.Equal(t, before, after)
	}
}

func TestCleaner_Clean_toolFailure(t *testing.T) {
	dir := t.TempDir()
	want := &tool.ExecutionError{
		Tool:   "cutadapt",
		Result: tool.Result{ExitCode: 1, Stdout: "This is cutadapt", Stderr: "Error: file not found"},
	}
	c := New(tool.RunnerFunc(func(ctx context.Context, args ...string) (tool.Result, error) {
		return want.Result, want
	}))

	_, err := c.Clean(context.Background(), "r1.fastq", "r2.fastq", dir)

	var got *tool.ExecutionError
	require.True(t, errors.As(err, &got))
	require.Same(t, want, got)
	require.Equal(t, "Error: file not found", got.Result.Stderr)
}
