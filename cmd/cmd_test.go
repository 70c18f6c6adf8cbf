package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Kartikesh07/eDNA-Classification/config"
	"github.com/Kartikesh07/eDNA-Classification/internal/classify/classifytest"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(io.Discard)
	RootCmd.SetArgs(args)
	err := RootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func Test_normalize(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	for in, want := range map[string]string{
		"forward_reads": "forward-reads",
		"output-dir":    "output-dir",
		"sample_name":   "sample-name",
		"otus":          "otus",
	} {
		require.Equal(t, pflag.NormalizedName(want), normalize(fs, in))
	}
}

func Test_classifyExec(t *testing.T) {
	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	require.NoError(t, classifytest.Write(models, classifytest.Rotifera()))

	otus := filepath.Join(dir, "otus.fasta")
	require.NoError(t, os.WriteFile(otus, []byte(">f1;size=6\nACGTTGCAAC\n>f3;size=4\nTTTGGGCCCA\n"), 0644))
	out := filepath.Join(dir, "out")

	// the upload front end passes underscored flags
	stdout, err := execute(t, "classify",
		"--otus", otus,
		"--output_dir", out,
		"--sample_name", "S1",
		"--model_dir", models,
	)
	require.NoError(t, err)

	summary := filepath.Join(out, "S1_summary_report.csv")
	require.Equal(t, filepath.Join(out, "S1_full_report.csv")+"\n"+summary+"\n", stdout)

	b, err := os.ReadFile(summary)
	require.NoError(t, err)
	require.Equal(t, "predicted_class,abundance\nRotifera,10\n", string(b))
	require.FileExists(t, filepath.Join(out, "S1_run.json"))
}

func Test_runExec_invalidInput(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "run",
		"--forward-reads", filepath.Join(dir, "absent_R1.fastq"),
		"--reverse-reads", filepath.Join(dir, "absent_R2.fastq"),
		"--output-dir", filepath.Join(dir, "out"),
		"--sample-name", "S1",
	)

	var ive *config.InputValidationError
	require.True(t, errors.As(err, &ive), "got %v", err)
	require.Equal(t, "forward-reads", ive.Param)
	require.NoDirExists(t, filepath.Join(dir, "out"))
}

func Test_makeDocs(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "docs", "--dir", dir)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "edna_run.md"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(b), "---\nlayout: default\ntitle: run\nparent: edna\n"))

	b, err = os.ReadFile(filepath.Join(dir, "edna.md"))
	require.NoError(t, err)
	require.Contains(t, string(b), "permalink: /")

	// hidden commands aren't documented
	require.NoFileExists(t, filepath.Join(dir, "edna_docs.md"))
}
