package cmd

import (
	"fmt"
	"io"

	"github.com/Kartikesh07/eDNA-Classification/config"
	"github.com/Kartikesh07/eDNA-Classification/internal/classify"
	"github.com/Kartikesh07/eDNA-Classification/internal/pipeline"
	"github.com/Kartikesh07/eDNA-Classification/internal/tool"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// checkCmd is for verifying an installation before a run
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the external tools and the classifier artifacts can be found",
	Long: `Check that the external tools and the classifier artifacts can be found.

cutadapt is looked up on the PATH and vsearch at its packaged location. The
three classifier artifacts are loaded and checked against each other.`,
	RunE: checkExec,
}

func init() {
	checkCmd.Flags().StringP("model-dir", "m", "", "directory with the classifier artifacts (default <executable dir>/models)")
	checkCmd.Flags().IntP("kmer-size", "k", 6, "k-mer width, has to match the model's vocabulary")
	addToolFlags(checkCmd)

	RootCmd.AddCommand(checkCmd)
}

func checkExec(cmd *cobra.Command, args []string) error {
	c, err := config.New()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tools := pipeline.Tools{ToolConfig: c.Tools}
	failed := 0

	trimmer, err := tools.Trimmer()
	failed += checkTool(out, "cutadapt", trimmer, err)
	clusterer, err := tools.Clusterer()
	failed += checkTool(out, "vsearch", clusterer, err)

	artifacts, err := classify.Load(c.ModelDir)
	if err == nil {
		_, err = classify.New(artifacts, c.Classify.KmerSize)
	}
	if err != nil {
		fmt.Fprintf(out, "%-10s FAIL %v\n", "model", err)
		failed++
	} else {
		fmt.Fprintf(out, "%-10s ok   %s (%d features, %d classes)\n",
			"model", c.ModelDir, artifacts.Vocabulary.Dim(), artifacts.Labels.Len())
	}

	if failed > 0 {
		return errors.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func checkTool(out io.Writer, name string, r tool.Runner, err error) int {
	if err != nil {
		fmt.Fprintf(out, "%-10s FAIL %v\n", name, err)
		return 1
	}
	path := ""
	if c, ok := r.(*tool.Command); ok {
		path = c.Path
	}
	fmt.Fprintf(out, "%-10s ok   %s\n", name, path)
	return 0
}
