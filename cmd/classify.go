package cmd

import (
	"fmt"

	"github.com/Kartikesh07/eDNA-Classification/config"
	"github.com/Kartikesh07/eDNA-Classification/internal/pipeline"
	"github.com/spf13/cobra"
)

// classifyCmd is for rerunning only classification on existing OTUs
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify an existing OTU FASTA and rewrite the reports",
	Long: `Classify an existing OTU FASTA and rewrite the reports.

The FASTA has to have vsearch's abundance annotations, ex: ">Otu1;size=42".
That's the otus.fasta in a previous run's temp_files directory. Useful after
swapping in a new model, since trimming and clustering are skipped.`,
	Example: `  edna classify --otus results/S1/temp_files/otus.fasta --output-dir results/S1 --sample-name S1`,
	RunE:    classifyExec,
}

func init() {
	classifyCmd.Flags().String("otus", "", "OTU centroid FASTA with ;size= annotations")
	classifyCmd.Flags().StringP("output-dir", "o", "", "directory for the reports")
	classifyCmd.Flags().StringP("sample-name", "n", "", "prefix of the report file names")
	classifyCmd.Flags().StringP("model-dir", "m", "", "directory with the classifier artifacts (default <executable dir>/models)")
	classifyCmd.Flags().IntP("kmer-size", "k", 6, "k-mer width, has to match the model's vocabulary")

	classifyCmd.MarkFlagRequired("otus")
	classifyCmd.MarkFlagRequired("output-dir")
	classifyCmd.MarkFlagRequired("sample-name")

	RootCmd.AddCommand(classifyCmd)
}

func classifyExec(cmd *cobra.Command, args []string) error {
	c, err := config.New()
	if err != nil {
		return err
	}
	if err := c.ValidateClassify(); err != nil {
		return err
	}

	p := pipeline.New(c, pipeline.Tools{ToolConfig: c.Tools})
	rc, err := p.RunFrom(cmd.Context(), pipeline.Classify, pipeline.NewRunContext(c))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), rc.FullReport)
	fmt.Fprintln(cmd.OutOrStdout(), rc.SummaryReport)
	return nil
}
