package cmd

import (
	"fmt"

	"github.com/Kartikesh07/eDNA-Classification/config"
	"github.com/Kartikesh07/eDNA-Classification/internal/pipeline"
	"github.com/spf13/cobra"
)

// runCmd is for running the full pipeline on a sample's read pair
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trim, cluster and classify a pair of read files",
	Long: `Trim, cluster and classify a pair of read files.

Stages run in order and the run stops at the first failure:

1. clean: cutadapt quality (-q) and length (-m) trims the read pair
2. discover: reads are pooled, dereplicated and clustered into OTUs with vsearch
3. classify: each OTU is classified by its k-mer counts and abundances are
   summed per predicted taxon

<output-dir>/<sample-name>_full_report.csv has one row per OTU and
<output-dir>/<sample-name>_summary_report.csv one row per taxon. Intermediate
files are kept in <output-dir>/temp_files.`,
	Example: `  edna run --forward-reads S1_R1.fastq.gz --reverse-reads S1_R2.fastq.gz \
    --output-dir results/S1 --sample-name S1`,
	RunE: runExec,
}

func init() {
	runCmd.Flags().String("forward-reads", "", "forward (R1) FASTQ, plain or gzipped")
	runCmd.Flags().String("reverse-reads", "", "reverse (R2) FASTQ, plain or gzipped")
	runCmd.Flags().StringP("output-dir", "o", "", "directory for reports and intermediate files")
	runCmd.Flags().StringP("sample-name", "n", "", "prefix of the report file names")
	runCmd.Flags().StringP("model-dir", "m", "", "directory with the classifier artifacts (default <executable dir>/models)")
	addToolFlags(runCmd)
	addTuningFlags(runCmd)

	runCmd.MarkFlagRequired("forward-reads")
	runCmd.MarkFlagRequired("reverse-reads")
	runCmd.MarkFlagRequired("output-dir")
	runCmd.MarkFlagRequired("sample-name")

	RootCmd.AddCommand(runCmd)
}

// addToolFlags adds the flags for overriding where the external tools are
func addToolFlags(cmd *cobra.Command) {
	cmd.Flags().String("cutadapt", "cutadapt", "cutadapt executable, looked up on PATH")
	cmd.Flags().String("vsearch", "", "vsearch executable (default <executable dir>/bin/vsearch)")
}

// addTuningFlags adds the flags for the trimming, clustering and k-mer settings
func addTuningFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("quality-cutoff", "q", 20, "3' quality cutoff for trimming")
	cmd.Flags().Int("min-length", 150, "minimum read length after trimming")
	cmd.Flags().Float64("identity", 0.97, "minimum identity for a sequence to join an OTU, 0-1")
	cmd.Flags().IntP("kmer-size", "k", 6, "k-mer width, has to match the model's vocabulary")
}

func runExec(cmd *cobra.Command, args []string) error {
	c, err := config.New()
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	p := pipeline.New(c, pipeline.Tools{ToolConfig: c.Tools})
	rc, err := p.Run(cmd.Context(), pipeline.NewRunContext(c))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), rc.FullReport)
	fmt.Fprintln(cmd.OutOrStdout(), rc.SummaryReport)
	return nil
}
