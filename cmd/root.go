// Package cmd is for command line interactions with the edna application
package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Kartikesh07/eDNA-Classification/config"
	"github.com/Kartikesh07/eDNA-Classification/internal/pipeline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// stderr is for logging to Stderr (without an annoying timestamp)
var stderr = log.New(os.Stderr, "", 0)

// flagKeys maps flags onto their nested settings keys. Flags that aren't
// here are bound under their own name.
var flagKeys = map[string]string{
	"cutadapt":       "tools.cutadapt",
	"vsearch":        "tools.vsearch",
	"quality-cutoff": "trim.quality-cutoff",
	"min-length":     "trim.min-length",
	"identity":       "cluster.identity",
	"kmer-size":      "classify.kmer-size",
}

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "edna",
	Short: "Classify environmental DNA reads into a taxonomic abundance report",
	Long: `Classify environmental DNA reads into a taxonomic abundance report.

Paired-end reads are quality trimmed (cutadapt), pooled, dereplicated and
clustered into OTUs (vsearch). Each OTU is classified by its k-mer profile
with a pre-trained model and the abundances are summed per predicted taxon.`,
	Version:           "0.2.0",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	RootCmd.SetGlobalNormalizationFunc(normalize)
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every external command and its arguments")
}

// normalize accepts underscores in flag names, ex: --forward_reads
func normalize(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// setup reads the environment and settings file, binds the command's flags
// and configures logging. Flags are bound here, rather than in init, because
// several commands share flag names.
func setup(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := config.Setup(v); err != nil {
		return err
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			key = f.Name
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return errors.Wrap(bindErr, "failed to bind flags")
	}

	level := slog.LevelInfo
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
//
// SIGINT and SIGTERM cancel the run, which kills the running external tool.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		stderr.Println(err)
		var se *pipeline.StageError
		if errors.As(err, &se) {
			if diag := se.Diagnostic(); diag != "" {
				stderr.Print(diag)
			}
		}
		os.Exit(1)
	}
}
