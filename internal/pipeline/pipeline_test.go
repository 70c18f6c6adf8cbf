package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Kartikesh07/eDNA-Classification/config"
	"github.com/Kartikesh07/eDNA-Classification/internal/classify"
	"github.com/Kartikesh07/eDNA-Classification/internal/classify/classifytest"
	"github.com/Kartikesh07/eDNA-Classification/internal/report"
	"github.com/Kartikesh07/eDNA-Classification/internal/seqio"
	"github.com/Kartikesh07/eDNA-Classification/internal/tool"
	"github.com/Kartikesh07/eDNA-Classification/internal/tool/tooltest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// toolbox hands out fixed runners
type toolbox struct {
	trimmer   tool.Runner
	clusterer tool.Runner

	// clusterErr is returned instead of clusterer when set
	clusterErr error
}

func (tb toolbox) Trimmer() (tool.Runner, error) { return tb.trimmer, nil }

func (tb toolbox) Clusterer() (tool.Runner, error) {
	if tb.clusterErr != nil {
		return nil, tb.clusterErr
	}
	return tb.clusterer, nil
}

// sample writes the read pair and a model directory, and returns a config for
// running on them.
func sample(t *testing.T, bundle classifytest.Bundle) config.Config {
	t.Helper()
	dir := t.TempDir()

	fwd := filepath.Join(dir, "sample_R1.fastq")
	rev := filepath.Join(dir, "sample_R2.fastq")
	require.NoError(t, tooltest.WriteFASTQ(fwd, "f", tooltest.Forward))
	require.NoError(t, tooltest.WriteFASTQ(rev, "r", tooltest.Reverse))

	models := filepath.Join(dir, "models")
	require.NoError(t, classifytest.Write(models, bundle))

	return config.Config{
		ForwardReads: fwd,
		ReverseReads: rev,
		OutputDir:    filepath.Join(dir, "out"),
		SampleName:   "sample",
		ModelDir:     models,
		Trim:         config.TrimConfig{Quality: 20, MinLength: 150},
		Cluster:      config.ClusterConfig{Identity: 0.97},
		Classify:     config.ClassifyConfig{KmerSize: 6},
	}
}

func readCSV(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestPipeline_Run(t *testing.T) {
	c := sample(t, classifytest.Rotifera())
	cutadapt := &tooltest.Recorder{Next: tooltest.Cutadapt()}
	vsearch := &tooltest.Recorder{Next: tooltest.Vsearch()}

	p := New(c, toolbox{trimmer: cutadapt, clusterer: vsearch})
	rc, err := p.Run(context.Background(), NewRunContext(c))
	require.NoError(t, err)

	require.Len(t, cutadapt.Calls, 1)
	require.Len(t, vsearch.Calls, 2)

	// every read passed, so mate counts are unchanged
	for _, pair := range [][2]string{{c.ForwardReads, rc.Trimmed.Forward}, {c.ReverseReads, rc.Trimmed.Reverse}} {
		in, err := seqio.Count(pair[0])
		require.NoError(t, err)
		out, err := seqio.Count(pair[1])
		require.NoError(t, err)
		require.Equal(t, in, out)
	}

	require.Equal(t, "otu_id,abundance,sequence,predicted_class\n"+
		"f1,6,ACGTTGCAAC,Rotifera\n"+
		"f3,4,TTTGGGCCCA,Rotifera\n", readCSV(t, rc.FullReport))
	require.Equal(t, "predicted_class,abundance\nRotifera,10\n", readCSV(t, rc.SummaryReport))
	require.Equal(t, filepath.Join(c.OutputDir, "sample_summary_report.csv"), rc.SummaryReport)

	// intermediates are under temp_files
	for _, path := range []string{rc.Trimmed.Forward, rc.Discovery.Pool, rc.Discovery.Uniques, rc.Centroids} {
		require.Equal(t, filepath.Join(c.OutputDir, config.TempDirName), filepath.Dir(path))
		require.FileExists(t, path)
	}

	m, err := report.ReadManifest(rc.ManifestPath())
	require.NoError(t, err)
	require.Equal(t, rc.RunID, m.RunID)
	require.Equal(t, 2, m.OTUs)
	require.Equal(t, 10, m.TotalAbundance)
	require.Len(t, m.Timings, 3)
	for i, name := range p.Stages() {
		require.Equal(t, name, m.Timings[i].Stage)
	}
}

func TestPipeline_Run_missingArtifact(t *testing.T) {
	bundle := classifytest.Rotifera()
	bundle.Vocabulary = nil
	c := sample(t, bundle)

	p := New(c, toolbox{trimmer: tooltest.Cutadapt(), clusterer: tooltest.Vsearch()})
	rc, err := p.Run(context.Background(), NewRunContext(c))

	var se *StageError
	require.True(t, errors.As(err, &se), "got %v", err)
	require.Equal(t, Classify, se.Stage)

	var mle *classify.ModelLoadError
	require.True(t, errors.As(err, &mle))
	require.Equal(t, classify.VocabularyFile, mle.Artifact)

	require.NoFileExists(t, filepath.Join(c.OutputDir, report.SummaryName(c.SampleName)))
	require.NoFileExists(t, rc.ManifestPath())

	// partial outputs are kept
	require.FileExists(t, rc.Centroids)
}

func TestPipeline_RunFrom_classify(t *testing.T) {
	c := sample(t, classifytest.Rotifera())
	c.OTUs = filepath.Join(t.TempDir(), "otus.fasta")
	require.NoError(t, os.WriteFile(c.OTUs, []byte(">a;size=3\nAAAAAAAAAA\n>b;size=5\nACGTTGCAAC\n"), 0644))

	vsearch := &tooltest.Recorder{Next: tooltest.Vsearch()}
	p := New(c, toolbox{trimmer: tooltest.Fail("cutadapt", 1, "", ""), clusterer: vsearch})

	rc, err := p.RunFrom(context.Background(), Classify, NewRunContext(c))
	require.NoError(t, err)
	require.Empty(t, vsearch.Calls)
	require.Equal(t, "predicted_class,abundance\nRotifera,5\nArthropoda,3\n", readCSV(t, rc.SummaryReport))
}

func TestPipeline_RunFrom_malformedAbundance(t *testing.T) {
	// no model directory at all, the header has to fail first
	c := sample(t, classifytest.Bundle{})
	c.OTUs = filepath.Join(t.TempDir(), "otus.fasta")
	require.NoError(t, os.WriteFile(c.OTUs, []byte(">f1;size=6\nACGTTGCAAC\n>f3\nTTTGGGCCCA\n"), 0644))

	_, err := New(c, toolbox{}).RunFrom(context.Background(), Classify, NewRunContext(c))

	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, Classify, se.Stage)

	var pe *seqio.ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	var mle *classify.ModelLoadError
	require.False(t, errors.As(err, &mle))

	require.NoFileExists(t, filepath.Join(c.OutputDir, report.FullName(c.SampleName)))
}

func TestPipeline_Run_toolFailure(t *testing.T) {
	c := sample(t, classifytest.Rotifera())
	vsearch := &tooltest.Recorder{Next: tooltest.Vsearch()}

	p := New(c, toolbox{
		trimmer:   tooltest.Fail("cutadapt", 1, "Processing paired-end reads", "cutadapt: error: Line 2 in FASTQ file is expected to start with '@'"),
		clusterer: vsearch,
	})
	_, err := p.Run(context.Background(), NewRunContext(c))

	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, Clean, se.Stage)
	require.True(t, strings.HasPrefix(se.Error(), "stage clean failed: "))
	require.Contains(t, se.Diagnostic(), "expected to start with '@'")
	require.Contains(t, se.Diagnostic(), "Processing paired-end reads")

	// nothing after the failed stage ran
	require.Empty(t, vsearch.Calls)
}

func TestPipeline_Run_missingClusterer(t *testing.T) {
	c := sample(t, classifytest.Rotifera())
	_, missing := Tools{config.ToolConfig{Vsearch: filepath.Join(t.TempDir(), "bin", "vsearch")}}.Clusterer()
	require.Error(t, missing)

	cutadapt := &tooltest.Recorder{Next: tooltest.Cutadapt()}
	p := New(c, toolbox{trimmer: cutadapt, clusterErr: missing})
	rc, err := p.Run(context.Background(), NewRunContext(c))

	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, Discover, se.Stage)
	require.Empty(t, se.Diagnostic())

	var nfe *tool.NotFoundError
	require.True(t, errors.As(err, &nfe))
	require.Equal(t, "vsearch", nfe.Tool)

	// the clean stage ran and its outputs stay
	require.Len(t, cutadapt.Calls, 1)
	require.FileExists(t, rc.Trimmed.Forward)
}

func TestPipeline_Run_cancelled(t *testing.T) {
	c := sample(t, classifytest.Rotifera())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cutadapt := &tooltest.Recorder{Next: tooltest.Cutadapt()}
	_, err := New(c, toolbox{trimmer: cutadapt}).Run(ctx, NewRunContext(c))

	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, Clean, se.Stage)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, cutadapt.Calls)
}

func TestPipeline_RunFrom_unknownStage(t *testing.T) {
	c := sample(t, classifytest.Rotifera())
	_, err := New(c, toolbox{}).RunFrom(context.Background(), "align", NewRunContext(c))
	require.Error(t, err)
}

func TestNewRunContext(t *testing.T) {
	c := config.Config{OutputDir: "/runs/a", SampleName: "s1", ModelDir: "/models"}
	a, b := NewRunContext(c), NewRunContext(c)

	require.NotEqual(t, a.RunID, b.RunID)
	require.Equal(t, "/runs/a/temp_files", a.TempDir)
	require.Equal(t, "/runs/a/s1_run.json", a.ManifestPath())
}
