// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment variable read, ex: EDNA_MODEL_DIR
	EnvPrefix = "EDNA"

	// SettingsFile is read from the working directory if it exists
	SettingsFile = "settings.yaml"

	// TempDirName is the directory under the output directory for intermediates
	TempDirName = "temp_files"
)

// replacer maps nested and dashed keys onto environment names,
// ex: cluster.identity -> EDNA_CLUSTER_IDENTITY
var replacer = strings.NewReplacer(".", "_", "-", "_")

// ToolConfig is where the external executables are.
type ToolConfig struct {
	// Cutadapt is looked up on the PATH unless it's a path itself
	Cutadapt string `mapstructure:"cutadapt"`

	// Vsearch is pinned, it ships next to the executable by default
	Vsearch string `mapstructure:"vsearch"`
}

// TrimConfig is settings for read trimming
type TrimConfig struct {
	// the 3' quality cutoff
	Quality int `mapstructure:"quality-cutoff"`

	// the minimum read length kept after trimming
	MinLength int `mapstructure:"min-length"`
}

// ClusterConfig is settings for OTU clustering
type ClusterConfig struct {
	// the minimum identity for a sequence to join a cluster, 0-1
	Identity float64 `mapstructure:"identity"`
}

// ClassifyConfig is settings for featurizing and classifying OTUs
type ClassifyConfig struct {
	// the k-mer width, has to match the model's vocabulary
	KmerSize int `mapstructure:"kmer-size"`
}

// Config is the root-level settings struct and is a mix
// of settings available in settings.yaml, EDNA_ environment
// variables, and those available from the command line
type Config struct {
	// the forward (R1) reads of the sample
	ForwardReads string `mapstructure:"forward-reads"`

	// the reverse (R2) reads of the sample
	ReverseReads string `mapstructure:"reverse-reads"`

	// where reports are written, intermediates go in a temp_files subdirectory
	OutputDir string `mapstructure:"output-dir"`

	// prefix of every report file name
	SampleName string `mapstructure:"sample-name"`

	// the directory with the classifier artifacts
	ModelDir string `mapstructure:"model-dir"`

	// an existing centroid FASTA, only for reclassifying
	OTUs string `mapstructure:"otus"`

	// whether to log at debug level
	Verbose bool `mapstructure:"verbose"`

	Tools    ToolConfig     `mapstructure:"tools"`
	Trim     TrimConfig     `mapstructure:"trim"`
	Cluster  ClusterConfig  `mapstructure:"cluster"`
	Classify ClassifyConfig `mapstructure:"classify"`
}

// TempDir is where the run's intermediate files go.
func (c Config) TempDir() string {
	return filepath.Join(c.OutputDir, TempDirName)
}

// SetDefaults registers the default of every setting with v. Defaults that
// are relative to the executable are left to Load.
func SetDefaults(v *viper.Viper) {
	// empty defaults so that Unmarshal sees the keys' environment variables
	for _, key := range []string{"forward-reads", "reverse-reads", "output-dir", "sample-name", "model-dir", "otus", "tools.vsearch"} {
		v.SetDefault(key, "")
	}
	v.SetDefault("verbose", false)
	v.SetDefault("tools.cutadapt", "cutadapt")
	v.SetDefault("trim.quality-cutoff", 20)
	v.SetDefault("trim.min-length", 150)
	v.SetDefault("cluster.identity", 0.97)
	v.SetDefault("classify.kmer-size", 6)
}

// Setup wires v to the environment and the optional settings file.
// A .env file in the working directory is loaded into the environment first.
func Setup(v *viper.Viper) error {
	_ = godotenv.Load(".env")

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if _, err := os.Stat(SettingsFile); err == nil {
		v.SetConfigFile(SettingsFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read %s", SettingsFile)
		}
	}
	return nil
}

// New returns a new Config struct populated by
// Viper settings (either from the local settings.yaml)
// and/or command line arguments
func New() (Config, error) {
	return Load(viper.GetViper())
}

// Load unmarshals v into a Config and fills the defaults that depend on where
// the executable is: <exe dir>/models and <exe dir>/bin/vsearch.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, errors.Wrap(err, "unable to decode into struct")
	}

	if c.ModelDir == "" || c.Tools.Vsearch == "" {
		exe, err := executableDir()
		if err != nil {
			return c, err
		}
		if c.ModelDir == "" {
			c.ModelDir = filepath.Join(exe, "models")
		}
		if c.Tools.Vsearch == "" {
			c.Tools.Vsearch = filepath.Join(exe, "bin", "vsearch")
		}
	}

	return c, nil
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
