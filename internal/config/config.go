// Package config loads the geodiff configuration: defaults, then a YAML or TOML file, then the
// environment variables prefixed with GEODIFF.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-geodiff/internal/csvsource"
	"github.com/askiada/go-geodiff/internal/logging"
	"github.com/askiada/go-geodiff/pkg/compare"
)

const EnvPrefix = "GEODIFF"

const (
	OutputLog  = "log"
	OutputJSON = "json"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config file format")
	ErrOutputFormat      = errors.New("output format must be log or json")
	ErrMetricsNamespace  = errors.New("metrics namespace is required")
)

// Config holds all application configuration.
type Config struct {
	Compare compare.Config   `yaml:"compare" toml:"compare" split_words:"true"`
	Input   csvsource.Config `yaml:"input" toml:"input" split_words:"true"`
	Output  OutputConfig     `yaml:"output" toml:"output" split_words:"true"`
	Logging logging.Config   `yaml:"logging" toml:"logging" split_words:"true"`
	Metrics MetricsConfig    `yaml:"metrics" toml:"metrics" split_words:"true"`
	Drawer  DrawerConfig     `yaml:"drawer" toml:"drawer" split_words:"true"`
}

// OutputConfig selects where the diff log goes.
type OutputConfig struct {
	Format string `yaml:"format" toml:"format" split_words:"true"`
	// Path of the JSON lines file, stdout when empty.
	Path string `yaml:"path" toml:"path" split_words:"true"`
}

// MetricsConfig holds the Prometheus export configuration.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled" split_words:"true"`
	Namespace string `yaml:"namespace" toml:"namespace" split_words:"true"`
	// Listen is the address serving /metrics while the comparison runs, none when empty.
	Listen string `yaml:"listen" toml:"listen" split_words:"true"`
}

// DrawerConfig holds the pipeline graph output.
type DrawerConfig struct {
	// Output is the DOT file written at the end of the run, none when empty.
	Output string `yaml:"output" toml:"output" split_words:"true"`
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Compare: compare.Config{
			SourceLabel: compare.DefaultSourceLabel,
			OtherLabel:  compare.DefaultOtherLabel,
		},
		Input:   csvsource.DefaultConfig(),
		Output:  OutputConfig{Format: OutputLog},
		Logging: logging.DefaultConfig(),
		Metrics: MetricsConfig{Namespace: "geodiff"},
	}
}

// Load reads the file at path over the defaults, when path is set, then applies the environment and
// the overrides in order. The result is validated last.
func Load(path string, overrides ...func(cfg *Config)) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load config from environment")
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "unable to read config file %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		if err := decoder.Decode(c); err != nil {
			return errors.Wrapf(err, "failed to parse YAML config %s", path)
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()

		if err := decoder.Decode(c); err != nil {
			return errors.Wrapf(err, "failed to parse TOML config %s", path)
		}
	default:
		return errors.Wrap(ErrUnsupportedFormat, path)
	}

	return nil
}

func (c *Config) Validate() error {
	if err := c.Compare.Validate(); err != nil {
		return errors.Wrap(err, "compare")
	}

	if err := c.Input.Validate(); err != nil {
		return errors.Wrap(err, "input")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrap(err, "logging")
	}

	if c.Output.Format != OutputLog && c.Output.Format != OutputJSON {
		return errors.Wrapf(ErrOutputFormat, "got %q", c.Output.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return ErrMetricsNamespace
	}

	return nil
}
