// Package config loads the pipeline configuration from defaults, an
// optional YAML file, and environment variables, in rising precedence.
// It is the single source of truth for every path the pipeline touches.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"bankfail/internal/model"
)

// Config is the complete application configuration.
type Config struct {
	Logging   LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig    `yaml:"pipeline" envconfig:"PIPELINE"`
	Deflation DeflationConfig   `yaml:"deflation" envconfig:"DEFLATION"`
	Models    []model.ModelSpec `yaml:"models"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
}

// PathsConfig names the data directory tree.
type PathsConfig struct {
	RawDir     string `yaml:"raw_dir" envconfig:"RAW_DIR" default:"data/raw" validate:"required"`
	InterimDir string `yaml:"interim_dir" envconfig:"INTERIM_DIR" default:"data/interim" validate:"required"`
	OutputDir  string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"data/output" validate:"required"`
}

// PipelineConfig controls run-level behavior.
type PipelineConfig struct {
	// ContinueOnError keeps the run alive past a failed analysis stage;
	// critical stages abort regardless.
	ContinueOnError bool `yaml:"continue_on_error" envconfig:"CONTINUE_ON_ERROR" default:"true"`
	// Concurrency bounds how many model specs evaluate at once.
	Concurrency int `yaml:"concurrency" envconfig:"CONCURRENCY" default:"4" validate:"min=1"`
}

// DeflationConfig selects the price index reference year.
type DeflationConfig struct {
	RefYear int  `yaml:"ref_year" envconfig:"REF_YEAR" default:"1982" validate:"required"`
	Enabled bool `yaml:"enabled" envconfig:"ENABLED" default:"true"`
}

// Load builds the configuration: envconfig defaults first, then the YAML
// file at path if it exists, then explicitly set BANKFAIL_* environment
// variables on top. The model list only ever comes from the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("BANKFAIL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Unmarshal over the defaults: only keys present in the
			// file overwrite.
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides copies explicitly set environment variables onto the
// configuration. A second envconfig.Process pass cannot serve here: it
// re-applies defaults for unset variables, clobbering file values.
func applyEnvOverrides(cfg *Config) error {
	overrides := []struct {
		key string
		set func(string) error
	}{
		{"BANKFAIL_LOGGING_LEVEL", setString(&cfg.Logging.Level)},
		{"BANKFAIL_LOGGING_FORMAT", setString(&cfg.Logging.Format)},
		{"BANKFAIL_PATHS_RAW_DIR", setString(&cfg.Paths.RawDir)},
		{"BANKFAIL_PATHS_INTERIM_DIR", setString(&cfg.Paths.InterimDir)},
		{"BANKFAIL_PATHS_OUTPUT_DIR", setString(&cfg.Paths.OutputDir)},
		{"BANKFAIL_PIPELINE_CONTINUE_ON_ERROR", setBool(&cfg.Pipeline.ContinueOnError)},
		{"BANKFAIL_PIPELINE_CONCURRENCY", setInt(&cfg.Pipeline.Concurrency)},
		{"BANKFAIL_DEFLATION_REF_YEAR", setInt(&cfg.Deflation.RefYear)},
		{"BANKFAIL_DEFLATION_ENABLED", setBool(&cfg.Deflation.Enabled)},
	}
	for _, o := range overrides {
		v, ok := os.LookupEnv(o.key)
		if !ok {
			continue
		}
		if err := o.set(v); err != nil {
			return fmt.Errorf("%s: %w", o.key, err)
		}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

// Validate checks the configuration, including every model spec.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Models))
	for i := range c.Models {
		spec := &c.Models[i]
		if err := v.Struct(spec); err != nil {
			return fmt.Errorf("model %q: %w", spec.ID, err)
		}
		if seen[spec.ID] {
			return fmt.Errorf("duplicate model id %q", spec.ID)
		}
		seen[spec.ID] = true
	}
	return nil
}
