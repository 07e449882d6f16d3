package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
logging:
  level: debug
  format: json
paths:
  raw_dir: /tmp/bankfail/raw
  interim_dir: /tmp/bankfail/interim
  output_dir: /tmp/bankfail/output
pipeline:
  continue_on_error: true
  concurrency: 2
deflation:
  ref_year: 1982
  enabled: true
models:
  - id: f3_lpm
    label: f3_failure
    family: lpm
    start_year: 1880
    end_year: 1935
    min_window: 10
    hac_lags: 2
    terms:
      - name: leverage
      - name: income_ratio
      - name: leverage
        interact: income_ratio
  - id: f3_logit_depression
    label: f3_failure
    family: logit
    start_year: 1880
    end_year: 1935
    terms:
      - name: leverage
    pairs:
      - train_end: 1928
        test_year: 1929
      - train_end: 1928
        test_year: 1930
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, 1982, cfg.Deflation.RefYear)

	require.Len(t, cfg.Models, 2)
	m := cfg.Models[0]
	assert.Equal(t, "f3_lpm", m.ID)
	assert.Equal(t, "f3_failure", m.LabelCol)
	require.Len(t, m.Terms, 3)
	assert.Equal(t, "income_ratio", m.Terms[2].Interact)

	require.Len(t, cfg.Models[1].Pairs, 2)
	assert.Equal(t, 1928, cfg.Models[1].Pairs[0].TrainEnd)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "data/raw", cfg.Paths.RawDir)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.True(t, cfg.Pipeline.ContinueOnError)
	assert.Empty(t, cfg.Models)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("BANKFAIL_LOGGING_LEVEL", "warn")
	t.Setenv("BANKFAIL_PATHS_OUTPUT_DIR", "/tmp/elsewhere")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/tmp/elsewhere", cfg.Paths.OutputDir)
	// File values untouched by the environment survive.
	assert.Equal(t, "/tmp/bankfail/raw", cfg.Paths.RawDir)
}

func TestLoadRejectsBadModel(t *testing.T) {
	bad := `
models:
  - id: broken
    label: f1_failure
    family: probit
    start_year: 1900
    end_year: 1950
    terms:
      - name: leverage
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestLoadRejectsDuplicateModelIDs(t *testing.T) {
	dup := `
models:
  - id: same
    label: f1_failure
    family: lpm
    start_year: 1900
    end_year: 1950
    terms:
      - name: leverage
  - id: same
    label: f1_failure
    family: lpm
    start_year: 1900
    end_year: 1950
    terms:
      - name: leverage
`
	_, err := Load(writeConfig(t, dup))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate model id")
}

func TestPaths(t *testing.T) {
	p, err := NewPaths(PathsConfig{
		RawDir:     filepath.Join(t.TempDir(), "raw"),
		InterimDir: filepath.Join(t.TempDir(), "interim"),
		OutputDir:  filepath.Join(t.TempDir(), "out"),
	})
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirs())

	info, err := os.Stat(p.OutputDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Equal(t, filepath.Join(p.InterimDir, "panel.csv"), p.PanelCSV())
	assert.Equal(t, filepath.Join(p.RawDir, "cpi.csv"), p.CPICSV())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}
