package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omr-scale/internal/binarize"
	"omr-scale/internal/scaler"
)

// isolate keeps the user's own configuration out of the lookup paths.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, scaler.DefaultParams(), cfg.Scale)
	assert.Equal(t, "global", cfg.Binarization.Filter)
	assert.Equal(t, binarize.DefaultThreshold, cfg.Binarization.Threshold)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Positive(t, cfg.Concurrency)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	content := `
scale:
  min_interline: 9
  beam_guess_tolerance: 3
binarization:
  filter: otsu
log:
  level: debug
concurrency: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Scale.MinInterline)
	assert.Equal(t, 3, cfg.Scale.BeamGuessTolerance)
	assert.Equal(t, 100, cfg.Scale.MaxInterline, "unset keys keep defaults")
	assert.InDelta(t, 0.05, cfg.Scale.MaxBlackRatio, 1e-9)
	assert.Equal(t, "otsu", cfg.Binarization.Filter)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Concurrency)

	filter, err := cfg.Filter()
	require.NoError(t, err)
	assert.IsType(t, binarize.OtsuFilter{}, filter)
}

func TestLoadLookupPath(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "omrscale.yaml"), []byte("concurrency: 3\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Concurrency)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("OMRSCALE_SCALE_MIN_INTERLINE", "15")
	t.Setenv("OMRSCALE_SCALE_BEAM_RANGE_RATIO", "0.5")
	t.Setenv("OMRSCALE_LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Scale.MinInterline)
	assert.InDelta(t, 0.5, cfg.Scale.BeamRangeRatio, 1e-9)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config file")

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad params", "scale:\n  min_interline: 200\n", "scale"},
		{"bad filter", "binarization:\n  filter: sauvola\n", "unknown binarization filter"},
		{"bad threshold", "binarization:\n  threshold: 300\n", "binarization"},
		{"bad level", "log:\n  level: loud\n", "log"},
		{"bad concurrency", "concurrency: -1\n", "concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(path)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "omrscale.yaml")

	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# omrscale configuration")
	assert.Contains(t, string(data), "min_interline: 11")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}
