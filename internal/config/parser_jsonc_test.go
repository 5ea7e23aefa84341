package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONCAppliesEverySection(t *testing.T) {
	cfg, warnings, err := Parse(`
// warbler config
{
  "classifier": {
    "endpoint": " http://127.0.0.1:7860/analyze ",
    "timeout_ms": 45000,
  },
  "recording": {
    "duration_ms": 5000,
    "min_bytes": 8000,
    "sample_rate": 16000,
    "channels": 2,
  },
  "audio": {"input": " USB Mic ", "fallback": "default"},
  "output": {"json": true},
  "metrics": {"textfile": " /var/lib/node_exporter/warbler.prom "},
  "debug": {"audio_dump": true},
  "log": {"level": "DEBUG"},
}
`, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "http://127.0.0.1:7860/analyze", cfg.Classifier.Endpoint)
	require.Equal(t, 45000, cfg.Classifier.TimeoutMS)
	require.Equal(t, 5000, cfg.Recording.DurationMS)
	require.Equal(t, int64(8000), cfg.Recording.MinBytes)
	require.Equal(t, 16000, cfg.Recording.SampleRate)
	require.Equal(t, 2, cfg.Recording.Channels)
	require.Equal(t, "USB Mic", cfg.Audio.Input)
	require.True(t, cfg.Output.JSON)
	require.Equal(t, "/var/lib/node_exporter/warbler.prom", cfg.Metrics.Textfile)
	require.True(t, cfg.Debug.AudioDump)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestParseJSONCKeepsUnsetDefaults(t *testing.T) {
	cfg, _, err := Parse(`{"output": {"json": true}}`, Default())
	require.NoError(t, err)

	want := Default()
	want.Output.JSON = true
	require.Equal(t, want, cfg)
}

func TestParseEmptyContentValidatesBase(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseRejectsNonObject(t *testing.T) {
	_, _, err := Parse("classifier.endpoint = http://x", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "JSONC object")
}

func TestParseJSONCRejectsUnknownField(t *testing.T) {
	_, _, err := Parse(`{"spectrogram": {"window": 512}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseJSONCRejectsMultipleTopLevelValues(t *testing.T) {
	_, _, err := parseJSONC(`{"output":{"json":false}}{"output":{"json":true}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestParseJSONCTypeErrorIncludesLocation(t *testing.T) {
	_, _, err := parseJSONC(`{
  "recording": {"duration_ms": "ten seconds"}
}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
	require.Contains(t, err.Error(), "column")
}

func TestParseJSONCEmptyInputFallsBackWithWarning(t *testing.T) {
	cfg, warnings, err := parseJSONC(`{"audio": {"input": "  "}}`, Default())
	require.NoError(t, err)
	require.Equal(t, "default", cfg.Audio.Input)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "audio.input is empty")
}
