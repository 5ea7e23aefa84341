// Package config resolves, parses, validates, and defaults warbler configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by warbler.
type Config struct {
	Classifier ClassifierConfig
	Recording  RecordingConfig
	Audio      AudioConfig
	Output     OutputConfig
	Metrics    MetricsConfig
	Debug      DebugConfig
	Log        LogConfig
}

// ClassifierConfig points at the remote bird-sound API.
type ClassifierConfig struct {
	Endpoint  string
	TimeoutMS int
}

// Timeout is the whole-request upload deadline.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// RecordingConfig controls capture format and the session countdown.
type RecordingConfig struct {
	DurationMS int
	MinBytes   int64
	SampleRate int
	Channels   int
}

// Duration is the countdown length of one session.
func (r RecordingConfig) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

// CapacityBytes is the PCM byte count a full countdown produces.
func (r RecordingConfig) CapacityBytes() int64 {
	return int64(r.DurationMS) * int64(r.SampleRate) * int64(r.Channels) * 2 / 1000
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// OutputConfig controls how predictions are printed.
type OutputConfig struct {
	JSON bool
}

// MetricsConfig controls the optional Prometheus textfile export.
type MetricsConfig struct {
	Textfile string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	AudioDump bool
}

// LogConfig controls the JSONL log threshold.
type LogConfig struct {
	Level string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
