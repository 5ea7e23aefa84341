package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rbright/warbler/internal/logging"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	endpoint := strings.TrimSpace(cfg.Classifier.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%s must not be empty", describeKey("classifier", "endpoint"))
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%s must be an http(s) URL, got %q", describeKey("classifier", "endpoint"), endpoint)
	}
	if u.Scheme == "http" && !isLoopbackHost(u.Hostname()) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("classifier.endpoint %q uploads recordings over plain http", endpoint)})
	}
	if cfg.Classifier.TimeoutMS <= 0 {
		return nil, fmt.Errorf("%s must be > 0", describeKey("classifier", "timeout_ms"))
	}

	if cfg.Recording.DurationMS <= 0 {
		return nil, fmt.Errorf("%s must be > 0", describeKey("recording", "duration_ms"))
	}
	if cfg.Recording.MinBytes < 0 {
		return nil, fmt.Errorf("%s must be >= 0", describeKey("recording", "min_bytes"))
	}
	if cfg.Recording.SampleRate < 8000 || cfg.Recording.SampleRate > 192000 {
		return nil, fmt.Errorf("%s must be between 8000 and 192000", describeKey("recording", "sample_rate"))
	}
	if cfg.Recording.Channels != 1 && cfg.Recording.Channels != 2 {
		return nil, fmt.Errorf("%s must be 1 or 2", describeKey("recording", "channels"))
	}
	if capacity := cfg.Recording.CapacityBytes(); cfg.Recording.MinBytes > capacity {
		warnings = append(warnings, Warning{Message: fmt.Sprintf(
			"recording.min_bytes=%d exceeds the %d bytes a %dms recording can capture; every session will be too short",
			cfg.Recording.MinBytes, capacity, cfg.Recording.DurationMS,
		)})
	}

	if strings.TrimSpace(cfg.Audio.Fallback) == "" {
		return nil, fmt.Errorf("%s must not be empty", describeKey("audio", "fallback"))
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("%s: %w", describeKey("log", "level"), err)
	}

	return warnings, nil
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
