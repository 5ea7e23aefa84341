package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvEndpoint        = "WARBLER_ENDPOINT"
	EnvMetricsTextfile = "WARBLER_METRICS_TEXTFILE"
)

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// LookupFunc mirrors os.LookupEnv.
type LookupFunc func(string) (string, bool)

// EnvLookup layers process environment over the values in dotenvPath.
// A missing dotenv file is not an error.
func EnvLookup(dotenvPath string) (LookupFunc, error) {
	fileValues := map[string]string{}
	if strings.TrimSpace(dotenvPath) != "" {
		values, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	}, nil
}

// ApplyEnv overlays environment overrides onto cfg and re-validates it.
func ApplyEnv(cfg Config, lookup LookupFunc) (Config, []Warning, error) {
	if lookup == nil {
		return cfg, nil, nil
	}

	warnings := make([]Warning, 0)
	changed := false
	if v, ok := lookup(EnvEndpoint); ok && strings.TrimSpace(v) != "" {
		cfg.Classifier.Endpoint = strings.TrimSpace(v)
		warnings = append(warnings, Warning{Message: fmt.Sprintf("classifier.endpoint overridden by %s", EnvEndpoint)})
		changed = true
	}
	if v, ok := lookup(EnvMetricsTextfile); ok {
		cfg.Metrics.Textfile = strings.TrimSpace(v)
		changed = true
	}
	if !changed {
		return cfg, warnings, nil
	}

	validated, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, fmt.Errorf("environment override: %w", err)
	}
	return cfg, append(warnings, validated...), nil
}
