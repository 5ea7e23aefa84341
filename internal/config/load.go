package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration, then
// applies WARBLER_* overrides from the environment and ./.env.
func Load(explicitPath string) (Loaded, error) {
	lookup, err := EnvLookup(DotEnvFile)
	if err != nil {
		return Loaded{}, err
	}
	return LoadWithEnv(explicitPath, lookup)
}

// LoadWithEnv is Load with an explicit environment source.
func LoadWithEnv(explicitPath string, lookup LookupFunc) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: resolvedPath}
	content, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		cfg, warnings, parseErr := Parse(string(content), Default())
		if parseErr != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, parseErr)
		}
		loaded.Config = cfg
		loaded.Warnings = warnings
		loaded.Exists = true
	case errors.Is(err, os.ErrNotExist):
		loaded.Config = Default()
		loaded.Warnings = []Warning{{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		}}
	default:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, envWarnings, err := ApplyEnv(loaded.Config, lookup)
	if err != nil {
		return Loaded{}, err
	}
	loaded.Config = cfg
	loaded.Warnings = dedupeWarnings(append(loaded.Warnings, envWarnings...))
	return loaded, nil
}

func dedupeWarnings(warnings []Warning) []Warning {
	seen := make(map[string]struct{}, len(warnings))
	out := warnings[:0]
	for _, w := range warnings {
		if _, ok := seen[w.Message]; ok {
			continue
		}
		seen[w.Message] = struct{}{}
		out = append(out, w)
	}
	return out
}
