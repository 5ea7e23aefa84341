package config

import (
	"errors"
	"strings"
)

// Parse reads JSONC configuration content over base and validates the result.
// Empty content validates base unchanged.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	if cleaned, err := cleanJSONC(trimmed); err == nil && !strings.HasPrefix(strings.TrimSpace(cleaned), "{") {
		return Config{}, nil, errors.New("config must be a JSONC object")
	}
	return parseJSONC(content, base)
}
