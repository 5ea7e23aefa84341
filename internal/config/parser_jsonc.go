package config

import (
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Classifier *jsoncClassifier `json:"classifier"`
	Recording  *jsoncRecording  `json:"recording"`
	Audio      *jsoncAudio      `json:"audio"`
	Output     *jsoncOutput     `json:"output"`
	Metrics    *jsoncMetrics    `json:"metrics"`
	Debug      *jsoncDebug      `json:"debug"`
	Log        *jsoncLog        `json:"log"`
}

type jsoncClassifier struct {
	Endpoint  *string `json:"endpoint"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncRecording struct {
	DurationMS *int   `json:"duration_ms"`
	MinBytes   *int64 `json:"min_bytes"`
	SampleRate *int   `json:"sample_rate"`
	Channels   *int   `json:"channels"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncOutput struct {
	JSON *bool `json:"json"`
}

type jsoncMetrics struct {
	Textfile *string `json:"textfile"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

type jsoncLog struct {
	Level *string `json:"level"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	cleaned, err := cleanJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	var payload jsoncConfig
	if err := decodeStrict(cleaned, &payload); err != nil {
		return Config{}, nil, err
	}

	cfg := base
	warnings := payload.applyTo(&cfg)

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) []Warning {
	warnings := make([]Warning, 0)

	if c := payload.Classifier; c != nil {
		if c.Endpoint != nil {
			cfg.Classifier.Endpoint = strings.TrimSpace(*c.Endpoint)
		}
		if c.TimeoutMS != nil {
			cfg.Classifier.TimeoutMS = *c.TimeoutMS
		}
	}

	if r := payload.Recording; r != nil {
		if r.DurationMS != nil {
			cfg.Recording.DurationMS = *r.DurationMS
		}
		if r.MinBytes != nil {
			cfg.Recording.MinBytes = *r.MinBytes
		}
		if r.SampleRate != nil {
			cfg.Recording.SampleRate = *r.SampleRate
		}
		if r.Channels != nil {
			cfg.Recording.Channels = *r.Channels
		}
	}

	if a := payload.Audio; a != nil {
		if a.Input != nil {
			cfg.Audio.Input = strings.TrimSpace(*a.Input)
		}
		if a.Fallback != nil {
			cfg.Audio.Fallback = strings.TrimSpace(*a.Fallback)
		}
	}

	if payload.Output != nil && payload.Output.JSON != nil {
		cfg.Output.JSON = *payload.Output.JSON
	}

	if payload.Metrics != nil && payload.Metrics.Textfile != nil {
		cfg.Metrics.Textfile = strings.TrimSpace(*payload.Metrics.Textfile)
	}

	if payload.Debug != nil && payload.Debug.AudioDump != nil {
		cfg.Debug.AudioDump = *payload.Debug.AudioDump
	}

	if payload.Log != nil && payload.Log.Level != nil {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(*payload.Log.Level))
	}

	if cfg.Audio.Input == "" {
		warnings = append(warnings, Warning{Message: "audio.input is empty; using \"default\""})
		cfg.Audio.Input = "default"
	}

	return warnings
}

// describeKey names a JSON field path for error messages.
func describeKey(section, key string) string {
	return fmt.Sprintf("%s.%s", section, key)
}
