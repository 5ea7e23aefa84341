package config

// DefaultEndpoint is the public bird-sound classifier.
const DefaultEndpoint = "https://sa6h1n-bird-sound-monitor.hf.space/analyze"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Classifier: ClassifierConfig{
			Endpoint:  DefaultEndpoint,
			TimeoutMS: 60_000,
		},
		Recording: RecordingConfig{
			DurationMS: 10_000,
			MinBytes:   5000,
			SampleRate: 44100,
			Channels:   1,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Log: LogConfig{Level: "info"},
	}
}
