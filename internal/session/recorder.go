package session

import (
	"context"
	"math"
	"time"
)

// Format describes the little-endian int16 PCM layout of captured fragments.
type Format struct {
	SampleRate int
	Channels   int
}

// Recorder acquires an exclusive capture handle.
type Recorder interface {
	Start(context.Context) (Recording, error)
}

// Recording is one live capture handle owned by a session.
type Recording interface {
	// Fragments returns the fragments pushed by the device so far, in order.
	Fragments() [][]byte
	BytesCaptured() int64
	Format() Format
	Device() string
	// Stop releases the device. Repeated calls are no-ops.
	Stop() error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(context.Context) (Recording, error)

func (f RecorderFunc) Start(ctx context.Context) (Recording, error) {
	return f(ctx)
}

// Prediction is one ranked species guess as returned by the classifier.
type Prediction struct {
	Species    string  `json:"bird"`
	Confidence float64 `json:"confidence"`
}

// Percent returns the confidence rounded to a whole percentage.
func (p Prediction) Percent() int {
	return int(math.Floor(p.Confidence*100 + 0.5))
}

// Classifier uploads one encoded clip and returns ranked predictions.
type Classifier interface {
	Classify(ctx context.Context, wav []byte) ([]Prediction, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(context.Context, []byte) ([]Prediction, error)

func (f ClassifierFunc) Classify(ctx context.Context, wav []byte) ([]Prediction, error) {
	return f(ctx, wav)
}

// Options controls countdown length and the minimum capture size.
type Options struct {
	Duration time.Duration
	Tick     time.Duration
	MinBytes int64
}

// DefaultOptions returns the 10 second / 5000 byte session policy.
func DefaultOptions() Options {
	return Options{
		Duration: 10 * time.Second,
		Tick:     time.Second,
		MinBytes: 5000,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.Duration <= 0 {
		o.Duration = defaults.Duration
	}
	if o.Tick <= 0 {
		o.Tick = defaults.Tick
	}
	if o.Tick > o.Duration {
		o.Tick = o.Duration
	}
	if o.MinBytes < 0 {
		o.MinBytes = 0
	}
	return o
}

type sessionIDKey struct{}

// WithID attaches the session id to ctx for downstream request tagging.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// IDFromContext returns the session id attached by WithID, if any.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}
