// Package pipeline adapts PulseAudio capture to the session recorder contract.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rbright/warbler/internal/audio"
	"github.com/rbright/warbler/internal/config"
	"github.com/rbright/warbler/internal/session"
)

// capturer is the slice of *audio.Capture a recording needs.
type capturer interface {
	Fragments() [][]byte
	BytesCaptured() int64
	Stop() error
}

type (
	selectFunc  func(ctx context.Context, input, fallback string) (audio.Selection, error)
	captureFunc func(ctx context.Context, device audio.Device, format audio.Format) (capturer, error)
)

// Microphone opens the configured Pulse source for each session.
type Microphone struct {
	cfg    config.Config
	logger *slog.Logger

	selectDevice selectFunc
	startCapture captureFunc
}

// NewMicrophone constructs a session.Recorder backed by PulseAudio.
func NewMicrophone(cfg config.Config, logger *slog.Logger) *Microphone {
	return &Microphone{
		cfg:          cfg,
		logger:       logger,
		selectDevice: audio.SelectDevice,
		startCapture: func(ctx context.Context, device audio.Device, format audio.Format) (capturer, error) {
			return audio.StartCapture(ctx, device, format)
		},
	}
}

// Start resolves device selection and starts capture. Every failure is a
// session.DeviceError.
func (m *Microphone) Start(ctx context.Context) (session.Recording, error) {
	selection, err := m.selectDevice(ctx, m.cfg.Audio.Input, m.cfg.Audio.Fallback)
	if err != nil {
		return nil, &session.DeviceError{Err: err}
	}
	if selection.Warning != "" {
		m.logWarn(selection.Warning, "session_id", session.IDFromContext(ctx))
	}

	format := audio.Format{SampleRate: m.cfg.Recording.SampleRate, Channels: m.cfg.Recording.Channels}
	capture, err := m.startCapture(ctx, selection.Device, format)
	if err != nil {
		return nil, &session.DeviceError{Err: err}
	}

	return &recording{
		mic:       m,
		sessionID: session.IDFromContext(ctx),
		capture:   capture,
		format:    session.Format{SampleRate: format.SampleRate, Channels: format.Channels},
		device:    describeDevice(selection.Device),
	}, nil
}

type recording struct {
	mic       *Microphone
	sessionID string
	capture   capturer
	format    session.Format
	device    string

	stopOnce sync.Once
	stopErr  error
}

func (r *recording) Fragments() [][]byte { return r.capture.Fragments() }

func (r *recording) BytesCaptured() int64 { return r.capture.BytesCaptured() }

func (r *recording) Format() session.Format { return r.format }

func (r *recording) Device() string { return r.device }

// Stop releases the Pulse stream and writes the debug dump, once.
func (r *recording) Stop() error {
	r.stopOnce.Do(func() {
		r.stopErr = r.capture.Stop()
		r.mic.writeDebugAudio(r.sessionID, bytes.Join(r.capture.Fragments(), nil), r.format)
	})
	return r.stopErr
}

// describeDevice formats device metadata for logs/session results.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

// logWarn emits warning-level logs when logger is configured.
func (m *Microphone) logWarn(message string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Warn(message, args...)
}
