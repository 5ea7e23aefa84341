package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/warbler/internal/classifier"
	"github.com/rbright/warbler/internal/config"
	"github.com/rbright/warbler/internal/fsm"
	"github.com/rbright/warbler/internal/indicator"
	"github.com/rbright/warbler/internal/ipc"
	"github.com/rbright/warbler/internal/metrics"
	"github.com/rbright/warbler/internal/pipeline"
	"github.com/rbright/warbler/internal/render"
	"github.com/rbright/warbler/internal/session"
	"github.com/rbright/warbler/internal/wav"
)

const (
	sourceMicrophone = "microphone"
	acquireProbe     = 180 * time.Millisecond
	acquireRetries   = 8
)

// commandRecord owns the socket for one session, serving stop/status while
// the controller records, encodes, and uploads.
func (r Runner) commandRecord(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, acquireProbe, acquireRetries)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			logger.Warn("record rejected", "error", err.Error())
		}
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	classify, err := r.classifier(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	term := indicator.NewTerminal(r.Stderr)
	defer term.Close()

	controller := session.NewController(logger, r.recorder(cfg, logger), classify, term, session.Options{
		Duration: cfg.Recording.Duration(),
		Tick:     time.Second,
		MinBytes: cfg.Recording.MinBytes,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	var result session.Result
	g.Go(func() error {
		return ipc.Serve(gctx, listener, controller)
	})
	g.Go(func() error {
		defer cancel()
		result = controller.Run(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		logger.Error("ipc server failed", "error", err.Error())
		return 1
	}

	return r.finish(cfg, logger, result, sourceMicrophone)
}

// commandClassify re-encodes an existing WAV file and uploads it.
func (r Runner) commandClassify(ctx context.Context, cfg config.Config, logger *slog.Logger, path string) int {
	classify, err := r.classifier(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	term := indicator.NewTerminal(r.Stderr)
	defer term.Close()

	result := session.Result{SessionID: uuid.NewString(), StartedAt: time.Now(), AudioDevice: path}
	fail := func(err error) int {
		result.State = fsm.StateFailed
		result.Err = err
		result.FinishedAt = time.Now()
		term.Observe(session.Status{SessionID: result.SessionID, State: fsm.StateFailed, Err: err})
		return r.finish(cfg, logger, result, path)
	}

	term.Observe(session.Status{SessionID: result.SessionID, State: fsm.StateEncoding})
	buf, err := wav.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	result.BytesCaptured = int64(buf.Frames() * buf.NumChannels() * 2)

	payload, err := wav.Encode(buf)
	if err != nil {
		return fail(err)
	}
	result.WAVBytes = len(payload)

	term.Observe(session.Status{SessionID: result.SessionID, State: fsm.StateUploading})
	started := time.Now()
	predictions, err := classify.Classify(session.WithID(ctx, result.SessionID), payload)
	result.UploadLatency = time.Since(started)
	if err != nil {
		var uploadErr *session.UploadError
		if !errors.As(err, &uploadErr) {
			err = &session.UploadError{Err: err}
		}
		return fail(err)
	}

	result.State = fsm.StateComplete
	result.Predictions = predictions
	result.FinishedAt = time.Now()
	term.Observe(session.Status{SessionID: result.SessionID, State: fsm.StateComplete, Predictions: predictions})
	return r.finish(cfg, logger, result, path)
}

// finish logs, exports metrics, and prints predictions for a terminal result.
func (r Runner) finish(cfg config.Config, logger *slog.Logger, result session.Result, source string) int {
	logSessionResult(logger, result)
	r.writeMetrics(cfg, logger, result)

	if result.Err != nil {
		return 1
	}

	var err error
	if cfg.Output.JSON {
		err = render.JSON(r.Stdout, result.SessionID, source, result.Predictions)
	} else {
		err = render.Table(r.Stdout, result.Predictions)
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: print predictions: %v\n", err)
		return 1
	}
	return 0
}

func (r Runner) writeMetrics(cfg config.Config, logger *slog.Logger, result session.Result) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	m := metrics.New()
	m.RecordSession(result)
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		fmt.Fprintf(r.Stderr, "warning: %v\n", err)
		logger.Warn("metrics export failed", "path", cfg.Metrics.Textfile, "error", err.Error())
	}
}

func (r Runner) recorder(cfg config.Config, logger *slog.Logger) session.Recorder {
	if r.Recorder != nil {
		return r.Recorder
	}
	return pipeline.NewMicrophone(cfg, logger)
}

func (r Runner) classifier(cfg config.Config) (session.Classifier, error) {
	if r.Classifier != nil {
		return r.Classifier, nil
	}
	client, err := classifier.New(classifier.Config{
		Endpoint: cfg.Classifier.Endpoint,
		Timeout:  cfg.Classifier.Timeout(),
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"session_id", result.SessionID,
		"state", result.State,
		"stopped_by", result.StoppedBy,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"audio_device", result.AudioDevice,
		"bytes_captured", result.BytesCaptured,
		"wav_bytes", result.WAVBytes,
		"upload_latency_ms", result.UploadLatency.Milliseconds(),
		"prediction_count", len(result.Predictions),
		"outcome", metrics.Outcome(result.Err),
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	if len(result.Predictions) > 0 {
		top := result.Predictions[0]
		fields = append(fields, "top_species", top.Species, "top_confidence", top.Confidence)
	}
	logger.Info("session complete", fields...)
}
