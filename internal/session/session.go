// Package session coordinates the capture, encode, and upload lifecycle of one recording.
package session

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/warbler/internal/fsm"
	"github.com/rbright/warbler/internal/ipc"
	"github.com/rbright/warbler/internal/wav"
)

type action int

const (
	actionStop action = iota + 1
)

// StopReason records what ended the recording phase.
type StopReason string

const (
	StopNone      StopReason = ""
	StopTimeout   StopReason = "timeout"
	StopRequested StopReason = "requested"
	StopCancelled StopReason = "cancelled"
)

// Status is one observable step of a session. The ordered stream of statuses
// delivered to an Observer is the session's transition history.
type Status struct {
	SessionID   string
	State       fsm.State
	Remaining   time.Duration
	Predictions []Prediction
	Err         error
}

// Observer receives every status transition of a session.
type Observer interface {
	Observe(Status)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Status)

func (f ObserverFunc) Observe(s Status) { f(s) }

// noopObserver preserves session flow when nothing is watching.
type noopObserver struct{}

func (noopObserver) Observe(Status) {}

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	SessionID     string
	State         fsm.State
	Predictions   []Prediction
	Err           error
	AudioDevice   string
	BytesCaptured int64
	WAVBytes      int
	UploadLatency time.Duration
	StoppedBy     StopReason
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Controller orchestrates session state transitions and side effects.
type Controller struct {
	logger     *slog.Logger
	recorder   Recorder
	classifier Classifier
	observer   Observer
	opts       Options

	mu        sync.RWMutex
	state     fsm.State
	remaining time.Duration

	actions chan action
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	recorder Recorder,
	classifier Classifier,
	observer Observer,
	opts Options,
) *Controller {
	if recorder == nil {
		recorder = RecorderFunc(func(context.Context) (Recording, error) {
			return nil, ErrPipelineUnavailable
		})
	}
	if classifier == nil {
		classifier = ClassifierFunc(func(context.Context, []byte) ([]Prediction, error) {
			return nil, ErrPipelineUnavailable
		})
	}
	if observer == nil {
		observer = noopObserver{}
	}

	return &Controller{
		logger:     logger,
		recorder:   recorder,
		classifier: classifier,
		observer:   observer,
		opts:       opts.withDefaults(),
		state:      fsm.StateIdle,
		actions:    make(chan action, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Run executes one session from start through upload. The controller returns
// to idle before Run returns, so Run may be called again afterwards.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{SessionID: uuid.NewString(), StartedAt: time.Now()}

	if err := c.transition(fsm.EventStart); err != nil {
		result.State = c.State()
		result.Err = fmt.Errorf("%w: %v", ErrSessionActive, err)
		result.FinishedAt = time.Now()
		return result
	}
	c.drainActions()
	c.emit(Status{SessionID: result.SessionID, State: fsm.StatePreparing})

	ctx = WithID(ctx, result.SessionID)

	recording, err := c.recorder.Start(ctx)
	if err != nil {
		return c.fail(result, asDeviceError(err))
	}

	release := sync.OnceValue(recording.Stop)
	defer func() {
		if err := release(); err != nil {
			c.logWarn("release capture device failed", "session_id", result.SessionID, "error", err.Error())
		}
	}()
	result.AudioDevice = recording.Device()

	if err := c.transition(fsm.EventAcquired); err != nil {
		return c.fail(result, err)
	}

	result.StoppedBy = c.record(ctx, result.SessionID)
	if err := release(); err != nil {
		c.logWarn("release capture device failed", "session_id", result.SessionID, "error", err.Error())
	}
	result.BytesCaptured = recording.BytesCaptured()

	if result.StoppedBy == StopCancelled {
		return c.fail(result, ctx.Err())
	}

	if err := c.transition(fsm.EventStop); err != nil {
		return c.fail(result, err)
	}
	c.emit(Status{SessionID: result.SessionID, State: fsm.StateEncoding})

	payload, err := c.encode(recording)
	if err != nil {
		return c.fail(result, err)
	}
	result.WAVBytes = len(payload)

	if err := c.transition(fsm.EventEncoded); err != nil {
		return c.fail(result, err)
	}
	c.emit(Status{SessionID: result.SessionID, State: fsm.StateUploading})

	// Uploads are not aborted by the caller; only the classifier timeout applies.
	uploadStarted := time.Now()
	predictions, err := c.classifier.Classify(context.WithoutCancel(ctx), payload)
	result.UploadLatency = time.Since(uploadStarted)
	if err != nil {
		return c.fail(result, asUploadError(err))
	}

	if err := c.transition(fsm.EventClassified); err != nil {
		return c.fail(result, err)
	}
	result.Predictions = predictions
	result.State = fsm.StateComplete
	result.FinishedAt = time.Now()
	c.emit(Status{SessionID: result.SessionID, State: fsm.StateComplete, Predictions: predictions})

	_ = c.transition(fsm.EventReset)
	return result
}

// record runs the countdown until timeout, a stop request, or cancellation.
func (c *Controller) record(ctx context.Context, sessionID string) StopReason {
	remaining := c.opts.Duration
	c.setRemaining(remaining)
	defer c.setRemaining(0)
	c.emit(Status{SessionID: sessionID, State: fsm.StateRecording, Remaining: remaining})

	deadline := time.NewTimer(c.opts.Duration)
	defer deadline.Stop()
	ticker := time.NewTicker(c.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return StopCancelled
		case <-c.actions:
			return StopRequested
		case <-deadline.C:
			return StopTimeout
		case <-ticker.C:
			remaining -= c.opts.Tick
			if remaining <= 0 {
				continue
			}
			c.setRemaining(remaining)
			c.emit(Status{SessionID: sessionID, State: fsm.StateRecording, Remaining: remaining})
		}
	}
}

// encode concatenates captured fragments and re-encodes them as WAV.
func (c *Controller) encode(recording Recording) ([]byte, error) {
	pcm := bytes.Join(recording.Fragments(), nil)
	if int64(len(pcm)) < c.opts.MinBytes {
		return nil, &CaptureTooShortError{Captured: int64(len(pcm)), Min: c.opts.MinBytes}
	}

	format := recording.Format()
	buf, err := wav.DecodePCM16(pcm, format.SampleRate, format.Channels)
	if err != nil {
		return nil, err
	}
	return wav.Encode(buf)
}

// fail records err as the terminal failure and returns the controller to idle.
func (c *Controller) fail(result Result, err error) Result {
	c.toFailedAndReset()
	result.State = fsm.StateFailed
	result.Err = err
	result.FinishedAt = time.Now()
	c.emit(Status{SessionID: result.SessionID, State: fsm.StateFailed, Err: err})
	return result
}

func (c *Controller) setRemaining(d time.Duration) {
	c.mu.Lock()
	c.remaining = d
	c.mu.Unlock()
}

func (c *Controller) emit(status Status) {
	c.observer.Observe(status)
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		c.mu.RLock()
		resp := ipc.Response{OK: true, State: string(c.state), RemainingMS: c.remaining.Milliseconds(), Message: "status"}
		c.mu.RUnlock()
		return resp
	case ipc.CommandStop:
		return c.requestStop()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// Stop requests an early end of the recording phase. It is a no-op outside recording.
func (c *Controller) Stop() ipc.Response {
	return c.requestStop()
}

// requestStop enqueues a stop action when recording; otherwise it is a no-op.
func (c *Controller) requestStop() ipc.Response {
	state := c.State()
	if state != fsm.StateRecording {
		return ipc.Response{OK: true, State: string(state), Message: "no active recording"}
	}

	select {
	case c.actions <- actionStop:
		return ipc.Response{OK: true, State: string(state), Message: "stop requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "stop already requested"}
	}
}

// drainActions drops stop requests left over from a previous session.
func (c *Controller) drainActions() {
	for {
		select {
		case <-c.actions:
		default:
			return
		}
	}
}

// toFailedAndReset transitions to failed and back to idle best-effort.
func (c *Controller) toFailedAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

// logWarn emits warning-level logs when logger is configured.
func (c *Controller) logWarn(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(message, args...)
}
