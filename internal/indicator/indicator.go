// Package indicator renders session progress as a terminal status line.
package indicator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/rbright/warbler/internal/fsm"
	"github.com/rbright/warbler/internal/session"
)

// Terminal writes one status line per session transition. On a TTY the line
// is redrawn in place; otherwise every status is its own line.
type Terminal struct {
	out      io.Writer
	tty      bool
	messages messages

	mu   sync.Mutex
	open bool
	last string
}

// NewTerminal creates a status-line observer writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{
		out:      out,
		tty:      isTerminal(out),
		messages: indicatorMessagesFromEnv(),
	}
}

// Observe implements session.Observer.
func (t *Terminal) Observe(status session.Status) {
	line := t.Line(status)
	if line == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if line == t.last && !fsm.IsTerminal(status.State) {
		return
	}
	t.last = line

	if !t.tty {
		_, _ = fmt.Fprintln(t.out, line)
		return
	}

	_, _ = fmt.Fprint(t.out, "\r\033[K"+line)
	t.open = true
	if fsm.IsTerminal(status.State) {
		_, _ = fmt.Fprintln(t.out)
		t.open = false
		t.last = ""
	}
}

// Line is the user-visible text for status.
func (t *Terminal) Line(status session.Status) string {
	m := t.messages
	switch status.State {
	case fsm.StatePreparing:
		return m.preparing
	case fsm.StateRecording:
		if status.Remaining > 0 {
			return fmt.Sprintf("%s %ds", m.recording, int(math.Ceil(status.Remaining.Seconds())))
		}
		return m.recording
	case fsm.StateEncoding:
		return m.processing
	case fsm.StateUploading:
		return m.analyzing
	case fsm.StateComplete:
		return m.complete
	case fsm.StateFailed:
		return m.errorLine(status.Err)
	default:
		return ""
	}
}

// ErrorMessage maps a session failure to its headline text.
func ErrorMessage(err error) string {
	return indicatorMessagesFromEnv().errorHeadline(err)
}

func (m messages) errorLine(err error) string {
	headline := m.errorHeadline(err)
	if err == nil {
		return headline
	}
	detail := strings.TrimSpace(err.Error())
	if detail == "" {
		return headline
	}
	if strings.HasPrefix(strings.ToLower(detail), strings.ToLower(headline)) {
		return headline + detail[len(headline):]
	}
	return headline + ": " + detail
}

func (m messages) errorHeadline(err error) string {
	var (
		deviceErr   *session.DeviceError
		tooShortErr *session.CaptureTooShortError
		uploadErr   *session.UploadError
	)
	switch {
	case errors.As(err, &deviceErr):
		return m.microphoneUnavailable
	case errors.As(err, &tooShortErr):
		return m.tooShort
	case errors.As(err, &uploadErr):
		return m.analysisFailed
	case errors.Is(err, session.ErrSessionActive):
		return m.busy
	case errors.Is(err, context.Canceled):
		return m.cancelled
	default:
		return m.recordingFailed
	}
}

// Close terminates a line left open by an interrupted session.
func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		_, _ = fmt.Fprintln(t.out)
		t.open = false
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
