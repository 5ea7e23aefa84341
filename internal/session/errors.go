package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionActive indicates Run was called while another session is in progress.
	ErrSessionActive = errors.New("a recording session is already in progress")
	// ErrPipelineUnavailable indicates runtime recorder or classifier wiring is missing.
	ErrPipelineUnavailable = errors.New("capture or classifier pipeline not configured")
)

// DeviceError reports microphone permission or hardware failures.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return "microphone unavailable"
	}
	return "microphone unavailable: " + e.Err.Error()
}

func (e *DeviceError) Unwrap() error { return e.Err }

// CaptureTooShortError reports a capture below the configured minimum size.
type CaptureTooShortError struct {
	Captured int64
	Min      int64
}

func (e *CaptureTooShortError) Error() string {
	return fmt.Sprintf("recording too short: captured %d bytes, need at least %d", e.Captured, e.Min)
}

// UploadError reports network, HTTP status, or response decoding failures.
type UploadError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("upload failed: HTTP %d: %s", e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("upload failed: HTTP %d", e.StatusCode)
	case e.Err != nil:
		return "upload failed: " + e.Err.Error()
	default:
		return "upload failed"
	}
}

func (e *UploadError) Unwrap() error { return e.Err }

// asDeviceError wraps err unless it already is a DeviceError.
func asDeviceError(err error) error {
	var deviceErr *DeviceError
	if errors.As(err, &deviceErr) {
		return err
	}
	return &DeviceError{Err: err}
}

// asUploadError wraps err unless it already is an UploadError.
func asUploadError(err error) error {
	var uploadErr *UploadError
	if errors.As(err, &uploadErr) {
		return err
	}
	return &UploadError{Err: err}
}
