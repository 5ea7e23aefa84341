package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rbright/warbler/internal/logging"
	"github.com/rbright/warbler/internal/session"
	"github.com/rbright/warbler/internal/wav"
)

// createDebugFile creates timestamped debug artifacts under state/warbler/debug.
func createDebugFile(prefix string, extension string) (*os.File, error) {
	stateDir, err := logging.StateDir()
	if err != nil {
		return nil, fmt.Errorf("resolve state dir: %w", err)
	}
	debugDir := filepath.Join(stateDir, "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

// writeDebugAudio stores the raw capture as a WAV when debug.audio_dump is enabled.
func (m *Microphone) writeDebugAudio(sessionID string, pcm []byte, format session.Format) {
	if !m.cfg.Debug.AudioDump || len(pcm) == 0 {
		return
	}

	payload, err := wav.EncodePCM16(pcm, format.SampleRate, format.Channels)
	if err != nil {
		m.logWarn("unable to encode debug audio dump", "session_id", sessionID, "error", err.Error())
		return
	}

	file, err := createDebugFile("audio", "wav")
	if err != nil {
		m.logWarn("unable to create debug audio dump", "session_id", sessionID, "error", err.Error())
		return
	}
	defer file.Close()

	if _, err := file.Write(payload); err != nil {
		m.logWarn("unable to write debug audio dump", "session_id", sessionID, "error", err.Error())
		return
	}
	if m.logger != nil {
		m.logger.Debug("wrote debug audio dump", "session_id", sessionID, "path", file.Name(), "bytes", len(payload))
	}
}
