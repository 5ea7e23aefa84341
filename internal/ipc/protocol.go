// Package ipc carries stop/status commands to the process that owns the microphone.
//
// Each connection carries one newline-terminated JSON Request followed by one
// newline-terminated JSON Response.
package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	CommandStatus = "status"
	CommandStop   = "stop"
)

const maxMessageBytes = 4096

// Request is one command sent to the owner.
type Request struct {
	Command string `json:"command"`
}

// Response is the owner's reply. RemainingMS is the recording countdown.
type Response struct {
	OK          bool   `json:"ok"`
	State       string `json:"state,omitempty"`
	RemainingMS int64  `json:"remaining_ms,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

func writeMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func readMessage(r io.Reader, v any) error {
	line, err := bufio.NewReader(io.LimitReader(r, maxMessageBytes)).ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) == maxMessageBytes {
			return fmt.Errorf("message exceeds %d bytes", maxMessageBytes)
		}
		return err
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
