// Package classifier uploads encoded recordings to the remote bird-sound API.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rbright/warbler/internal/session"
	"github.com/rbright/warbler/internal/version"
)

const (
	// FormField and FileName are the multipart part name and filename the API expects.
	FormField = "file"
	FileName  = "recording.wav"

	// DefaultTimeout covers the service's typical ~30 second analysis time.
	DefaultTimeout = 60 * time.Second

	maxResponseBytes = 1 << 20
	maxErrorSnippet  = 256
)

// Config holds the remote endpoint and the client-side request timeout.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client posts one WAV clip per Classify call. It never retries.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// response is the wire shape of a successful classification.
type response struct {
	Predictions []session.Prediction `json:"predictions"`
}

// New validates cfg and builds a client with its own timeout-bound http.Client.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("classifier endpoint must not be empty")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("classifier endpoint %q must be an http(s) URL", endpoint)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Endpoint returns the configured upload URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Classify uploads wav as the `file` form part and decodes the ranked predictions.
// Every failure is returned as *session.UploadError.
func (c *Client) Classify(ctx context.Context, wav []byte) ([]session.Prediction, error) {
	body, contentType, err := buildMultipart(wav)
	if err != nil {
		return nil, &session.UploadError{Err: fmt.Errorf("build multipart body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, &session.UploadError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if id := session.IDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &session.UploadError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &session.UploadError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &session.UploadError{
			StatusCode: resp.StatusCode,
			Body:       snippet(respBody),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	return decodePredictions(respBody)
}

// decodePredictions parses {"predictions":[...]}; a missing array means zero results.
func decodePredictions(body []byte) ([]session.Prediction, error) {
	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &session.UploadError{Body: snippet(body), Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.Predictions == nil {
		return []session.Prediction{}, nil
	}
	return payload.Predictions, nil
}

// buildMultipart renders a single-part form body carrying the WAV clip.
func buildMultipart(wav []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FormField, FileName))
	header.Set("Content-Type", "audio/wav")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, "", fmt.Errorf("write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// snippet trims a response body for error messages.
func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorSnippet {
		text = text[:maxErrorSnippet] + "…"
	}
	return text
}
