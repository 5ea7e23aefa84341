package classifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/warbler/internal/session"
)

func TestClassifyPostsMultipartWAV(t *testing.T) {
	payload := []byte("RIFF....WAVEfmt fake")
	var gotRequestID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		gotRequestID = r.Header.Get("X-Request-Id")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Len(t, r.MultipartForm.File, 1)
		files := r.MultipartForm.File["file"]
		require.Len(t, files, 1)
		require.Equal(t, "recording.wav", files[0].Filename)
		require.Equal(t, "audio/wav", files[0].Header.Get("Content-Type"))

		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		body, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, payload, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions":[{"bird":"Hooded Crow","confidence":0.92},{"bird":"Eurasian Jay","confidence":0.05}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := New(Config{Endpoint: server.URL, Timeout: time.Second})
	require.NoError(t, err)

	ctx := session.WithID(context.Background(), "session-123")
	predictions, err := client.Classify(ctx, payload)
	require.NoError(t, err)
	require.Equal(t, []session.Prediction{
		{Species: "Hooded Crow", Confidence: 0.92},
		{Species: "Eurasian Jay", Confidence: 0.05},
	}, predictions)
	require.Equal(t, "session-123", gotRequestID)
}

func TestClassifyEmptyAndMissingPredictionsAreValid(t *testing.T) {
	for _, body := range []string{`{"predictions":[]}`, `{}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		client, err := New(Config{Endpoint: server.URL})
		require.NoError(t, err)

		predictions, err := client.Classify(context.Background(), []byte("wav"))
		require.NoError(t, err, body)
		require.NotNil(t, predictions, body)
		require.Empty(t, predictions, body)
		server.Close()
	}
}

func TestClassifyNonSuccessStatusIsUploadError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := New(Config{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), []byte("wav"))
	require.Error(t, err)

	var uploadErr *session.UploadError
	require.True(t, errors.As(err, &uploadErr))
	require.Equal(t, http.StatusInternalServerError, uploadErr.StatusCode)
	require.Contains(t, uploadErr.Body, "model crashed")
	require.Equal(t, 1, calls, "upload must not be retried")
}

func TestClassifyMalformedJSONIsUploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	t.Cleanup(server.Close)

	client, err := New(Config{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), []byte("wav"))
	var uploadErr *session.UploadError
	require.True(t, errors.As(err, &uploadErr))
	require.Contains(t, err.Error(), "decode response")
}

func TestClassifyNetworkErrorIsUploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL
	server.Close()

	client, err := New(Config{Endpoint: endpoint})
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), []byte("wav"))
	var uploadErr *session.UploadError
	require.True(t, errors.As(err, &uploadErr))
	require.Zero(t, uploadErr.StatusCode)
}

func TestClassifyTimeoutIsUploadError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client, err := New(Config{Endpoint: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), []byte("wav"))
	var uploadErr *session.UploadError
	require.True(t, errors.As(err, &uploadErr))
}

func TestNewValidatesEndpoint(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{Endpoint: "ftp://example.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "http(s)")

	client, err := New(Config{Endpoint: " https://example.com/analyze "})
	require.NoError(t, err)
	require.Equal(t, "https://example.com/analyze", client.Endpoint())
	require.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}

func TestSnippetTruncatesLongBodies(t *testing.T) {
	long := strings.Repeat("x", 1000)
	got := snippet([]byte(long))
	require.True(t, strings.HasSuffix(got, "…"))
	require.LessOrEqual(t, len(got), maxErrorSnippet+len("…"))
}
