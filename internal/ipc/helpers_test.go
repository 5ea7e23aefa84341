package ipc

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func socketPathForTest(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), SocketName)
}

// serveForTest runs Serve on path and returns a func that stops it and
// asserts a clean shutdown.
func serveForTest(t *testing.T, path string, handler HandlerFunc) func() {
	t.Helper()

	listener, err := net.Listen("unix", path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, listener, handler) }()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

// rawServerForTest accepts one connection and hands it to fn.
func rawServerForTest(t *testing.T, path string, fn func(net.Conn)) {
	t.Helper()

	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn)
	}()
}
