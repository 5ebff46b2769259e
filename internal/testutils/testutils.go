package testutils

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/polyfetch/internal/config"
)

const tickerInterval = 10 * time.Millisecond

// TestConfig creates a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Lang:     "en",
		LogLevel: "debug",

		ProbeSettings: config.ProbeConfig{
			Timeout:   2 * time.Second,
			HTTPPort:  80,
			HTTPSPort: 443,
		},

		DownloadSettings: config.DownloadConfig{
			MaxConcurrentDownloads: 4,
			DownloadTimeout:        10 * time.Second,
			ChunkSize:              8 * 1024,
			RateLimit:              0,
			ProgressUpdateInterval: 20 * time.Millisecond,
		},
	}
}

// ClosedPort returns a port on which nothing is listening.
func ClosedPort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	return port
}

// TCPListener starts a listener that accepts and immediately closes
// connections, enough for a reachability check to see an open port.
func TCPListener(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start listener: %v", err)
	}

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	t.Cleanup(func() {
		listener.Close()
	})

	return listener.Addr().(*net.TCPAddr).Port
}

// ServerPort extracts the numeric port of an httptest server.
func ServerPort(t *testing.T, server *httptest.Server) int {
	t.Helper()

	_, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	if err != nil {
		t.Fatalf("Failed to split server address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Failed to parse server port: %v", err)
	}

	return port
}

// MockByteServer serves a payload of the given size with an accurate
// Content-Length header.
func MockByteServer(t *testing.T, size int) *httptest.Server {
	t.Helper()

	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		if _, err := w.Write(payload); err != nil {
			t.Logf("Failed to write payload: %v", err)
		}
	}))

	t.Cleanup(server.Close)
	return server
}

// MockChunkedServer serves a payload without a Content-Length header so
// the total size stays unknown to the client.
func MockChunkedServer(t *testing.T, size int) *httptest.Server {
	t.Helper()

	payload := make([]byte, size)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("Response writer does not support flushing")
		}
		// Flushing before the first write forces chunked encoding.
		w.WriteHeader(http.StatusOK)
		flusher.Flush()
		if _, err := w.Write(payload); err != nil {
			t.Logf("Failed to write payload: %v", err)
		}
	}))

	t.Cleanup(server.Close)
	return server
}

// MockRedirectServer answers every request with a redirect.
func MockRedirectServer(t *testing.T, code int, location string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", location)
		w.WriteHeader(code)
	}))

	t.Cleanup(server.Close)
	return server
}

// MockStatusServer answers every request with a fixed status code.
func MockStatusServer(t *testing.T, code int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))

	t.Cleanup(server.Close)
	return server
}

// MockAbortServer announces a large body, sends a prefix of it and then
// kills the stream, producing a mid-transfer transport error.
func MockAbortServer(t *testing.T, announced, sent int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(announced))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(make([]byte, sent)); err != nil {
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		panic(http.ErrAbortHandler)
	}))

	t.Cleanup(server.Close)
	return server
}

// MockSlowServer streams small chunks forever until the client goes
// away, useful for exercising cancellation mid-download.
func MockSlowServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("Response writer does not support flushing")
		}
		w.WriteHeader(http.StatusOK)
		chunk := make([]byte, 1024)
		for {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
			if _, err := w.Write(chunk); err != nil {
				return
			}
			flusher.Flush()
		}
	}))

	t.Cleanup(server.Close)
	return server
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Timeout waiting for condition: %s", message)
		case <-ticker.C:
			if condition() {
				return
			}
		}
	}
}
