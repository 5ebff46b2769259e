package downloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/polyfetch/internal/logutils"
	"github.com/NikitaDmitryuk/polyfetch/internal/plan"
	"github.com/NikitaDmitryuk/polyfetch/internal/testutils"
)

func TestMain(m *testing.M) {
	logutils.InitLogger("debug")
	os.Exit(m.Run())
}

func newTestDownloader(t *testing.T, url string, follow bool) Downloader {
	t.Helper()

	entry := plan.Entry{
		URL:             url,
		Variant:         plan.VariantPlainHTTP1,
		FollowRedirects: follow,
	}
	d, err := NewHTTPDownloader(entry, testutils.TestConfig())
	if err != nil {
		t.Fatalf("Failed to create downloader: %v", err)
	}

	return d
}

// runDownload drives the channel protocol to completion the way the
// manager does and returns the observed deltas, total and final error.
func runDownload(t *testing.T, d Downloader) (deltas []int64, total int64, finalErr error) {
	t.Helper()

	progressChan, totalChan, errChan, err := d.StartDownload(context.Background())
	if err != nil {
		t.Fatalf("Failed to start download: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case n, ok := <-progressChan:
			if !ok {
				progressChan = nil
				continue
			}
			deltas = append(deltas, n)
		case size, ok := <-totalChan:
			if !ok {
				totalChan = nil
				continue
			}
			total = size
		case e, ok := <-errChan:
			if !ok {
				t.Fatal("Error channel closed without a final value")
			}
			return deltas, total, e
		case <-deadline:
			t.Fatal("Timed out waiting for the download to finish")
		}
	}
}

func sum(deltas []int64) int64 {
	var s int64
	for _, n := range deltas {
		s += n
	}
	return s
}

func TestHTTPDownloader_Success(t *testing.T) {
	const size = 64 * 1024
	server := testutils.MockByteServer(t, size)

	d := newTestDownloader(t, server.URL, false)
	deltas, total, err := runDownload(t, d)

	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if total != size {
		t.Errorf("Expected total %d, got %d", size, total)
	}
	if got := sum(deltas); got != size {
		t.Errorf("Expected %d bytes streamed, got %d", size, got)
	}
	if d.StoppedManually() {
		t.Error("Download should not be marked as stopped manually")
	}
}

func TestHTTPDownloader_DeltasBoundedByChunkSize(t *testing.T) {
	const size = 10 * 1024
	const chunk = 1024
	server := testutils.MockByteServer(t, size)

	cfg := testutils.TestConfig()
	cfg.DownloadSettings.ChunkSize = chunk
	entry := plan.Entry{URL: server.URL, Variant: plan.VariantPlainHTTP1}
	d, err := NewHTTPDownloader(entry, cfg)
	if err != nil {
		t.Fatalf("Failed to create downloader: %v", err)
	}

	deltas, _, downloadErr := runDownload(t, d)
	if downloadErr != nil {
		t.Fatalf("Expected success, got error: %v", downloadErr)
	}
	if len(deltas) < size/chunk {
		t.Errorf("Expected at least %d deltas, got %d", size/chunk, len(deltas))
	}
	for i, n := range deltas {
		if n <= 0 || n > chunk {
			t.Errorf("Delta %d out of range: %d", i, n)
		}
	}
}

func TestHTTPDownloader_UnknownTotal(t *testing.T) {
	const size = 32 * 1024
	server := testutils.MockChunkedServer(t, size)

	d := newTestDownloader(t, server.URL, false)
	deltas, total, err := runDownload(t, d)

	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected unknown total to be reported as 0, got %d", total)
	}
	if got := sum(deltas); got != size {
		t.Errorf("Expected %d bytes streamed, got %d", size, got)
	}
}

func TestHTTPDownloader_RedirectReported(t *testing.T) {
	const location = "https://elsewhere.example/file"
	server := testutils.MockRedirectServer(t, http.StatusFound, location)

	d := newTestDownloader(t, server.URL, false)
	deltas, total, err := runDownload(t, d)

	var redirect *RedirectError
	if !errors.As(err, &redirect) {
		t.Fatalf("Expected a RedirectError, got %v", err)
	}
	if redirect.Code != http.StatusFound {
		t.Errorf("Expected status %d, got %d", http.StatusFound, redirect.Code)
	}
	if redirect.Location != location {
		t.Errorf("Expected location %q, got %q", location, redirect.Location)
	}
	if len(deltas) != 0 || total != 0 {
		t.Errorf("Redirect must not stream a body, got %d deltas and total %d", len(deltas), total)
	}
}

func TestHTTPDownloader_FollowsRedirectsWhenConfigured(t *testing.T) {
	const size = 4 * 1024
	payload := make([]byte, size)

	mux := http.NewServeMux()
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write(payload); err != nil {
			t.Logf("Failed to write payload: %v", err)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	d := newTestDownloader(t, server.URL, true)
	deltas, total, err := runDownload(t, d)

	if err != nil {
		t.Fatalf("Expected the redirect to be followed, got error: %v", err)
	}
	if total != size {
		t.Errorf("Expected total %d, got %d", size, total)
	}
	if got := sum(deltas); got != size {
		t.Errorf("Expected %d bytes streamed, got %d", size, got)
	}
}

func TestHTTPDownloader_HTTPStatusReported(t *testing.T) {
	server := testutils.MockStatusServer(t, http.StatusNotFound)

	d := newTestDownloader(t, server.URL, false)
	_, _, err := runDownload(t, d)

	var status *HTTPStatusError
	if !errors.As(err, &status) {
		t.Fatalf("Expected an HTTPStatusError, got %v", err)
	}
	if status.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, status.Code)
	}
}

func TestHTTPDownloader_TransportErrorMidBody(t *testing.T) {
	server := testutils.MockAbortServer(t, 1024*1024, 16*1024)

	d := newTestDownloader(t, server.URL, false)
	deltas, total, err := runDownload(t, d)

	if err == nil {
		t.Fatal("Expected a transport error, got success")
	}
	if errors.Is(err, ErrStoppedByUser) {
		t.Errorf("Transport failure must not look like a manual stop: %v", err)
	}
	var redirect *RedirectError
	var status *HTTPStatusError
	if errors.As(err, &redirect) || errors.As(err, &status) {
		t.Errorf("Expected a plain transport error, got %v", err)
	}
	if total != 1024*1024 {
		t.Errorf("Expected the announced total %d, got %d", 1024*1024, total)
	}
	if got := sum(deltas); got >= 1024*1024 {
		t.Errorf("Expected a truncated stream, got %d bytes", got)
	}
}

func TestHTTPDownloader_StopDownload(t *testing.T) {
	server := testutils.MockSlowServer(t)

	d := newTestDownloader(t, server.URL, false)
	progressChan, totalChan, errChan, err := d.StartDownload(context.Background())
	if err != nil {
		t.Fatalf("Failed to start download: %v", err)
	}

	var received int64
	stopped := false
	deadline := time.After(5 * time.Second)
	for {
		select {
		case n, ok := <-progressChan:
			if !ok {
				progressChan = nil
				continue
			}
			received += n
			if !stopped && received > 0 {
				stopped = true
				if stopErr := d.StopDownload(); stopErr != nil {
					t.Fatalf("Failed to stop download: %v", stopErr)
				}
			}
		case _, ok := <-totalChan:
			if !ok {
				totalChan = nil
			}
		case e := <-errChan:
			if !errors.Is(e, ErrStoppedByUser) {
				t.Errorf("Expected ErrStoppedByUser, got %v", e)
			}
			if !d.StoppedManually() {
				t.Error("Downloader should report a manual stop")
			}
			return
		case <-deadline:
			t.Fatal("Timed out waiting for the stop to take effect")
		}
	}
}

func TestHTTPDownloader_ParentContextCancel(t *testing.T) {
	server := testutils.MockSlowServer(t)

	d := newTestDownloader(t, server.URL, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progressChan, totalChan, errChan, err := d.StartDownload(ctx)
	if err != nil {
		t.Fatalf("Failed to start download: %v", err)
	}

	cancelled := false
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-progressChan:
			if !ok {
				progressChan = nil
				continue
			}
			if !cancelled {
				cancelled = true
				cancel()
			}
		case _, ok := <-totalChan:
			if !ok {
				totalChan = nil
			}
		case e := <-errChan:
			if !errors.Is(e, ErrStoppedByUser) {
				t.Errorf("Expected cancellation to surface as ErrStoppedByUser, got %v", e)
			}
			if d.StoppedManually() {
				t.Error("Context cancellation is not a manual stop")
			}
			return
		case <-deadline:
			t.Fatal("Timed out waiting for the cancellation to take effect")
		}
	}
}

func TestHTTPDownloader_InvalidURLFailsSetup(t *testing.T) {
	entry := plan.Entry{URL: "http://example.com/%zz", Variant: plan.VariantPlainHTTP1}
	d, err := NewHTTPDownloader(entry, testutils.TestConfig())
	if err != nil {
		t.Fatalf("Client construction should succeed: %v", err)
	}

	progressChan, totalChan, errChan, startErr := d.StartDownload(context.Background())
	if startErr == nil {
		t.Fatal("Expected a setup error for an unparsable URL")
	}
	if progressChan != nil || totalChan != nil || errChan != nil {
		t.Error("No channels should be handed out when setup fails")
	}
}

func TestHTTPDownloader_Label(t *testing.T) {
	entry := plan.Entry{URL: "http://example.com/", Variant: plan.VariantPlainHTTP1}
	d, err := NewHTTPDownloader(entry, testutils.TestConfig())
	if err != nil {
		t.Fatalf("Failed to create downloader: %v", err)
	}

	if d.Label() != string(plan.VariantPlainHTTP1) {
		t.Errorf("Expected label %q, got %q", plan.VariantPlainHTTP1, d.Label())
	}
}

func TestNewHTTPDownloader_RateLimiter(t *testing.T) {
	cfg := testutils.TestConfig()
	cfg.DownloadSettings.RateLimit = 64 * 1024

	entry := plan.Entry{URL: "http://example.com/", Variant: plan.VariantPlainHTTP1}
	d, err := NewHTTPDownloader(entry, cfg)
	if err != nil {
		t.Fatalf("Failed to create downloader: %v", err)
	}

	hd, ok := d.(*HTTPDownloader)
	if !ok {
		t.Fatalf("Expected an *HTTPDownloader, got %T", d)
	}
	if hd.limiter == nil {
		t.Error("Expected a rate limiter for a nonzero limit")
	}
}
