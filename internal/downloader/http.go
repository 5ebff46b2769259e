package downloader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	pfconfig "github.com/NikitaDmitryuk/polyfetch/internal/config"
	"github.com/NikitaDmitryuk/polyfetch/internal/httpclient"
	"github.com/NikitaDmitryuk/polyfetch/internal/logutils"
	"github.com/NikitaDmitryuk/polyfetch/internal/plan"
	"golang.org/x/time/rate"
)

// HTTPDownloader streams one URL over a single pinned protocol variant.
// The body is read in fixed-size chunks and discarded; only the byte
// counts reach the progress channel.
type HTTPDownloader struct {
	entry           plan.Entry
	client          *http.Client
	chunkSize       int
	limiter         *rate.Limiter
	cancel          context.CancelFunc
	stoppedManually atomic.Bool
}

func NewHTTPDownloader(entry plan.Entry, cfg *pfconfig.Config) (Downloader, error) {
	settings := cfg.GetDownloadSettings()

	client, err := httpclient.New(httpclient.Config{
		Proto:           entry.Variant.Proto(),
		Secure:          entry.Variant.Secure(),
		FollowRedirects: entry.FollowRedirects,
		Timeout:         settings.DownloadTimeout,
	})
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if settings.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.RateLimit), int(settings.RateLimit))
	}

	return &HTTPDownloader{
		entry:     entry,
		client:    client,
		chunkSize: settings.ChunkSize,
		limiter:   limiter,
	}, nil
}

func (d *HTTPDownloader) Label() string {
	return string(d.entry.Variant)
}

func (d *HTTPDownloader) StoppedManually() bool {
	return d.stoppedManually.Load()
}

func (d *HTTPDownloader) StartDownload(
	ctx context.Context,
) (progressChan chan int64, totalChan <-chan int64, errChan chan error, err error) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.entry.URL, nil)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	httpclient.ApplyBrowserHeaders(req)

	logutils.Log.WithFields(map[string]any{
		"variant": d.entry.Variant,
		"url":     d.entry.URL,
	}).Debug("Starting download")

	progressChan = make(chan int64)
	totalCh := make(chan int64, 1)
	errChan = make(chan error, 1)

	go d.run(ctx, req, progressChan, totalCh, errChan)

	return progressChan, totalCh, errChan, nil
}

func (d *HTTPDownloader) StopDownload() error {
	d.stoppedManually.Store(true)
	if d.cancel != nil {
		d.cancel()
	}
	return nil
}

// run performs the request and streams the body. It sends exactly one
// value on errChan and closes every channel before returning, so the
// monitor never blocks on a finished download.
func (d *HTTPDownloader) run(
	ctx context.Context,
	req *http.Request,
	progressChan chan int64,
	totalChan chan int64,
	errChan chan error,
) {
	defer close(errChan)
	defer close(progressChan)
	defer close(totalChan)

	resp, err := d.client.Do(req)
	if err != nil {
		errChan <- d.classify(ctx, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		errChan <- &RedirectError{Code: resp.StatusCode, Location: resp.Header.Get("Location")}
		return
	}
	if resp.StatusCode != http.StatusOK {
		errChan <- &HTTPStatusError{Code: resp.StatusCode}
		return
	}

	// Content-Length is -1 when the server streams without announcing a
	// size; the progress row then counts bytes with no known total.
	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	totalChan <- total

	logutils.Log.WithFields(map[string]any{
		"variant": d.entry.Variant,
		"proto":   resp.Proto,
		"total":   total,
	}).Debug("Download stream opened")

	buf := make([]byte, d.chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if d.limiter != nil {
				if waitErr := d.limiter.WaitN(ctx, n); waitErr != nil {
					errChan <- d.classify(ctx, waitErr)
					return
				}
			}
			select {
			case progressChan <- int64(n):
			case <-ctx.Done():
				errChan <- ErrStoppedByUser
				return
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			errChan <- d.classify(ctx, readErr)
			return
		}
	}

	errChan <- nil
}

// classify folds cancellation into ErrStoppedByUser so the monitor can
// tell an operator stop apart from a genuine transport failure.
func (d *HTTPDownloader) classify(ctx context.Context, err error) error {
	if d.stoppedManually.Load() || errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return ErrStoppedByUser
	}
	return err
}
