package downloader

import (
	"context"
)

// Downloader runs one protocol test download. StartDownload returns
// immediately; progressChan carries byte deltas as the body streams,
// totalChan delivers the expected size once response headers arrive
// (0 when the server does not announce one), and errChan delivers
// exactly one final value, nil on success.
type Downloader interface {
	Label() string
	StoppedManually() bool
	StartDownload(ctx context.Context) (progressChan chan int64, totalChan <-chan int64, errChan chan error, err error)
	StopDownload() error
}
