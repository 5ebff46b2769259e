package manager

import (
	"context"
	"sync"
	"time"

	"github.com/NikitaDmitryuk/polyfetch/internal/config"
	"github.com/NikitaDmitryuk/polyfetch/internal/downloader"
	"github.com/NikitaDmitryuk/polyfetch/internal/plan"
	"github.com/NikitaDmitryuk/polyfetch/internal/progress"
)

// statusLogInterval paces the periodic debug log line per active
// download; the progress display has its own faster refresh.
const statusLogInterval = 5 * time.Second

// Service defines the external interface for the download manager.
// Consumers outside the manager package should depend on this interface.
type Service interface {
	RunPlan(ctx context.Context, entries []plan.Entry)
	StopAllDownloads()
	GetActiveDownloads() []string
}

// Factory builds the downloader for one plan entry. Tests swap it to
// inject scripted downloaders.
type Factory func(entry plan.Entry, cfg *config.Config) (downloader.Downloader, error)

type DownloadManager struct {
	mu               sync.RWMutex
	jobs             map[string]*downloadJob
	semaphore        chan struct{}
	downloadSettings config.DownloadConfig
	cfg              *config.Config
	sink             progress.Sink
	factory          Factory
}

type downloadJob struct {
	downloader   downloader.Downloader
	entry        plan.Entry
	startTime    time.Time
	progressChan chan int64
	totalChan    <-chan int64
	errChan      chan error
	ctx          context.Context
	cancel       context.CancelFunc
}
