package manager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NikitaDmitryuk/polyfetch/internal/config"
	"github.com/NikitaDmitryuk/polyfetch/internal/downloader"
	"github.com/NikitaDmitryuk/polyfetch/internal/lang"
	"github.com/NikitaDmitryuk/polyfetch/internal/logutils"
	"github.com/NikitaDmitryuk/polyfetch/internal/plan"
	"github.com/NikitaDmitryuk/polyfetch/internal/progress"
	"github.com/NikitaDmitryuk/polyfetch/internal/ui"
	"github.com/NikitaDmitryuk/polyfetch/internal/utils"
)

func NewDownloadManager(cfg *config.Config, sink progress.Sink) *DownloadManager {
	return &DownloadManager{
		jobs:             make(map[string]*downloadJob),
		semaphore:        make(chan struct{}, cfg.GetDownloadSettings().MaxConcurrentDownloads),
		downloadSettings: cfg.GetDownloadSettings(),
		cfg:              cfg,
		sink:             sink,
		factory:          downloader.NewHTTPDownloader,
	}
}

// RunPlan runs one test download per plan entry and blocks until all
// of them reached a final state or ctx was cancelled. Every entry gets
// its progress row up front so the display shows the full plan before
// the first request goes out.
func (dm *DownloadManager) RunPlan(ctx context.Context, entries []plan.Entry) {
	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = uuid.NewString()
		dm.sink.AddRow(ids[i], string(entry.Variant))
	}

	logutils.Log.WithField("entries", len(entries)).Info("Starting download tests")

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(id string, entry plan.Entry) {
			defer wg.Done()
			dm.runEntry(ctx, id, entry)
		}(ids[i], entry)
	}
	wg.Wait()
}

func (dm *DownloadManager) runEntry(ctx context.Context, id string, entry plan.Entry) {
	select {
	case dm.semaphore <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-dm.semaphore }()

	dl, err := dm.factory(entry, dm.cfg)
	if err != nil {
		dm.failBeforeStart(id, entry, err)
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)

	progressChan, totalChan, errChan, err := dl.StartDownload(jobCtx)
	if err != nil {
		cancel()
		dm.failBeforeStart(id, entry, err)
		return
	}

	job := &downloadJob{
		downloader:   dl,
		entry:        entry,
		startTime:    time.Now(),
		progressChan: progressChan,
		totalChan:    totalChan,
		errChan:      errChan,
		ctx:          jobCtx,
		cancel:       cancel,
	}

	dm.mu.Lock()
	dm.jobs[id] = job
	dm.mu.Unlock()

	dm.monitorDownload(id, job)
}

// failBeforeStart reports a download that never opened its stream. The
// row stays on screen marked as failed.
func (dm *DownloadManager) failBeforeStart(id string, entry plan.Entry, err error) {
	logutils.Log.WithError(err).WithField("variant", entry.Variant).Error("Failed to start download")

	dm.sink.FinishRow(id, false)
	dm.sink.Println(ui.ErrorStyle.Render(
		lang.GetMessage(lang.DownloadTransportErrorMsgID, string(entry.Variant), utils.DownloadErrorMessage(err))))
}

func (dm *DownloadManager) StopAllDownloads() {
	dm.mu.Lock()
	jobs := make(map[string]*downloadJob, len(dm.jobs))
	for k, v := range dm.jobs {
		jobs[k] = v
	}
	dm.mu.Unlock()

	for id, job := range jobs {
		logutils.Log.WithField("variant", job.entry.Variant).Info("Stopping download")
		if err := job.downloader.StopDownload(); err != nil {
			logutils.Log.WithError(err).WithField("download_id", id).Warn("Issue stopping downloader (may have stopped anyway)")
		}
		job.cancel()
	}
}
