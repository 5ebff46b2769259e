package manager

import (
	"errors"
	"fmt"
	"time"

	"github.com/NikitaDmitryuk/polyfetch/internal/downloader"
	"github.com/NikitaDmitryuk/polyfetch/internal/lang"
	"github.com/NikitaDmitryuk/polyfetch/internal/logutils"
	"github.com/NikitaDmitryuk/polyfetch/internal/ui"
	"github.com/NikitaDmitryuk/polyfetch/internal/utils"
)

// monitorDownload consumes one download's channels until a terminal
// event arrives and translates it into progress rows and status lines.
// A failing download never takes the other downloads with it.
func (dm *DownloadManager) monitorDownload(id string, job *downloadJob) {
	defer func() {
		job.cancel()
		dm.mu.Lock()
		delete(dm.jobs, id)
		dm.mu.Unlock()
	}()

	label := string(job.entry.Variant)

	var received int64
	var total int64

	updateTicker := time.NewTicker(statusLogInterval)
	defer updateTicker.Stop()

	var timeoutChan <-chan time.Time
	if dm.downloadSettings.DownloadTimeout > 0 {
		timeoutTimer := time.NewTimer(dm.downloadSettings.DownloadTimeout)
		timeoutChan = timeoutTimer.C
		defer timeoutTimer.Stop()
	}

	for {
		select {
		case n, ok := <-job.progressChan:
			if !ok {
				job.progressChan = nil
				continue
			}
			received += n
			dm.sink.Advance(id, n)

		case size, ok := <-job.totalChan:
			if !ok {
				job.totalChan = nil
				continue
			}
			total = size
			dm.sink.SetTotal(id, size)

		case err, ok := <-job.errChan:
			if !ok {
				// The channel closed without a final value; the stream
				// must have ended cleanly.
				dm.finishSuccess(id, label, received, time.Since(job.startTime))
				return
			}
			dm.finalize(id, label, err, received, time.Since(job.startTime))
			return

		case <-updateTicker.C:
			logutils.Log.WithFields(map[string]any{
				"variant":  label,
				"received": received,
				"total":    total,
				"elapsed":  time.Since(job.startTime),
			}).Debug("Download status update")

		case <-timeoutChan:
			err := fmt.Errorf("download timeout after %v", dm.downloadSettings.DownloadTimeout)
			logutils.Log.WithError(err).WithField("variant", label).Error("Download timed out")
			if stopErr := job.downloader.StopDownload(); stopErr != nil {
				logutils.Log.WithError(stopErr).WithField("variant", label).Warn("Issue stopping downloader (may have stopped anyway)")
			}
			dm.sink.FinishRow(id, false)
			dm.sink.Println(ui.ErrorStyle.Render(
				lang.GetMessage(lang.DownloadTransportErrorMsgID, label, err)))
			return

		case <-job.ctx.Done():
			// Cancellation freezes the row as it stands; the closing
			// notice comes from the caller.
			logutils.Log.WithField("variant", label).Info("Download cancelled")
			return
		}
	}
}

// finalize maps the download's terminal error to its reported outcome.
func (dm *DownloadManager) finalize(id, label string, err error, received int64, elapsed time.Duration) {
	var redirect *downloader.RedirectError
	var status *downloader.HTTPStatusError

	switch {
	case err == nil:
		dm.finishSuccess(id, label, received, elapsed)

	case errors.Is(err, downloader.ErrStoppedByUser):
		logutils.Log.WithField("variant", label).Info("Download stopped by user")

	case errors.As(err, &redirect):
		logutils.Log.WithFields(map[string]any{
			"variant":  label,
			"location": redirect.Location,
		}).Info("Download answered with a redirect")

		location := redirect.Location
		if location == "" {
			location = "unknown"
		}
		dm.sink.Println(ui.WarnStyle.Render(
			lang.GetMessage(lang.DownloadRedirectedMsgID, label, location)))
		dm.sink.RemoveRow(id)

	case errors.As(err, &status):
		logutils.Log.WithFields(map[string]any{
			"variant": label,
			"status":  status.Code,
		}).Info("Download answered with an HTTP error")

		dm.sink.Println(ui.ErrorStyle.Render(
			lang.GetMessage(lang.DownloadHTTPErrorMsgID, label, status.Code)))
		dm.sink.RemoveRow(id)

	default:
		logutils.Log.WithError(err).WithField("variant", label).Error("Download failed")

		dm.sink.Println(ui.ErrorStyle.Render(
			lang.GetMessage(lang.DownloadTransportErrorMsgID, label, utils.DownloadErrorMessage(err))))
		dm.sink.FinishRow(id, false)
	}
}

func (dm *DownloadManager) finishSuccess(id, label string, received int64, elapsed time.Duration) {
	logutils.Log.WithFields(map[string]any{
		"variant":  label,
		"received": received,
		"elapsed":  elapsed,
	}).Info("Download completed successfully")

	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	speed := float64(received) / elapsed.Seconds()

	dm.sink.FinishRow(id, true)
	dm.sink.Println(ui.SuccessStyle.Render(lang.GetMessage(
		lang.DownloadResultMsgID,
		label,
		utils.FormatBytes(received),
		utils.FormatDuration(elapsed),
		utils.FormatSpeed(speed),
	)))
}

func (dm *DownloadManager) GetActiveDownloads() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	downloads := make([]string, 0, len(dm.jobs))
	for id := range dm.jobs {
		downloads = append(downloads, id)
	}
	return downloads
}

func (dm *DownloadManager) GetDownloadCount() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.jobs)
}
