package downloader

import (
	"errors"
	"fmt"
)

// ErrStoppedByUser is sent on errChan when the download was stopped manually.
// The monitor finalizes the test as cancelled rather than failed.
var ErrStoppedByUser = errors.New("download stopped by user")

// RedirectError is the final result of a download whose transport does not
// follow redirects and whose first response was a 3xx.
type RedirectError struct {
	Code     int
	Location string
}

func (e *RedirectError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("server redirected with status %d", e.Code)
	}
	return fmt.Sprintf("server redirected with status %d to %s", e.Code, e.Location)
}

// HTTPStatusError is the final result of a download answered with a
// non-200, non-redirect status. No body is streamed.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.Code)
}
