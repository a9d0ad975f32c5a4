// Package media downloads generated media from its delivery URI.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// VideoFilename is the name a downloaded clip is saved under
const VideoFilename = "104-course-video.mp4"

// Fetcher retrieves generated videos
type Fetcher struct {
	HTTPClient *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Download streams uri to outputPath. The file only appears once the
// download completed.
func (f *Fetcher) Download(ctx context.Context, uri, outputPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch video: %w", redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("video URL returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write video: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("video is empty")
	}

	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return 0, fmt.Errorf("failed to save video: %w", err)
	}
	slog.Info("Video downloaded", "path", outputPath, "bytes", n)
	return n, nil
}

// redact drops the credential from errors that echo the request URL
func redact(err error) error {
	uerr, ok := err.(*url.Error)
	if !ok {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		return uerr.Err
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
}
