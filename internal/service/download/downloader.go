// Package download fetches dataset images one at a time.
package download

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"guardcam/internal/coco"
	"guardcam/internal/logger"
)

const chunkSize = 1024

// Downloader saves images under their file name. Existing files are never
// fetched again; failed responses are logged and skipped, not retried.
type Downloader struct {
	client   *http.Client
	logger   *logger.Logger
	progress io.Writer // nil disables the progress bar
}

// NewDownloader uses client for every request. A nil client means
// http.DefaultClient, which has no timeout.
func NewDownloader(client *http.Client, logger *logger.Logger, progress io.Writer) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{client: client, logger: logger, progress: progress}
}

// Download fetches every image into dir and returns how many were newly
// written. A transport or disk error stops the run and is returned along
// with the count so far.
func (d *Downloader) Download(ctx context.Context, images []coco.Image, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, errors.Wrap(err, "failed to create images directory")
	}

	bar := d.startProgress(len(images))
	defer func() {
		if bar != nil {
			bar.Stop()
		}
	}()

	downloaded := 0
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return downloaded, err
		}

		ok, err := d.fetch(ctx, img, filepath.Join(dir, filepath.Base(img.FileName)))
		if err != nil {
			return downloaded, err
		}
		if ok {
			downloaded++
		}
		if bar != nil {
			bar.Increment()
		}
	}

	return downloaded, nil
}

// fetch reports whether a new file was written.
func (d *Downloader) fetch(ctx context.Context, img coco.Image, dest string) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.CocoURL, nil)
	if err != nil {
		return false, errors.Wrapf(err, "bad url %q", img.CocoURL)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false, errors.Wrapf(err, "failed to fetch %s", img.CocoURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Warning("Failed to download %s. Status code: %d", img.CocoURL, resp.StatusCode)
		return false, nil
	}

	if err := writeChunks(dest, resp.Body); err != nil {
		os.Remove(dest)
		return false, err
	}
	return true, nil
}

func writeChunks(dest string, body io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dest)
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return errors.Wrapf(err, "failed to write %s", dest)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return errors.Wrapf(readErr, "failed to read body for %s", dest)
		}
	}

	return f.Close()
}

func (d *Downloader) startProgress(total int) *pterm.ProgressbarPrinter {
	if d.progress == nil || total == 0 {
		return nil
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle("Downloading images").
		WithWriter(d.progress).
		Start()
	if err != nil {
		d.logger.Warning("Progress bar unavailable: %v", err)
		return nil
	}
	return bar
}
