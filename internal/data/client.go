package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/agilescientific/kosu/internal/fileutil"
	"github.com/agilescientific/kosu/internal/logger"
)

const progressThrottle = 100 * time.Millisecond

var (
	// ErrMissingDataURL is returned when a data URL does not answer 200 OK.
	ErrMissingDataURL = errors.New("missing data URL")

	errBadHTTPStatus = errors.New("unexpected http status")
)

// Client talks HTTP to data hosts.
type Client struct {
	http     *http.Client
	progress io.Writer
}

// NewClient returns a Client using httpClient, or http.DefaultClient when nil.
// Download progress bars are drawn on progress; nil disables them.
func NewClient(httpClient *http.Client, progress io.Writer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if progress == nil {
		progress = io.Discard
	}

	return &Client{http: httpClient, progress: progress}
}

// CheckURLs sends a HEAD request to every URL and fails on the first one that
// does not answer 200 OK.
func (c *Client) CheckURLs(ctx context.Context, urls []string, onChecked func(url string)) error {
	for _, url := range urls {
		if err := c.head(ctx, url); err != nil {
			return err
		}

		if onChecked != nil {
			onChecked(url)
		}
	}

	return nil
}

func (c *Client) head(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMissingDataURL, url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMissingDataURL, url, err)
	}

	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s (%s)", ErrMissingDataURL, url, resp.Status)
	}

	logger.DebugKV(ctx, "Data URL reachable", "url", url)

	return nil
}

// Download fetches url into dst. The body is written to a temporary file next
// to dst and renamed on success, so dst never holds a partial download.
func (c *Client) Download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", url, resp.Status, errBadHTTPStatus)
	}

	tmp := fmt.Sprintf("%s.%s.part", dst, uuid.NewString())

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription(filepath.Base(dst)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(progressThrottle),
		progressbar.OptionClearOnFinish(),
	)

	if err = fileutil.WriteFrom(tmp, io.TeeReader(resp.Body, bar)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("download %s: %w", url, err)
	}

	_ = bar.Finish()

	if err = os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	logger.DebugKV(ctx, "Downloaded file", "url", url, "path", dst)

	return nil
}
