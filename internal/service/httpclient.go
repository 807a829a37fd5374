package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spqsync/spqsync/internal/errs"
	"github.com/spqsync/spqsync/internal/utils"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type DefaultHTTPClient struct{ *http.Client }

func NewHTTPClient(timeout time.Duration) *DefaultHTTPClient {
	return &DefaultHTTPClient{Client: &http.Client{Timeout: timeout}}
}

// Fetch GETs url and returns the body. A 404 is reported as a
// RemoteNotFound sync error so policy dispatch can tell it apart from
// transport failures.
func Fetch(ctx context.Context, c HTTPClient, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer utils.Try(resp.Body.Close)

	if resp.StatusCode == http.StatusNotFound {
		return nil, errs.Newf(errs.KindRemoteNotFound, "remote file not found: %s", url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// DownloadToFile streams url into dst, truncating any previous content.
func DownloadToFile(ctx context.Context, c HTTPClient, url, dst string, maxSize int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer utils.Try(resp.Body.Close)

	if resp.StatusCode == http.StatusNotFound {
		return errs.Newf(errs.KindRemoteNotFound, "remote file not found: %s", url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer utils.Close(f)

	var src io.Reader = resp.Body
	if maxSize > 0 {
		src = io.LimitReader(resp.Body, maxSize)
	}
	_, err = io.Copy(f, src)
	return err
}

// LastModified probes url with a HEAD request and returns the remote
// modification time, or the zero time when the header is absent.
func LastModified(ctx context.Context, c HTTPClient, url string) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return time.Time{}, err
	}

	resp, err := c.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer utils.Try(resp.Body.Close)

	if resp.StatusCode == http.StatusNotFound {
		return time.Time{}, errs.Newf(errs.KindRemoteNotFound, "remote file not found: %s", url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return time.Time{}, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	lm := resp.Header.Get("Last-Modified")
	if lm == "" {
		return time.Time{}, nil
	}
	t, err := http.ParseTime(lm)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}
