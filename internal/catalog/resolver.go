// Package catalog acquires and parses the per-platform reference
// catalog: a CAB-compressed XML document fetched from a primary host
// with an optional fallback, cached on disk and refreshed only when
// the upstream copy changed.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spqsync/spqsync/internal/cab"
	"github.com/spqsync/spqsync/internal/errs"
	"github.com/spqsync/spqsync/internal/globalconfig"
	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/models"
	"github.com/spqsync/spqsync/internal/service"
)

type Resolver struct {
	Client      service.HTTPClient
	PrimaryURL  string
	FallbackURL string // empty disables fallback
	CacheDir    string
	MaxRetries  int
	RetryPause  time.Duration
}

// New builds a resolver. The fallback host is wired only when the
// primary is the stock default: a custom reference URL never falls
// back to a host the operator did not choose.
func New(client service.HTTPClient, primaryURL, cacheDir string, maxRetries int, retryPause time.Duration) *Resolver {
	fallback := ""
	if primaryURL == globalconfig.DefaultReferenceURL {
		fallback = globalconfig.FallbackReferenceURL
	}
	return &Resolver{
		Client:      client,
		PrimaryURL:  primaryURL,
		FallbackURL: fallback,
		CacheDir:    cacheDir,
		MaxRetries:  maxRetries,
		RetryPause:  retryPause,
	}
}

// Name returns the canonical catalog filename for a platform/OS
// combination, e.g. "83b2_64_10.0.22H2.cab" ("….e.cab" for LTSC).
func Name(platform string, bitness int, osName, osVersion string, ltsc bool) string {
	suffix := ".cab"
	if ltsc {
		suffix = ".e.cab"
	}
	return fmt.Sprintf("%s_%d_%s.%s%s", platform, bitness, osMajorMinor(osName), osVersion, suffix)
}

func osMajorMinor(osName string) string {
	switch osName {
	case "win11":
		return "11.0"
	default:
		return "10.0"
	}
}

// Resolve fetches the catalog for one platform/OS/version. When LTSC
// is preferred the ".e" variant is tried on both hosts first, then the
// regular variant; exhausting every combination yields a
// CatalogUnavailable error scoped to the platform.
func (r *Resolver) Resolve(ctx context.Context, platform string, bitness int, osName, osVersion string, preferLTSC bool) ([]models.SoftpaqRecord, error) {
	variants := []bool{false}
	if preferLTSC {
		variants = []bool{true, false}
	}

	var lastErr error
	for _, ltsc := range variants {
		name := Name(platform, bitness, osName, osVersion, ltsc)
		for _, base := range r.hosts() {
			url := fmt.Sprintf("%s/%s/%s", base, platform, name)
			records, err := r.acquire(ctx, url, name)
			if err == nil {
				return records, nil
			}
			lastErr = err
			logger.Debug("catalog %s unavailable from %s: %v", name, base, err)
		}
		if ltsc {
			logger.Warn("LTSC catalog unavailable for platform %s, degrading to the regular variant", platform)
		}
	}
	return nil, errs.ForPlatform(errs.KindCatalogUnavailable, platform,
		fmt.Errorf("no reference catalog for %s %s:%s: %w", platform, osName, osVersion, lastErr))
}

func (r *Resolver) hosts() []string {
	if r.FallbackURL == "" {
		return []string{r.PrimaryURL}
	}
	return []string{r.PrimaryURL, r.FallbackURL}
}

// acquire returns parsed records for one catalog URL, re-downloading
// only when the remote modification time differs from the cached copy.
// A cached CAB whose extracted XML is missing or corrupt is
// re-extracted rather than re-downloaded.
func (r *Resolver) acquire(ctx context.Context, url, name string) ([]models.SoftpaqRecord, error) {
	if err := os.MkdirAll(r.CacheDir, 0o755); err != nil {
		return nil, err
	}
	cabPath := filepath.Join(r.CacheDir, name)
	xmlPath := cabPath + ".xml"

	fresh, remoteMod := r.cacheFresh(ctx, url, cabPath)
	if !fresh {
		err := service.WithRetry(ctx, r.MaxRetries, r.RetryPause, func() error {
			return service.DownloadToFile(ctx, r.Client, url, cabPath, 0)
		})
		if err != nil {
			return nil, err
		}
		if !remoteMod.IsZero() {
			// Mirror the upstream timestamp so the next sync can
			// detect staleness without downloading.
			_ = os.Chtimes(cabPath, remoteMod, remoteMod)
		}
		_ = os.Remove(xmlPath)
	}

	if data, err := os.ReadFile(xmlPath); err == nil {
		if records, perr := Parse(data); perr == nil {
			return records, nil
		}
		logger.Warn("cached catalog XML %s is corrupt, re-extracting", filepath.Base(xmlPath))
	}

	return r.extract(cabPath, xmlPath)
}

// cacheFresh reports whether the cached CAB matches the remote
// modification time. Probe failures count as stale so a download is
// attempted (and produces the real error).
func (r *Resolver) cacheFresh(ctx context.Context, url, cabPath string) (bool, time.Time) {
	fi, err := os.Stat(cabPath)
	if err != nil {
		remoteMod, _ := service.LastModified(ctx, r.Client, url)
		return false, remoteMod
	}
	remoteMod, err := service.LastModified(ctx, r.Client, url)
	if err != nil || remoteMod.IsZero() {
		return false, remoteMod
	}
	return fi.ModTime().UTC().Equal(remoteMod.UTC()), remoteMod
}

func (r *Resolver) extract(cabPath, xmlPath string) ([]models.SoftpaqRecord, error) {
	raw, err := os.ReadFile(cabPath)
	if err != nil {
		return nil, err
	}

	payload := raw
	if files, cerr := cab.Extract(raw); cerr == nil {
		payload = files[0].Data
	} else if looksLikeCab(raw) {
		return nil, fmt.Errorf("corrupt catalog archive %s: %w", filepath.Base(cabPath), cerr)
	}
	// Not a cabinet: some mirrors serve the XML uncompressed.

	records, err := Parse(payload)
	if err != nil {
		_ = os.Remove(cabPath)
		return nil, err
	}
	if err := os.WriteFile(xmlPath, payload, 0o644); err != nil {
		return nil, err
	}
	if fi, serr := os.Stat(cabPath); serr == nil {
		_ = os.Chtimes(xmlPath, fi.ModTime(), fi.ModTime())
	}
	return records, nil
}

func looksLikeCab(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "MSCF"
}
