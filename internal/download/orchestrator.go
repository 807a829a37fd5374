// Package download drives the per-package acquisition state machine:
// metadata first, then the binary only when missing or failing its
// integrity check, with retries tuned for shared-drive lock
// contention.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spqsync/spqsync/internal/cva"
	"github.com/spqsync/spqsync/internal/errs"
	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/models"
	"github.com/spqsync/spqsync/internal/service"
	"github.com/spqsync/spqsync/internal/utils"
)

// Outcome summarizes what one package sync did.
type Outcome int

const (
	// OutcomeDownloaded: the binary was fetched and verified.
	OutcomeDownloaded Outcome = iota
	// OutcomeSkipped: the existing binary already verified clean.
	OutcomeSkipped
	// OutcomeRetryNextCycle: verification failed after download; the
	// artifact pair was deleted so the next cycle starts clean.
	OutcomeRetryNextCycle
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRetryNextCycle:
		return "retry-next-cycle"
	default:
		return "unknown"
	}
}

type Orchestrator struct {
	Client     service.HTTPClient
	Root       string
	MaxRetries int
	RetryPause time.Duration
}

func New(client service.HTTPClient, root string, maxRetries int, retryPause time.Duration) *Orchestrator {
	return &Orchestrator{Client: client, Root: root, MaxRetries: maxRetries, RetryPause: retryPause}
}

// Sync runs the state machine for one package. Download errors are
// returned for policy dispatch by the caller; a failed integrity
// check is not an error, it degrades to OutcomeRetryNextCycle.
func (o *Orchestrator) Sync(ctx context.Context, rec models.SoftpaqRecord) (Outcome, error) {
	cvaURL, exeURL := artifactURLs(rec)
	cvaPath := filepath.Join(o.Root, rec.Id+".cva")
	exePath := filepath.Join(o.Root, rec.Id+".exe")

	// Metadata is always refreshed: there is no consistency check
	// for it, so freshness beats caching.
	err := service.WithRetry(ctx, o.MaxRetries, o.RetryPause, func() error {
		return service.DownloadToFile(ctx, o.Client, cvaURL, cvaPath, 0)
	})
	if err != nil {
		return 0, errs.ForPackage(kindFor(err), rec.Id, fmt.Errorf("metadata download: %w", err))
	}

	meta, err := os.ReadFile(cvaPath)
	if err != nil {
		return 0, errs.ForPackage(errs.KindDownloadFailed, rec.Id, err)
	}
	expected := cva.Parse(meta).ExpectedSHA256()

	if ok, _ := utils.FileExists(exePath); ok {
		valid, verr := o.verify(exePath, expected)
		if verr == nil && valid {
			logger.Debug("%s: existing binary verified, skipping download", rec.Id)
			return OutcomeSkipped, nil
		}
		logger.Warn("%s: existing binary failed verification, re-downloading", rec.Id)
	}

	err = service.WithRetry(ctx, o.MaxRetries, o.RetryPause, func() error {
		return service.DownloadToFile(ctx, o.Client, exeURL, exePath, 0)
	})
	if err != nil {
		return 0, errs.ForPackage(kindFor(err), rec.Id, fmt.Errorf("binary download: %w", err))
	}

	valid, err := o.verify(exePath, expected)
	if err != nil {
		return 0, errs.ForPackage(errs.KindDownloadFailed, rec.Id, err)
	}
	if !valid {
		// Delete the pair so the next cycle retries from scratch.
		logger.Warn("%s: downloaded binary failed integrity verification, deleting pair for retry next cycle", rec.Id)
		_ = os.Remove(exePath)
		_ = os.Remove(cvaPath)
		return OutcomeRetryNextCycle, nil
	}
	return OutcomeDownloaded, nil
}

// verify hashes the binary against the digest the metadata advertises.
// Metadata without a digest cannot be checked and passes.
func (o *Orchestrator) verify(exePath, expected string) (bool, error) {
	if expected == "" {
		return true, nil
	}
	actual, err := utils.Sha256File(exePath)
	if err != nil {
		return false, err
	}
	return utils.DigestEqual(actual, expected), nil
}

// artifactURLs derives the metadata and binary URLs from the
// catalog's advertised url field with the filename stripped.
func artifactURLs(rec models.SoftpaqRecord) (cvaURL, exeURL string) {
	base := rec.URL
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[:i]
	}
	cvaURL = rec.MetadataURL
	if cvaURL == "" {
		cvaURL = base + "/" + rec.Id + ".cva"
	}
	exeURL = rec.URL
	if exeURL == "" || !strings.HasSuffix(strings.ToLower(exeURL), ".exe") {
		exeURL = base + "/" + rec.Id + ".exe"
	}
	return cvaURL, exeURL
}

func kindFor(err error) errs.Kind {
	if errs.IsKind(err, errs.KindRemoteNotFound) {
		return errs.KindRemoteNotFound
	}
	return errs.KindDownloadFailed
}
