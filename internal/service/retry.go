package service

import (
	"context"
	"time"

	"github.com/spqsync/spqsync/internal/errs"
	"github.com/spqsync/spqsync/internal/logger"
)

// WithRetry runs op up to attempts times with a fixed pause between
// tries. The pause is flat, not exponential: the contention it papers
// over is short-lived exclusive locks on shared-drive files, and a
// deterministic worst case (attempts * pause) matters more than being
// gentle with the remote. A RemoteNotFound error is never retried;
// the file will not appear between attempts.
func WithRetry(ctx context.Context, attempts int, pause time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = op()
		if err == nil {
			return nil
		}
		if errs.IsKind(err, errs.KindRemoteNotFound) {
			return err
		}
		if i == attempts {
			break
		}
		logger.Debug("attempt %d/%d failed: %v (retrying in %s)", i, attempts, err, pause)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
	return err
}
