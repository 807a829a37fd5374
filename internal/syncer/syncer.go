// Package syncer orchestrates a full repository synchronization
// cycle: selection, retention marking, downloads, and the policy
// dispatch that decides whether a failure stops the world or just the
// affected item.
package syncer

import (
	"context"
	"time"

	"github.com/spqsync/spqsync/internal/activity"
	"github.com/spqsync/spqsync/internal/builder"
	"github.com/spqsync/spqsync/internal/catalog"
	"github.com/spqsync/spqsync/internal/download"
	"github.com/spqsync/spqsync/internal/errs"
	"github.com/spqsync/spqsync/internal/globalconfig"
	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/models"
	"github.com/spqsync/spqsync/internal/notify"
	"github.com/spqsync/spqsync/internal/retention"
)

// PlatformResult records how selection went for one platform.
type PlatformResult struct {
	Platform string
	Selected int
	Err      string
}

// SyncReport summarizes a sync cycle.
type SyncReport struct {
	Started        time.Time
	Finished       time.Time
	Platforms      []PlatformResult
	Selected       int
	Downloaded     int
	Skipped        int
	RetryNextCycle int
}

type Syncer struct {
	Ctx      RepositoryContext
	Activity *activity.Log
	Notifier *notify.Dispatcher
}

func New(rctx RepositoryContext, m *models.RepositoryManifest) *Syncer {
	return &Syncer{
		Ctx:      rctx,
		Activity: activity.New(rctx.Root),
		Notifier: notify.New(m.Notifications),
	}
}

// Run executes one sync cycle against a loaded manifest snapshot.
// Selection for every platform happens first, then markers are
// flushed and re-created for the full deduplicated list, and only
// then do downloads start, so a sync failing partway still leaves
// correct retention state behind.
func (s *Syncer) Run(ctx context.Context, m *models.RepositoryManifest, offlineCache bool) (*SyncReport, error) {
	report := &SyncReport{Started: time.Now().UTC()}
	defer func() { report.Finished = time.Now().UTC() }()

	policy := m.Settings.OnRemoteFileNotFound
	retries := m.Settings.ExclusiveLockMaxRetries

	resolver := catalog.New(s.Ctx.Client, s.Ctx.ReferenceURL, s.Ctx.CacheDir(), retries, s.Ctx.RetryPause)

	selection, err := s.selectPackages(ctx, m, resolver, policy, report)
	if err != nil {
		return report, s.failed(ctx, err)
	}
	report.Selected = len(selection)
	s.Activity.Info("sync: selected %d package(s) across %d platform(s)", len(selection), len(report.Platforms))

	tracker := retention.New(s.Ctx.Root)
	if err := tracker.Flush(); err != nil {
		return report, s.failed(ctx, err)
	}
	for _, rec := range selection {
		if err := tracker.Mark(rec.Id); err != nil {
			return report, s.failed(ctx, err)
		}
	}

	orch := download.New(s.Ctx.Client, s.Ctx.Root, retries, s.Ctx.RetryPause)

	if offlineCache || m.Settings.OfflineCacheMode == models.ToggleEnable {
		if err := s.fetchOfflineCache(ctx, m, orch, policy); err != nil {
			return report, s.failed(ctx, err)
		}
	}

	// Sequential on purpose: one package at a time, bounded by
	// retries × pause per network call.
	for _, rec := range selection {
		outcome, derr := orch.Sync(ctx, rec)
		if derr != nil {
			if perr := s.dispatch(ctx, policy, derr); perr != nil {
				return report, s.failed(ctx, perr)
			}
			continue
		}
		switch outcome {
		case download.OutcomeDownloaded:
			report.Downloaded++
			s.Activity.Info("sync: downloaded %s (%s)", rec.Id, rec.Name)
		case download.OutcomeSkipped:
			report.Skipped++
		case download.OutcomeRetryNextCycle:
			report.RetryNextCycle++
			s.Activity.Warn("sync: %s failed verification, queued for retry next cycle", rec.Id)
		}
	}

	logger.Success("sync complete: %d downloaded, %d up to date, %d deferred",
		report.Downloaded, report.Skipped, report.RetryNextCycle)
	s.Activity.Info("sync: finished (%d downloaded, %d skipped, %d deferred)",
		report.Downloaded, report.Skipped, report.RetryNextCycle)
	return report, nil
}

// selectPackages builds the deduplicated package list across all
// configured platforms. A CatalogUnavailable error is scoped to its
// platform and runs through policy dispatch; other platforms keep
// going under LogAndContinue.
func (s *Syncer) selectPackages(ctx context.Context, m *models.RepositoryManifest, resolver *catalog.Resolver, policy models.NotFoundPolicy, report *SyncReport) ([]models.SoftpaqRecord, error) {
	var selection []models.SoftpaqRecord

	for _, platform := range m.Platforms() {
		filters := m.FiltersFor(platform)
		group := builder.MergeGroup(filters)
		targets := builder.OSTargets(filters, group)
		preferLTSC := group.PreferLTSC != nil && *group.PreferLTSC

		result := PlatformResult{Platform: platform}
		var platformErr error
		for _, tgt := range targets {
			records, err := resolver.Resolve(ctx, platform, s.Ctx.Bitness, tgt.OS, tgt.Version, preferLTSC)
			if err != nil {
				platformErr = err
				break
			}
			matched := builder.Apply(group, records)
			selection = append(selection, matched...)
			result.Selected += len(matched)
		}

		if platformErr != nil {
			result.Err = platformErr.Error()
			report.Platforms = append(report.Platforms, result)
			if perr := s.dispatch(ctx, policy, platformErr); perr != nil {
				return nil, perr
			}
			continue
		}
		report.Platforms = append(report.Platforms, result)
	}

	return builder.DedupeById(selection), nil
}

func (s *Syncer) fetchOfflineCache(ctx context.Context, m *models.RepositoryManifest, orch *download.Orchestrator, policy models.NotFoundPolicy) error {
	fallback := ""
	if s.Ctx.ReferenceURL == globalconfig.DefaultReferenceURL {
		fallback = globalconfig.FallbackReferenceURL
	}
	for _, art := range download.OfflineArtifacts(m.Platforms()) {
		err := orch.FetchAux(ctx, s.Ctx.ReferenceURL, fallback, s.Ctx.CacheDir(), art)
		if err != nil {
			if perr := s.dispatch(ctx, policy, err); perr != nil {
				return perr
			}
		}
	}
	return nil
}

// dispatch applies the not-found policy: platform- and package-scoped
// absence errors either terminate the sync (Fail) or are logged and
// notified before moving on (LogAndContinue). Anything that is not an
// absence error always propagates.
func (s *Syncer) dispatch(ctx context.Context, policy models.NotFoundPolicy, err error) error {
	switch errs.KindOf(err) {
	case errs.KindRemoteNotFound, errs.KindCatalogUnavailable:
	default:
		return err
	}

	if policy == models.NotFoundLogAndContinue {
		logger.Warn("continuing after error: %v", err)
		s.Activity.Warn("sync: %v", err)
		if nerr := s.Notifier.NotifyFailure(ctx, s.Ctx.Root, err); nerr != nil {
			logger.Debug("notification failure ignored: %v", nerr)
		}
		return nil
	}
	return err
}

// failed runs the best-effort failure path: activity log plus
// notification, always returning the original error.
func (s *Syncer) failed(ctx context.Context, err error) error {
	logger.LogError("sync failed: %v", err)
	s.Activity.Error("sync: failed: %v", err)
	if nerr := s.Notifier.NotifyFailure(ctx, s.Ctx.Root, err); nerr != nil {
		logger.Debug("notification failure ignored: %v", nerr)
	}
	return err
}
