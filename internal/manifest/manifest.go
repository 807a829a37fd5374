// Package manifest owns the repository manifest document: loading
// with forward-compatible defaulting, and the only write path, which
// re-stamps the modification fields.
package manifest

import (
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/spqsync/spqsync/internal/errs"
	"github.com/spqsync/spqsync/internal/filter"
	"github.com/spqsync/spqsync/internal/globalconfig"
	"github.com/spqsync/spqsync/internal/models"
	"github.com/spqsync/spqsync/internal/utils"
)

// Path returns the manifest location inside a repository root.
func Path(root string) string {
	return filepath.Join(root, globalconfig.RepoDirName, globalconfig.ManifestFile)
}

// New returns a fresh manifest with documented defaults.
func New() *models.RepositoryManifest {
	now := time.Now().UTC()
	by := currentUser()
	return &models.RepositoryManifest{
		DateCreated:      now,
		CreatedBy:        by,
		DateLastModified: now,
		ModifiedBy:       by,
		Settings:         defaultSettings(),
	}
}

// Load reads and defaults the manifest for root. A missing file is a
// ManifestNotFound sync error; malformed JSON is ManifestParse.
func Load(root string) (*models.RepositoryManifest, error) {
	path := Path(root)
	ok, err := utils.FileExists(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Newf(errs.KindManifestNotFound, "no repository manifest at %s (run 'spqsync init' first)", path)
	}

	var m models.RepositoryManifest
	if err := utils.FileReader(path, utils.FileTypeJSON, &m); err != nil {
		return nil, errs.New(errs.KindManifestParse, err)
	}

	applyDefaults(&m)
	return &m, nil
}

// Save persists the manifest atomically, re-stamping DateLastModified
// and ModifiedBy. All mutations must funnel through here.
func Save(root string, m *models.RepositoryManifest) error {
	m.DateLastModified = time.Now().UTC()
	m.ModifiedBy = currentUser()
	path := Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return utils.WriteJSONAtomic(path, m)
}

// AddFilter appends f after normalization unless an identical filter
// already exists. Returns true if the manifest was modified.
func AddFilter(m *models.RepositoryManifest, f models.Filter) bool {
	f = filter.Normalize(f)
	for _, existing := range m.Filters {
		if filter.MatchesExact(existing, f) {
			// already present, skip silently (idempotent)
			return false
		}
	}
	m.Filters = append(m.Filters, f)
	return true
}

// RemoveFilters drops every filter matching pred. Returns the number
// removed.
func RemoveFilters(m *models.RepositoryManifest, pred func(models.Filter) bool) int {
	out := m.Filters[:0]
	removed := 0
	for _, f := range m.Filters {
		if pred(f) {
			removed++
			continue
		}
		out = append(out, f)
	}
	m.Filters = out
	return removed
}

func defaultSettings() models.Settings {
	return models.Settings{
		OnRemoteFileNotFound:    models.NotFoundFail,
		ExclusiveLockMaxRetries: 10,
		OfflineCacheMode:        models.ToggleDisable,
		RepositoryReport:        models.ReportCSV,
	}
}

// applyDefaults fills fields an older manifest may be missing, so the
// schema stays forward compatible.
func applyDefaults(m *models.RepositoryManifest) {
	if m.Settings.OnRemoteFileNotFound == "" {
		m.Settings.OnRemoteFileNotFound = models.NotFoundFail
	}
	if m.Settings.ExclusiveLockMaxRetries <= 0 {
		m.Settings.ExclusiveLockMaxRetries = 10
	}
	if m.Settings.OfflineCacheMode == "" {
		m.Settings.OfflineCacheMode = models.ToggleDisable
	}
	if m.Settings.RepositoryReport == "" {
		m.Settings.RepositoryReport = models.ReportCSV
	}
	for i := range m.Filters {
		m.Filters[i] = filter.Normalize(m.Filters[i])
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}
