// Package retention implements mark-and-sweep over downloaded
// artifacts. Markers are zero-byte sentinel files, one per package id
// in scope for the current cycle; anything on disk without a marker
// is fair game for cleanup.
package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spqsync/spqsync/internal/globalconfig"
	"github.com/spqsync/spqsync/internal/logger"
)

const markerExt = ".mark"

// artifactStem matches filenames carrying a package id, e.g.
// "sp12345.exe" or "SP12345.cva".
var artifactStem = regexp.MustCompile(`^(?i)(sp\d+)\.`)

type Tracker struct {
	root      string
	markerDir string
}

func New(root string) *Tracker {
	return &Tracker{
		root:      root,
		markerDir: filepath.Join(root, globalconfig.RepoDirName, globalconfig.MarkerDirName),
	}
}

// Flush deletes every existing marker so the set reflects exactly the
// selection computed by the cycle about to run, never a stale union.
func (t *Tracker) Flush() error {
	entries, err := os.ReadDir(t.markerDir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(t.markerDir, 0o755)
		}
		return fmt.Errorf("failed to read marker directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), markerExt) {
			continue
		}
		if err := os.Remove(filepath.Join(t.markerDir, e.Name())); err != nil {
			return fmt.Errorf("failed to flush marker %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Mark records id as in scope. Idempotent: an existing marker just
// gets its timestamp refreshed.
func (t *Tracker) Mark(id string) error {
	if err := os.MkdirAll(t.markerDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(t.markerDir, strings.ToLower(id)+markerExt)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create marker for %s: %w", id, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	now := time.Now()
	return os.Chtimes(path, now, now)
}

// Marked reports whether a marker exists for id.
func (t *Tracker) Marked(id string) bool {
	_, err := os.Stat(filepath.Join(t.markerDir, strings.ToLower(id)+markerExt))
	return err == nil
}

// MarkedSet returns the ids of all current markers.
func (t *Tracker) MarkedSet() (map[string]struct{}, error) {
	out := make(map[string]struct{})
	entries, err := os.ReadDir(t.markerDir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), markerExt) {
			continue
		}
		out[strings.TrimSuffix(e.Name(), markerExt)] = struct{}{}
	}
	return out, nil
}

// Cleanup sweeps the repository root: every file whose name parses as
// a package artifact and whose id has no marker is deleted. Files
// that do not look like artifacts are left untouched. Returns the
// number of files removed.
func (t *Tracker) Cleanup() (int, error) {
	marked, err := t.MarkedSet()
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(t.root)
	if err != nil {
		return 0, fmt.Errorf("failed to read repository root: %w", err)
	}

	deleted := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := artifactStem.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id := strings.ToLower(m[1])
		if _, ok := marked[id]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(t.root, e.Name())); err != nil {
			return deleted, fmt.Errorf("failed to delete %s: %w", e.Name(), err)
		}
		logger.Debug("cleanup: removed unmarked artifact %s", e.Name())
		deleted++
	}
	return deleted, nil
}
