package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/service"
)

// AuxArtifact is one of the extra resources an offline-capable cache
// carries beyond the packages themselves.
type AuxArtifact struct {
	Name    string // label for logs and reports
	RelPath string // path under the reference base URL
}

// OfflineArtifacts returns the auxiliary downloads for an offline
// cache: the global platform list, per-platform advisory data, and
// the shared knowledge-base bundle.
func OfflineArtifacts(platforms []string) []AuxArtifact {
	out := []AuxArtifact{
		{Name: "platform list", RelPath: "platformList.cab"},
		{Name: "knowledge base", RelPath: "kb/common/latest.cab"},
	}
	for _, p := range platforms {
		out = append(out, AuxArtifact{
			Name:    fmt.Sprintf("advisory data (%s)", p),
			RelPath: fmt.Sprintf("%s/%s_cds.cab", p, p),
		})
	}
	return out
}

// FetchAux downloads one auxiliary artifact into cacheDir, trying the
// primary base URL and then the fallback (when configured). Each
// artifact is governed by the caller's not-found policy
// independently of package downloads.
func (o *Orchestrator) FetchAux(ctx context.Context, primary, fallback, cacheDir string, art AuxArtifact) error {
	dst := filepath.Join(cacheDir, filepath.FromSlash(art.RelPath))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	bases := []string{primary}
	if fallback != "" {
		bases = append(bases, fallback)
	}

	var lastErr error
	for _, base := range bases {
		url := base + "/" + art.RelPath
		err := service.WithRetry(ctx, o.MaxRetries, o.RetryPause, func() error {
			return service.DownloadToFile(ctx, o.Client, url, dst, 0)
		})
		if err == nil {
			logger.Debug("offline cache: fetched %s from %s", art.Name, base)
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("offline cache artifact %q: %w", art.Name, lastErr)
}
