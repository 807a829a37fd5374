package syncer

import (
	"path/filepath"
	"time"

	"github.com/spqsync/spqsync/internal/globalconfig"
	"github.com/spqsync/spqsync/internal/service"
)

// RepositoryContext carries everything an operation needs to touch a
// repository: no package-level state, so concurrent invocations
// against different roots cannot interfere.
type RepositoryContext struct {
	Root         string
	ReferenceURL string
	RetryPause   time.Duration
	Bitness      int
	Client       service.HTTPClient
}

// NewContext builds a context with the stock defaults filled in.
func NewContext(root, referenceURL string) RepositoryContext {
	if referenceURL == "" {
		referenceURL = globalconfig.DefaultReferenceURL
	}
	return RepositoryContext{
		Root:         root,
		ReferenceURL: referenceURL,
		RetryPause:   globalconfig.DefaultRetryPause,
		Bitness:      64,
		Client:       service.NewHTTPClient(5 * time.Minute),
	}
}

// CacheDir is where catalogs and offline-cache artifacts live.
func (c RepositoryContext) CacheDir() string {
	return filepath.Join(c.Root, globalconfig.RepoDirName, globalconfig.CacheDirName)
}
