package errs

import (
	"errors"
	"fmt"
)

// Kind classifies sync failures so callers can dispatch on policy
// without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindManifestNotFound
	KindManifestParse
	KindCatalogUnavailable
	KindDownloadFailed
	KindRemoteNotFound
	KindSignatureInvalid
	KindNotificationSend
)

func (k Kind) String() string {
	switch k {
	case KindManifestNotFound:
		return "ManifestNotFound"
	case KindManifestParse:
		return "ManifestParse"
	case KindCatalogUnavailable:
		return "CatalogUnavailable"
	case KindDownloadFailed:
		return "DownloadFailed"
	case KindRemoteNotFound:
		return "RemoteNotFound"
	case KindSignatureInvalid:
		return "SignatureInvalid"
	case KindNotificationSend:
		return "NotificationSend"
	default:
		return "Unknown"
	}
}

// SyncError wraps a failure with its kind and, where relevant, the
// platform or package it is scoped to.
type SyncError struct {
	Kind     Kind
	Platform string
	Package  string
	Err      error
}

func (e *SyncError) Error() string {
	switch {
	case e.Package != "":
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Package, e.Err)
	case e.Platform != "":
		return fmt.Sprintf("[%s] platform %s: %v", e.Kind, e.Platform, e.Err)
	default:
		return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
	}
}

func (e *SyncError) Unwrap() error { return e.Err }

func New(kind Kind, err error) *SyncError {
	return &SyncError{Kind: kind, Err: err}
}

func Newf(kind Kind, format string, a ...any) *SyncError {
	return &SyncError{Kind: kind, Err: fmt.Errorf(format, a...)}
}

func ForPlatform(kind Kind, platform string, err error) *SyncError {
	return &SyncError{Kind: kind, Platform: platform, Err: err}
}

func ForPackage(kind Kind, pkg string, err error) *SyncError {
	return &SyncError{Kind: kind, Package: pkg, Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown if err is not a
// SyncError.
func KindOf(err error) Kind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
