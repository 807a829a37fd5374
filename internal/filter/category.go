package filter

import (
	"strings"

	"github.com/spqsync/spqsync/internal/models"
)

// Category buckets. Catalog category strings are free-form marketing
// labels ("Driver - Audio", "Manageability - Driver Pack"); filters
// match against the classified bucket, never the raw string.
const (
	BucketDriver        = "driver"
	BucketOS            = "os"
	BucketDriverPack    = "driverpack"
	BucketUWPPack       = "uwppack"
	BucketManageability = "manageability"
	BucketUtility       = "utility"
	BucketDock          = "dock"
	BucketBIOS          = "bios"
	BucketFirmware      = "firmware"
	BucketDiagnostic    = "diagnostic"
	BucketSoftware      = "software"
)

// ClassifyCategory maps a raw catalog category label to its bucket.
// The pack checks run before the manageability prefix because driver
// and UWP packs are published under "Manageability - ...".
func ClassifyCategory(raw string) string {
	lc := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(lc, "driver pack"):
		return BucketDriverPack
	case strings.Contains(lc, "uwp pack"):
		return BucketUWPPack
	case strings.HasPrefix(lc, "dock"):
		return BucketDock
	case strings.HasPrefix(lc, "bios"):
		return BucketBIOS
	case strings.HasPrefix(lc, "firmware"):
		return BucketFirmware
	case strings.HasPrefix(lc, "driver"):
		return BucketDriver
	case strings.HasPrefix(lc, "operating system"), lc == "os", strings.HasPrefix(lc, "os -"):
		return BucketOS
	case strings.HasPrefix(lc, "manageability"):
		return BucketManageability
	case strings.HasPrefix(lc, "utility"):
		return BucketUtility
	case strings.HasPrefix(lc, "diagnostic"):
		return BucketDiagnostic
	default:
		return BucketSoftware
	}
}

// MatchesCategory reports whether a record's classified bucket is in
// the allowed set (or the set is the wildcard).
func MatchesCategory(allowed []string, rawCategory string) bool {
	if IsWildcardSet(allowed) {
		return true
	}
	bucket := ClassifyCategory(rawCategory)
	for _, a := range allowed {
		if a == bucket {
			return true
		}
	}
	return false
}

// MatchesReleaseType compares case-insensitively against the allowed
// set (or wildcard).
func MatchesReleaseType(allowed []string, releaseType string) bool {
	if IsWildcardSet(allowed) {
		return true
	}
	rt := strings.ToLower(strings.TrimSpace(releaseType))
	for _, a := range allowed {
		if a == rt {
			return true
		}
	}
	return false
}

// MatchesCharacteristics requires every requested characteristic to
// hold (AND semantics). SSM and DPB map to catalog booleans, UWP to
// the presence of content types on the record.
func MatchesCharacteristics(requested []string, rec models.SoftpaqRecord) bool {
	if IsWildcardSet(requested) {
		return true
	}
	for _, c := range requested {
		switch c {
		case "ssm":
			if !rec.SSM {
				return false
			}
		case "dpb":
			if !rec.DPB {
				return false
			}
		case "uwp":
			if !rec.UWP {
				return false
			}
		default:
			return false
		}
	}
	return true
}
