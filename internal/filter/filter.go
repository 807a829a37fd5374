// Package filter implements the pure predicates used to select
// catalog entries: normalization, exact comparison for dedupe, and
// wildcard-aware matching for sync.
package filter

import (
	"sort"
	"strings"

	"github.com/spqsync/spqsync/internal/models"
)

// knownOSVersions enumerates the catalog variants published per OS,
// newest last. "os:*" expands to all of them.
var knownOSVersions = map[string][]string{
	"win10": {"1909", "2004", "20H2", "21H1", "21H2", "22H2"},
	"win11": {"21H2", "22H2", "23H2", "24H2"},
}

// CurrentOSVersion is the version an OS token without an explicit
// version resolves to at filter-creation time. Overridable in tests.
var CurrentOSVersion = func(osName string) string {
	vs := knownOSVersions[osName]
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}

// KnownVersions returns the published catalog versions for osName.
func KnownVersions(osName string) []string {
	return append([]string(nil), knownOSVersions[osName]...)
}

// Normalize resolves the unset/implicit forms of a filter to their
// explicit representation: empty OS and empty sets become the wildcard
// sentinel, and a bare "win10"/"win11" is pinned to the currently
// detected version now rather than at sync time.
func Normalize(f models.Filter) models.Filter {
	f.Platform = strings.ToLower(strings.TrimSpace(f.Platform))

	osv := strings.TrimSpace(f.OperatingSystem)
	switch {
	case osv == "" || osv == models.Wildcard:
		osv = models.Wildcard
	case !strings.Contains(osv, ":"):
		if v := CurrentOSVersion(strings.ToLower(osv)); v != "" {
			osv = strings.ToLower(osv) + ":" + v
		}
	default:
		name := strings.ToLower(osv[:strings.Index(osv, ":")])
		osv = name + osv[strings.Index(osv, ":"):]
	}
	f.OperatingSystem = osv

	f.Category = normalizeSet(f.Category)
	f.ReleaseType = normalizeSet(f.ReleaseType)
	f.Characteristic = normalizeSet(f.Characteristic)
	return f
}

func normalizeSet(set []string) []string {
	if len(set) == 0 {
		return []string{models.Wildcard}
	}
	out := make([]string, 0, len(set))
	for _, v := range set {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if v == models.Wildcard {
			return []string{models.Wildcard}
		}
		out = append(out, strings.ToLower(v))
	}
	if len(out) == 0 {
		return []string{models.Wildcard}
	}
	sort.Strings(out)
	return out
}

// IsWildcardSet reports whether the set is the wildcard sentinel.
func IsWildcardSet(set []string) bool {
	return len(set) == 0 || (len(set) == 1 && set[0] == models.Wildcard)
}

// MatchesExact is field-wise equality between two normalized filters,
// used to detect a duplicate on add.
func MatchesExact(a, b models.Filter) bool {
	if a.Platform != b.Platform || a.OperatingSystem != b.OperatingSystem {
		return false
	}
	if !setsEqual(a.Category, b.Category) ||
		!setsEqual(a.ReleaseType, b.ReleaseType) ||
		!setsEqual(a.Characteristic, b.Characteristic) {
		return false
	}
	return boolPtrEqual(a.PreferLTSC, b.PreferLTSC)
}

func setsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// MatchesWild reports whether a filter value accepts a candidate:
// exact equality, the wildcard sentinel, or an "os:*" form matching
// any version of that OS.
func MatchesWild(filterValue, candidateValue string) bool {
	if filterValue == candidateValue || filterValue == models.Wildcard {
		return true
	}
	if name, ok := strings.CutSuffix(filterValue, ":"+models.Wildcard); ok {
		return strings.HasPrefix(candidateValue, name+":")
	}
	return false
}

// MatchesLTSC: a nil preference accepts anything.
func MatchesLTSC(filterValue *bool, candidate bool) bool {
	return filterValue == nil || *filterValue == candidate
}
