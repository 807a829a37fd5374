// Package builder turns catalog entries plus a platform's filters
// into the deduplicated package selection for a sync cycle.
package builder

import (
	"github.com/spqsync/spqsync/internal/filter"
	"github.com/spqsync/spqsync/internal/models"
)

// OSTarget is one catalog to fetch: an OS name plus version label.
type OSTarget struct {
	OS      string
	Version string
}

// MergeGroup folds a platform's filters into a single group filter.
// A wildcard anywhere in a dimension makes the whole dimension
// wildcard for the group (most permissive union). This intentionally
// trades precision for simplicity when specific and wildcard filters
// are mixed on one platform.
func MergeGroup(filters []models.Filter) models.Filter {
	if len(filters) == 0 {
		return models.Filter{}
	}
	group := models.Filter{Platform: filters[0].Platform}

	group.Category = mergeSets(filters, func(f models.Filter) []string { return f.Category })
	group.ReleaseType = mergeSets(filters, func(f models.Filter) []string { return f.ReleaseType })
	group.Characteristic = mergeSets(filters, func(f models.Filter) []string { return f.Characteristic })

	for _, f := range filters {
		if f.OperatingSystem == models.Wildcard {
			group.OperatingSystem = models.Wildcard
			break
		}
	}

	for _, f := range filters {
		if f.PreferLTSC != nil && *f.PreferLTSC {
			t := true
			group.PreferLTSC = &t
			break
		}
	}
	return group
}

func mergeSets(filters []models.Filter, dim func(models.Filter) []string) []string {
	seen := make(map[string]struct{})
	var union []string
	for _, f := range filters {
		set := dim(f)
		if filter.IsWildcardSet(set) {
			return []string{models.Wildcard}
		}
		for _, v := range set {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			union = append(union, v)
		}
	}
	return union
}

// OSTargets expands a platform group into the catalogs to fetch. An
// explicit "os:version" yields one target, "os:*" every known version
// of that OS, and the bare wildcard every known version of every OS.
func OSTargets(filters []models.Filter, group models.Filter) []OSTarget {
	if group.OperatingSystem == models.Wildcard {
		var out []OSTarget
		for _, osName := range []string{"win10", "win11"} {
			for _, v := range filter.KnownVersions(osName) {
				out = append(out, OSTarget{OS: osName, Version: v})
			}
		}
		return out
	}

	seen := make(map[OSTarget]struct{})
	var out []OSTarget
	add := func(t OSTarget) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for _, f := range filters {
		osName, version, ok := splitOS(f.OperatingSystem)
		if !ok {
			continue
		}
		if version == models.Wildcard {
			for _, v := range filter.KnownVersions(osName) {
				add(OSTarget{OS: osName, Version: v})
			}
			continue
		}
		add(OSTarget{OS: osName, Version: version})
	}
	return out
}

func splitOS(value string) (osName, version string, ok bool) {
	for i := 0; i < len(value); i++ {
		if value[i] == ':' {
			return value[:i], value[i+1:], true
		}
	}
	return "", "", false
}

// Apply filters catalog records through the group's category, release
// type and characteristic predicates.
func Apply(group models.Filter, records []models.SoftpaqRecord) []models.SoftpaqRecord {
	var out []models.SoftpaqRecord
	for _, rec := range records {
		if !filter.MatchesCategory(group.Category, rec.Category) {
			continue
		}
		if !filter.MatchesReleaseType(group.ReleaseType, rec.ReleaseType) {
			continue
		}
		if !filter.MatchesCharacteristics(group.Characteristic, rec) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// DedupeById keeps the first record per id, preserving order.
func DedupeById(records []models.SoftpaqRecord) []models.SoftpaqRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.SoftpaqRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.Id]; ok {
			continue
		}
		seen[rec.Id] = struct{}{}
		out = append(out, rec)
	}
	return out
}
