package models

import "time"

// Wildcard is the sentinel meaning "match anything" in a filter
// dimension.
const Wildcard = "*"

// NotFoundPolicy controls what happens when an expected remote
// resource is absent during a sync.
type NotFoundPolicy string

const (
	NotFoundFail           NotFoundPolicy = "Fail"
	NotFoundLogAndContinue NotFoundPolicy = "LogAndContinue"
)

// ToggleState is the on/off enum the manifest uses for optional
// behaviors.
type ToggleState string

const (
	ToggleEnable  ToggleState = "Enable"
	ToggleDisable ToggleState = "Disable"
)

// ReportFormat selects the serialization of the repository report.
type ReportFormat string

const (
	ReportCSV      ReportFormat = "CSV"
	ReportJSON     ReportFormat = "JSON"
	ReportXML      ReportFormat = "XML"
	ReportExcelCSV ReportFormat = "ExcelCSV"
)

// Filter selects catalog entries for one platform. Nil slices and the
// empty OperatingSystem mean wildcard; Normalize resolves them to the
// explicit sentinel before the filter is stored.
type Filter struct {
	Platform        string   `json:"platform"`
	OperatingSystem string   `json:"operatingSystem"`
	Category        []string `json:"category,omitempty"`
	ReleaseType     []string `json:"releaseType,omitempty"`
	Characteristic  []string `json:"characteristic,omitempty"`
	PreferLTSC      *bool    `json:"preferLTSC,omitempty"`
}

// Settings holds the sync policy knobs. Zero values are filled with
// documented defaults on load.
type Settings struct {
	OnRemoteFileNotFound    NotFoundPolicy `json:"onRemoteFileNotFound"`
	ExclusiveLockMaxRetries int            `json:"exclusiveLockMaxRetries"`
	OfflineCacheMode        ToggleState    `json:"offlineCacheMode"`
	RepositoryReport        ReportFormat   `json:"repositoryReport"`
}

// NotificationConfig is the SMTP failure-notification target set.
type NotificationConfig struct {
	Server            string   `json:"server"`
	Port              int      `json:"port"`
	TLS               bool     `json:"tls"`
	Username          string   `json:"username,omitempty"`
	EncryptedPassword string   `json:"encryptedPassword,omitempty"`
	From              string   `json:"from"`
	FromName          string   `json:"fromName,omitempty"`
	Addresses         []string `json:"addresses,omitempty"`
}

// RepositoryManifest is the single JSON document describing one
// repository: its filters, policies and notification targets. It is
// mutated only through the manifest store, which re-stamps the
// modification fields on every write.
type RepositoryManifest struct {
	DateCreated      time.Time           `json:"dateCreated"`
	CreatedBy        string              `json:"createdBy"`
	DateLastModified time.Time           `json:"dateLastModified"`
	ModifiedBy       string              `json:"modifiedBy"`
	Filters          []Filter            `json:"filters"`
	Settings         Settings            `json:"settings"`
	Notifications    *NotificationConfig `json:"notifications,omitempty"`
}

// Platforms returns the distinct platform ids referenced by the
// manifest filters, in first-seen order.
func (m *RepositoryManifest) Platforms() []string {
	seen := make(map[string]struct{}, len(m.Filters))
	var out []string
	for _, f := range m.Filters {
		if _, ok := seen[f.Platform]; ok {
			continue
		}
		seen[f.Platform] = struct{}{}
		out = append(out, f.Platform)
	}
	return out
}

// FiltersFor returns the manifest filters scoped to one platform.
func (m *RepositoryManifest) FiltersFor(platform string) []Filter {
	var out []Filter
	for _, f := range m.Filters {
		if f.Platform == platform {
			out = append(out, f)
		}
	}
	return out
}
