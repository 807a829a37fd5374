package models

// SoftpaqRecord is one catalog entry: an installable package the
// vendor publishes for a platform. Identity key is Id.
type SoftpaqRecord struct {
	Id              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	Version         string `json:"version"`
	Vendor          string `json:"vendor"`
	ReleaseType     string `json:"releaseType"`
	SSM             bool   `json:"ssm"`
	DPB             bool   `json:"dpb"`
	UWP             bool   `json:"uwp"`
	URL             string `json:"url"`
	ReleaseNotesURL string `json:"releaseNotesUrl,omitempty"`
	MetadataURL     string `json:"metadataUrl,omitempty"`
	SizeBytes       int64  `json:"sizeBytes"`
	ReleaseDate     string `json:"releaseDate,omitempty"`
}
