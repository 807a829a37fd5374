package catalog

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/spqsync/spqsync/internal/models"
)

// Wire schema of the decompressed reference catalog.
type imagePalXML struct {
	XMLName   xml.Name `xml:"ImagePal"`
	Solutions struct {
		UpdateInfo []updateInfoXML `xml:"UpdateInfo"`
	} `xml:"Solutions"`
}

type updateInfoXML struct {
	ID              string `xml:"Id"`
	Name            string `xml:"Name"`
	Category        string `xml:"Category"`
	Version         string `xml:"Version"`
	Vendor          string `xml:"Vendor"`
	ReleaseType     string `xml:"ReleaseType"`
	SSMCompliant    string `xml:"SSMCompliant"`
	DPBCompliant    string `xml:"DPBCompliant"`
	URL             string `xml:"Url"`
	ReleaseNotesURL string `xml:"ReleaseNotesUrl"`
	CvaURL          string `xml:"CvaUrl"`
	Size            int64  `xml:"Size"`
	DateReleased    string `xml:"DateReleased"`
	ContentTypes    string `xml:"ContentTypes"`
}

// Parse validates and decodes a catalog XML document into records.
func Parse(data []byte) ([]models.SoftpaqRecord, error) {
	var doc imagePalXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed catalog XML: %w", err)
	}

	records := make([]models.SoftpaqRecord, 0, len(doc.Solutions.UpdateInfo))
	for _, u := range doc.Solutions.UpdateInfo {
		if u.ID == "" {
			continue
		}
		records = append(records, models.SoftpaqRecord{
			Id:              strings.ToLower(strings.TrimSpace(u.ID)),
			Name:            u.Name,
			Category:        u.Category,
			Version:         u.Version,
			Vendor:          u.Vendor,
			ReleaseType:     u.ReleaseType,
			SSM:             xmlBool(u.SSMCompliant),
			DPB:             xmlBool(u.DPBCompliant),
			UWP:             strings.TrimSpace(u.ContentTypes) != "",
			URL:             u.URL,
			ReleaseNotesURL: u.ReleaseNotesURL,
			MetadataURL:     u.CvaURL,
			SizeBytes:       u.Size,
			ReleaseDate:     u.DateReleased,
		})
	}
	return records, nil
}

func xmlBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true
	}
	return false
}
