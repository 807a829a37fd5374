// Package report projects the on-disk repository contents into a flat
// tabular report, serialized in the configured format or rendered as
// a terminal table.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spqsync/spqsync/internal/cva"
	"github.com/spqsync/spqsync/internal/filter"
	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/models"
)

// Row is one retained package, built from its metadata file plus the
// optional sibling binary for size and timestamp.
type Row struct {
	Id         string `json:"id" xml:"Id"`
	Vendor     string `json:"vendor" xml:"Vendor"`
	Title      string `json:"title" xml:"Title"`
	Type       string `json:"type" xml:"Type"`
	Version    string `json:"version" xml:"Version"`
	Downloaded string `json:"downloaded,omitempty" xml:"Downloaded,omitempty"`
	SizeBytes  string `json:"sizeBytes,omitempty" xml:"SizeBytes,omitempty"`
}

type xmlReport struct {
	XMLName  xml.Name `xml:"RepositoryReport"`
	Packages []Row    `xml:"Package"`
}

// Collect scans root for package metadata and builds report rows,
// sorted by id. A metadata file without its binary yields empty
// size/timestamp fields rather than an error.
func Collect(root string) ([]Row, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read repository root: %w", err)
	}

	var rows []Row
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".cva") {
			continue
		}
		id := strings.TrimSuffix(strings.ToLower(e.Name()), ".cva")

		data, err := os.ReadFile(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		doc := cva.Parse(data)

		row := Row{
			Id:      id,
			Vendor:  doc.Vendor(),
			Title:   doc.Title(),
			Type:    filter.ClassifyCategory(doc.Category()),
			Version: doc.Version(),
		}
		if fi, err := os.Stat(filepath.Join(root, id+".exe")); err == nil {
			row.Downloaded = fi.ModTime().UTC().Format(time.RFC3339)
			row.SizeBytes = strconv.FormatInt(fi.Size(), 10)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Id < rows[j].Id })
	return rows, nil
}

// Serialize projects rows into the requested format.
func Serialize(rows []Row, format models.ReportFormat) ([]byte, error) {
	switch format {
	case models.ReportCSV:
		return serializeCSV(rows, false)
	case models.ReportExcelCSV:
		return serializeCSV(rows, true)
	case models.ReportJSON:
		return json.MarshalIndent(rows, "", "  ")
	case models.ReportXML:
		out, err := xml.MarshalIndent(xmlReport{Packages: rows}, "", "  ")
		if err != nil {
			return nil, err
		}
		return append([]byte(xml.Header), out...), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

var csvHeader = []string{"Id", "Vendor", "Title", "Type", "Version", "Downloaded", "SizeBytes"}

func serializeCSV(rows []Row, excel bool) ([]byte, error) {
	var buf bytes.Buffer
	if excel {
		// UTF-8 BOM plus the separator hint Excel honors on open.
		buf.Write([]byte{0xEF, 0xBB, 0xBF})
		buf.WriteString("sep=,\r\n")
	}
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := []string{r.Id, r.Vendor, r.Title, r.Type, r.Version, r.Downloaded, r.SizeBytes}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTable prints rows to the logger's writer.
func RenderTable(rows []Row) error {
	table := logger.CreateTable(csvHeader)
	for _, r := range rows {
		if err := table.Append([]string{r.Id, r.Vendor, r.Title, r.Type, r.Version, r.Downloaded, r.SizeBytes}); err != nil {
			return err
		}
	}
	return table.Render()
}
