package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spqsync/spqsync/internal/models"
)

const sampleCVA = `[Software Title]
US=HP Audio Driver

[General]
Version=2.1
Revision=B
VendorName=HP Inc.
Category=Driver - Audio
`

func seedRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "sp1.cva"), []byte(sampleCVA), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sp1.exe"), []byte("binary"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Metadata without its binary.
	if err := os.WriteFile(filepath.Join(root, "sp2.cva"), []byte("[General]\nCategory=BIOS\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestCollect(t *testing.T) {
	rows, err := Collect(seedRepo(t))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	sp1 := rows[0]
	if sp1.Id != "sp1" || sp1.Vendor != "HP Inc." || sp1.Type != "driver" {
		t.Errorf("unexpected sp1 row: %+v", sp1)
	}
	if sp1.Version != "2.1 B" {
		t.Errorf("version+revision projection wrong: %q", sp1.Version)
	}
	if sp1.SizeBytes == "" || sp1.Downloaded == "" {
		t.Error("sp1 has a binary, size and timestamp must be set")
	}

	sp2 := rows[1]
	if sp2.SizeBytes != "" || sp2.Downloaded != "" {
		t.Error("absent binary must yield empty size/timestamp, not an error")
	}
	if sp2.Type != "bios" {
		t.Errorf("sp2 type = %q", sp2.Type)
	}
}

func TestSerialize_CSV(t *testing.T) {
	rows, _ := Collect(seedRepo(t))
	data, err := Serialize(rows, models.ReportCSV)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Id,Vendor,Title") {
		t.Errorf("unexpected header: %s", lines[0])
	}
}

func TestSerialize_ExcelCSVPreamble(t *testing.T) {
	rows, _ := Collect(seedRepo(t))
	data, err := Serialize(rows, models.ReportExcelCSV)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("ExcelCSV must start with a UTF-8 BOM")
	}
	if !bytes.Contains(data[:16], []byte("sep=,")) {
		t.Error("ExcelCSV must carry the separator hint")
	}
}

func TestSerialize_JSON(t *testing.T) {
	rows, _ := Collect(seedRepo(t))
	data, err := Serialize(rows, models.ReportJSON)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var back []Row
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(back) != 2 {
		t.Errorf("expected 2 rows, got %d", len(back))
	}
}

func TestSerialize_XML(t *testing.T) {
	rows, _ := Collect(seedRepo(t))
	data, err := Serialize(rows, models.ReportXML)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !strings.Contains(string(data), "<RepositoryReport>") {
		t.Error("missing XML root element")
	}
}

func TestSerialize_UnknownFormat(t *testing.T) {
	if _, err := Serialize(nil, models.ReportFormat("TSV")); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}
