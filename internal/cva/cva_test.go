package cva

import "testing"

const sample = `[Software Title]
US=HP Audio Driver

[General]
Version=6.0.9301.2
Revision=A
VendorName=HP Inc.
Category=Driver - Audio

[Softpaq]
SoftPaqSHA256=AABBCCDD
SoftPaqDescription=Audio driver package
`

func TestParse(t *testing.T) {
	doc := Parse([]byte(sample))

	if got := doc.Title(); got != "HP Audio Driver" {
		t.Errorf("Title = %q", got)
	}
	if got := doc.Vendor(); got != "HP Inc." {
		t.Errorf("Vendor = %q", got)
	}
	if got := doc.Version(); got != "6.0.9301.2 A" {
		t.Errorf("Version = %q", got)
	}
	if got := doc.Category(); got != "Driver - Audio" {
		t.Errorf("Category = %q", got)
	}
	if got := doc.ExpectedSHA256(); got != "AABBCCDD" {
		t.Errorf("ExpectedSHA256 = %q", got)
	}
}

func TestParse_TitleFallsBackToDescription(t *testing.T) {
	doc := Parse([]byte("[Softpaq]\nSoftPaqDescription=Fallback title\n"))
	if got := doc.Title(); got != "Fallback title" {
		t.Errorf("Title = %q", got)
	}
}

func TestParse_IgnoresCommentsAndBlanks(t *testing.T) {
	doc := Parse([]byte("; leading comment\n\n[General]\n; another\nVersion=1\n"))
	if got := doc.Get("General", "Version"); got != "1" {
		t.Errorf("Version = %q", got)
	}
}
