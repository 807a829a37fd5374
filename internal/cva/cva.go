// Package cva parses the metadata documents that accompany SoftPaq
// binaries: INI-style sections of Key=Value lines. Only the fields
// the engine consumes are surfaced.
package cva

import (
	"bufio"
	"bytes"
	"strings"
)

// Document is a parsed metadata file.
type Document struct {
	sections map[string]map[string]string
}

// Parse reads a CVA payload. Unknown sections and keys are retained
// verbatim; the format has no schema version to validate against.
func Parse(data []byte) *Document {
	doc := &Document{sections: make(map[string]map[string]string)}
	section := ""

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(line[1 : len(line)-1])
			if _, ok := doc.sections[section]; !ok {
				doc.sections[section] = make(map[string]string)
			}
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		val := strings.TrimSpace(line[eq+1:])
		if _, ok := doc.sections[section]; !ok {
			doc.sections[section] = make(map[string]string)
		}
		doc.sections[section][key] = val
	}
	return doc
}

// Get returns the value for section/key, empty when absent.
func (d *Document) Get(section, key string) string {
	return d.sections[strings.ToLower(section)][strings.ToLower(key)]
}

// ExpectedSHA256 is the digest the binary must hash to, empty when
// the metadata does not advertise one.
func (d *Document) ExpectedSHA256() string {
	return d.Get("Softpaq", "SoftPaqSHA256")
}

// Title returns the human package title.
func (d *Document) Title() string {
	if t := d.Get("Software Title", "US"); t != "" {
		return t
	}
	return d.Get("Softpaq", "SoftPaqDescription")
}

// Vendor returns the publishing vendor.
func (d *Document) Vendor() string {
	return d.Get("General", "VendorName")
}

// Version returns "version revision" as advertised.
func (d *Document) Version() string {
	v := d.Get("General", "Version")
	if rev := d.Get("General", "Revision"); rev != "" {
		if v != "" {
			return v + " " + rev
		}
		return rev
	}
	return v
}

// Category returns the raw category label.
func (d *Document) Category() string {
	return d.Get("General", "Category")
}
