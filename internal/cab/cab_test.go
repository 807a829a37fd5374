package cab

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"testing"
)

// buildCab assembles a minimal single-folder, single-file cabinet.
func buildCab(t *testing.T, name string, content []byte, mszip bool) []byte {
	t.Helper()

	payload := content
	compress := uint16(compressNone)
	if mszip {
		var cbuf bytes.Buffer
		cbuf.WriteString("CK")
		fw, err := flate.NewWriter(&cbuf, flate.BestCompression)
		if err != nil {
			t.Fatalf("flate writer: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("flate write: %v", err)
		}
		if err := fw.Close(); err != nil {
			t.Fatalf("flate close: %v", err)
		}
		payload = cbuf.Bytes()
		compress = compressMSZIP
	}

	var fileEntry bytes.Buffer
	binaryWrite(t, &fileEntry, uint32(len(content))) // cbFile
	binaryWrite(t, &fileEntry, uint32(0))            // uoffFolderStart
	binaryWrite(t, &fileEntry, uint16(0))            // iFolder
	binaryWrite(t, &fileEntry, uint16(0))            // date
	binaryWrite(t, &fileEntry, uint16(0))            // time
	binaryWrite(t, &fileEntry, uint16(0x20))         // attribs
	fileEntry.WriteString(name)
	fileEntry.WriteByte(0)

	coffFiles := uint32(36 + 8)
	coffCabStart := coffFiles + uint32(fileEntry.Len())

	var out bytes.Buffer
	out.WriteString("MSCF")
	binaryWrite(t, &out, uint32(0)) // reserved1
	cbCabinet := coffCabStart + 8 + uint32(len(payload))
	binaryWrite(t, &out, cbCabinet)
	binaryWrite(t, &out, uint32(0)) // reserved2
	binaryWrite(t, &out, coffFiles)
	binaryWrite(t, &out, uint32(0)) // reserved3
	out.WriteByte(3)                // versionMinor
	out.WriteByte(1)                // versionMajor
	binaryWrite(t, &out, uint16(1)) // cFolders
	binaryWrite(t, &out, uint16(1)) // cFiles
	binaryWrite(t, &out, uint16(0)) // flags
	binaryWrite(t, &out, uint16(0)) // setID
	binaryWrite(t, &out, uint16(0)) // iCabinet

	binaryWrite(t, &out, coffCabStart)
	binaryWrite(t, &out, uint16(1)) // cCFData
	binaryWrite(t, &out, compress)

	out.Write(fileEntry.Bytes())

	binaryWrite(t, &out, uint32(0)) // csum (unchecked)
	binaryWrite(t, &out, uint16(len(payload)))
	binaryWrite(t, &out, uint16(len(content)))
	out.Write(payload)

	return out.Bytes()
}

func binaryWrite(t *testing.T, w *bytes.Buffer, v any) {
	t.Helper()
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		t.Fatalf("binary write: %v", err)
	}
}

func TestExtract_Uncompressed(t *testing.T) {
	content := []byte("<ImagePal><Solutions/></ImagePal>")
	img := buildCab(t, "catalog.xml", content, false)

	files, err := Extract(img)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].Name != "catalog.xml" {
		t.Errorf("wrong name: %s", files[0].Name)
	}
	if !bytes.Equal(files[0].Data, content) {
		t.Errorf("content mismatch: %q", files[0].Data)
	}
}

func TestExtract_MSZIP(t *testing.T) {
	content := bytes.Repeat([]byte("softpaq catalog data "), 200)
	img := buildCab(t, "c.xml", content, true)

	files, err := Extract(img)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(files[0].Data, content) {
		t.Errorf("MSZIP roundtrip mismatch: got %d bytes, want %d", len(files[0].Data), len(content))
	}
}

func TestExtract_RejectsGarbage(t *testing.T) {
	if _, err := Extract([]byte("not a cabinet at all")); err == nil {
		t.Fatal("expected an error for non-cabinet input")
	}
}

func TestExtract_RejectsTruncated(t *testing.T) {
	img := buildCab(t, "c.xml", []byte("payload payload payload"), false)
	if _, err := Extract(img[:len(img)-10]); err == nil {
		t.Fatal("expected an error for truncated cabinet")
	}
}

func TestExtract_MissingMSZIPSignature(t *testing.T) {
	img := buildCab(t, "c.xml", []byte("data"), false)
	// Flip the folder's compression type to MSZIP without CK blocks.
	binary.LittleEndian.PutUint16(img[42:], compressMSZIP)
	if _, err := Extract(img); err == nil {
		t.Fatal("expected an error for missing block signature")
	}
}
