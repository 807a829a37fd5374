// Package cab reads Microsoft cabinet archives just far enough for
// reference catalogs: a single-folder cabinet compressed with either
// MSZIP or not at all. Multi-cabinet sets and LZX/Quantum folders are
// out of scope.
package cab

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

const (
	magic = "MSCF"

	flagPrevCabinet    = 0x0001
	flagNextCabinet    = 0x0002
	flagReservePresent = 0x0004

	compressNone  = 0
	compressMSZIP = 1
)

// File is one member of the cabinet.
type File struct {
	Name string
	Data []byte
}

type folder struct {
	dataOffset uint32
	dataCount  uint16
	compress   uint16
}

type fileEntry struct {
	name        string
	size        uint32
	folderStart uint32
	folderIndex uint16
}

// Extract parses a cabinet image and returns its files. Only the
// first folder is decoded; catalogs ship exactly one.
func Extract(data []byte) ([]File, error) {
	r := &reader{buf: data}

	if len(data) < 36 || string(data[:4]) != magic {
		return nil, fmt.Errorf("not a cabinet file")
	}

	cbCabinet := r.u32at(8)
	if int(cbCabinet) > len(data) {
		return nil, fmt.Errorf("truncated cabinet: header claims %d bytes, have %d", cbCabinet, len(data))
	}
	coffFiles := r.u32at(16)
	cFolders := r.u16at(26)
	cFiles := r.u16at(28)
	flags := r.u16at(30)

	if cFolders == 0 || cFiles == 0 {
		return nil, fmt.Errorf("empty cabinet")
	}

	r.off = 36
	var cbCFFolder, cbCFData int
	if flags&flagReservePresent != 0 {
		cbCFHeader := int(r.u16())
		cbCFFolder = int(r.u8())
		cbCFData = int(r.u8())
		r.skip(cbCFHeader)
	}
	if flags&flagPrevCabinet != 0 {
		r.skipString()
		r.skipString()
	}
	if flags&flagNextCabinet != 0 {
		r.skipString()
		r.skipString()
	}
	if r.err != nil {
		return nil, r.err
	}

	// Only the first CFFOLDER is decoded.
	fld := folder{
		dataOffset: r.u32(),
		dataCount:  r.u16(),
		compress:   r.u16() & 0x000f,
	}
	r.skip(cbCFFolder)
	if r.err != nil {
		return nil, r.err
	}

	r.off = int(coffFiles)
	entries := make([]fileEntry, 0, cFiles)
	for i := 0; i < int(cFiles); i++ {
		e := fileEntry{
			size:        r.u32(),
			folderStart: r.u32(),
			folderIndex: r.u16(),
		}
		r.skip(6) // date, time, attribs
		e.name = r.cstring()
		if r.err != nil {
			return nil, fmt.Errorf("corrupt file table: %w", r.err)
		}
		entries = append(entries, e)
	}

	stream, err := decodeFolder(data, fld, cbCFData)
	if err != nil {
		return nil, err
	}

	out := make([]File, 0, len(entries))
	for _, e := range entries {
		if e.folderIndex != 0 {
			continue // continued-from/to or later folder, not supported
		}
		start, end := int(e.folderStart), int(e.folderStart)+int(e.size)
		if end > len(stream) {
			return nil, fmt.Errorf("file %s exceeds folder stream (%d > %d)", e.name, end, len(stream))
		}
		out = append(out, File{Name: e.name, Data: stream[start:end]})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no extractable files in cabinet")
	}
	return out, nil
}

// decodeFolder concatenates the folder's CFDATA blocks into the
// uncompressed stream. MSZIP blocks carry their deflate history across
// blocks, so each block is inflated with the previous block's output
// as preset dictionary.
func decodeFolder(data []byte, fld folder, reserve int) ([]byte, error) {
	r := &reader{buf: data, off: int(fld.dataOffset)}
	var stream bytes.Buffer
	var history []byte

	for i := 0; i < int(fld.dataCount); i++ {
		r.skip(4) // checksum, not validated
		cbData := int(r.u16())
		cbUncomp := int(r.u16())
		r.skip(reserve)
		block := r.bytes(cbData)
		if r.err != nil {
			return nil, fmt.Errorf("corrupt data block %d: %w", i, r.err)
		}

		switch fld.compress {
		case compressNone:
			stream.Write(block)
		case compressMSZIP:
			if len(block) < 2 || block[0] != 'C' || block[1] != 'K' {
				return nil, fmt.Errorf("data block %d: missing MSZIP signature", i)
			}
			fr := flate.NewReaderDict(bytes.NewReader(block[2:]), history)
			uncomp := make([]byte, 0, cbUncomp)
			buf := bytes.NewBuffer(uncomp)
			if _, err := io.Copy(buf, fr); err != nil {
				_ = fr.Close()
				return nil, fmt.Errorf("data block %d: inflate: %w", i, err)
			}
			if err := fr.Close(); err != nil {
				return nil, fmt.Errorf("data block %d: inflate: %w", i, err)
			}
			if buf.Len() != cbUncomp {
				return nil, fmt.Errorf("data block %d: expected %d bytes, got %d", i, cbUncomp, buf.Len())
			}
			history = buf.Bytes()
			stream.Write(history)
		default:
			return nil, fmt.Errorf("unsupported compression type %d", fld.compress)
		}
	}
	return stream.Bytes(), nil
}

// reader is a bounds-checked little-endian cursor over the cabinet
// image. The first error sticks; callers check r.err after a batch of
// reads.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) fail(n int) bool {
	if r.err != nil {
		return true
	}
	if r.off+n > len(r.buf) || r.off < 0 {
		r.err = io.ErrUnexpectedEOF
		return true
	}
	return false
}

func (r *reader) u8() byte {
	if r.fail(1) {
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	if r.fail(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *reader) u32() uint32 {
	if r.fail(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) u16at(off int) uint16 {
	if off+2 > len(r.buf) {
		r.err = io.ErrUnexpectedEOF
		return 0
	}
	return binary.LittleEndian.Uint16(r.buf[off:])
}

func (r *reader) u32at(off int) uint32 {
	if off+4 > len(r.buf) {
		r.err = io.ErrUnexpectedEOF
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[off:])
}

func (r *reader) skip(n int) {
	if r.fail(n) {
		return
	}
	r.off += n
}

func (r *reader) bytes(n int) []byte {
	if r.fail(n) {
		return nil
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}

func (r *reader) cstring() string {
	if r.err != nil {
		return ""
	}
	end := bytes.IndexByte(r.buf[r.off:], 0)
	if end < 0 {
		r.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(r.buf[r.off : r.off+end])
	r.off += end + 1
	return s
}

func (r *reader) skipString() { _ = r.cstring() }
