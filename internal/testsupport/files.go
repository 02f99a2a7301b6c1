package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	mustWrite(t, path, buf)
}

// GrayPage is one 8-bit grayscale frame of a fixture TIFF.
type GrayPage struct {
	Width  int
	Height int
	Pix    []byte // row-major, len Width*Height
}

// UniformPage returns a page where every sample is value.
func UniformPage(width, height int, value byte) GrayPage {
	pix := make([]byte, width*height)
	for i := range pix {
		pix[i] = value
	}
	return GrayPage{Width: width, Height: height, Pix: pix}
}

// GradientPage returns a page whose samples vary with position and seed so
// distinct pages are distinguishable pixel by pixel.
func GradientPage(width, height int, seed byte) GrayPage {
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[y*width+x] = byte(x*7+y*13) ^ seed
		}
	}
	return GrayPage{Width: width, Height: height, Pix: pix}
}

// At returns the sample at x, y.
func (p GrayPage) At(x, y int) byte { return p.Pix[y*p.Width+x] }

// WriteGrayTIFF writes an uncompressed little-endian multi-page grayscale
// TIFF with one IFD per page.
func WriteGrayTIFF(t testing.TB, path string, pages ...GrayPage) {
	t.Helper()
	if len(pages) == 0 {
		t.Fatalf("WriteGrayTIFF %s: no pages", path)
	}
	mustWrite(t, path, EncodeGrayTIFF(pages...))
}

// EncodeGrayTIFF lays out pixel data first, followed by the IFD chain.
func EncodeGrayTIFF(pages ...GrayPage) []byte {
	const (
		entries = 9
		ifdSize = 2 + entries*12 + 4
	)
	le := binary.LittleEndian

	dataOffsets := make([]uint32, len(pages))
	offset := uint32(8)
	for i, p := range pages {
		dataOffsets[i] = offset
		offset += uint32(len(p.Pix))
	}
	if offset%2 == 1 {
		offset++
	}
	ifdStart := offset

	out := make([]byte, int(ifdStart)+ifdSize*len(pages))
	copy(out, "II\x2A\x00")
	le.PutUint32(out[4:], ifdStart)
	for i, p := range pages {
		copy(out[dataOffsets[i]:], p.Pix)
	}

	for i, p := range pages {
		base := int(ifdStart) + i*ifdSize
		le.PutUint16(out[base:], entries)
		tags := [entries][2]uint32{
			{256, uint32(p.Width)},
			{257, uint32(p.Height)},
			{258, 8},
			{259, 1},
			{262, 1},
			{273, dataOffsets[i]},
			{277, 1},
			{278, uint32(p.Height)},
			{279, uint32(len(p.Pix))},
		}
		for j, tag := range tags {
			e := base + 2 + j*12
			le.PutUint16(out[e:], uint16(tag[0]))
			le.PutUint16(out[e+2:], 4) // LONG
			le.PutUint32(out[e+4:], 1)
			le.PutUint32(out[e+8:], tag[1])
		}
		next := uint32(0)
		if i+1 < len(pages) {
			next = ifdStart + uint32((i+1)*ifdSize)
		}
		le.PutUint32(out[base+2+entries*12:], next)
	}
	return out
}

// TIFFTag returns the value of a single-valued SHORT or LONG tag in the
// first IFD of the TIFF at path. It fails the test when the tag is absent.
func TIFFTag(t testing.TB, path string, tag uint16) uint32 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data) < 8 {
		t.Fatalf("%s: too short for a tiff header", path)
	}
	var order binary.ByteOrder = binary.LittleEndian
	if string(data[:2]) == "MM" {
		order = binary.BigEndian
	}
	ifd := int(order.Uint32(data[4:8]))
	if ifd+2 > len(data) {
		t.Fatalf("%s: ifd offset %d out of range", path, ifd)
	}
	n := int(order.Uint16(data[ifd:]))
	for i := 0; i < n; i++ {
		e := ifd + 2 + i*12
		if e+12 > len(data) {
			break
		}
		if order.Uint16(data[e:]) != tag {
			continue
		}
		switch order.Uint16(data[e+2:]) {
		case 3:
			return uint32(order.Uint16(data[e+8:]))
		case 4:
			return order.Uint32(data[e+8:])
		default:
			t.Fatalf("%s: tag %d has unsupported type %d", path, tag, order.Uint16(data[e+2:]))
		}
	}
	t.Fatalf("%s: tag %d not found", path, tag)
	return 0
}

// WriteScript writes an executable shell script, used to stand in for
// external tools.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
	return path
}

func mustWrite(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
