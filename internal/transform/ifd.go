package transform

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	tiffHeaderLE = "II\x2A\x00"
	tiffHeaderBE = "MM\x00\x2A"
	ifdEntryLen  = 12
	maxPages     = 65535
)

var errNotTIFF = errors.New("not a tiff file")

// pageOffsets walks the IFD chain of a classic TIFF and returns the offset of
// every image file directory in file order.
func pageOffsets(r io.ReaderAt) ([]int64, error) {
	header := make([]byte, 8)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var order binary.ByteOrder
	switch string(header[:4]) {
	case tiffHeaderLE:
		order = binary.LittleEndian
	case tiffHeaderBE:
		order = binary.BigEndian
	default:
		return nil, errNotTIFF
	}

	var offsets []int64
	seen := make(map[int64]struct{})
	next := int64(order.Uint32(header[4:8]))
	count := make([]byte, 2)
	link := make([]byte, 4)
	for next != 0 {
		if _, dup := seen[next]; dup {
			return nil, fmt.Errorf("ifd chain loops at offset %d", next)
		}
		if len(offsets) >= maxPages {
			return nil, fmt.Errorf("ifd chain exceeds %d pages", maxPages)
		}
		seen[next] = struct{}{}
		offsets = append(offsets, next)

		if _, err := r.ReadAt(count, next); err != nil {
			return nil, fmt.Errorf("read ifd at %d: %w", next, err)
		}
		entries := int64(order.Uint16(count))
		if _, err := r.ReadAt(link, next+2+entries*ifdEntryLen); err != nil {
			return nil, fmt.Errorf("read ifd link at %d: %w", next, err)
		}
		next = int64(order.Uint32(link))
	}
	if len(offsets) == 0 {
		return nil, errors.New("tiff has no image directories")
	}
	return offsets, nil
}
