package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"stackpress/internal/textutil"
)

// Asset is one input TIFF.
type Asset struct {
	Path string // absolute
	Name string // file name
	Base string // file name without extension
}

// Discover lists the TIFF files directly inside dir in processing order.
// Subdirectories and the pipeline's own intermediate files are skipped.
func Discover(dir string) ([]Asset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var assets []Asset
	for _, entry := range entries {
		name := entry.Name()
		if !isTIFFName(name) || isIntermediate(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if !isRegular(entry, path) {
			continue
		}
		assets = append(assets, Asset{
			Path: path,
			Name: name,
			Base: strings.TrimSuffix(name, filepath.Ext(name)),
		})
	}
	SortAssets(assets)
	return assets, nil
}

// SortAssets orders assets by natural comparison of their base identifiers,
// breaking ties on the full file name.
func SortAssets(assets []Asset) {
	slices.SortStableFunc(assets, func(a, b Asset) int {
		if c := textutil.NaturalCompare(a.Base, b.Base); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

func isTIFFName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tif", ".tiff":
		return true
	}
	return false
}

func isIntermediate(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, CompositeSuffix) || strings.HasSuffix(lower, CompressedSuffix)
}

func isRegular(entry os.DirEntry, path string) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
