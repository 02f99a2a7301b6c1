package pipeline

import (
	"context"

	"stackpress/internal/fileutil"
	"stackpress/internal/transform"
)

const (
	// CompressedSuffix names the re-encoded image awaiting publication.
	CompressedSuffix = ".lzw.tmp.tif"
	compressionLZW   = "LZW"
)

// CompressedPath returns the compressed output location for imagePath.
func CompressedPath(imagePath string) string {
	return imagePath + CompressedSuffix
}

// Compress re-encodes imagePath with lossless LZW compression and returns the
// path of the new file.
func Compress(ctx context.Context, invoker transform.Invoker, imagePath string) (string, error) {
	out := CompressedPath(imagePath)
	fileutil.RemoveQuietly(out)

	if _, err := invoker.Invoke(ctx, transform.Operation{
		Kind:        transform.KindCompress,
		Inputs:      []transform.Source{transform.File(imagePath)},
		Output:      out,
		Compression: compressionLZW,
	}); err != nil {
		return "", err
	}
	return out, nil
}
