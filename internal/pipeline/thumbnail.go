package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"stackpress/internal/fileutil"
	"stackpress/internal/transform"
)

// ThumbnailSize is the edge length of every thumbnail.
const ThumbnailSize = 256

// Thumbnail renders the first frame of imagePath as a ThumbnailSize square
// JPEG at outputPath, covering the square and cropping around the center.
// The file is rendered beside outputPath and renamed into place.
func Thumbnail(ctx context.Context, invoker transform.Invoker, imagePath, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create thumbnail directory: %w", err)
	}
	return fileutil.RenderAtomic(outputPath, 0o644, func(tmpPath string) error {
		_, err := invoker.Invoke(ctx, transform.Operation{
			Kind:   transform.KindThumbnail,
			Inputs: []transform.Source{transform.Page(imagePath, 0)},
			Output: tmpPath,
			Width:  ThumbnailSize,
			Height: ThumbnailSize,
		})
		return err
	})
}
