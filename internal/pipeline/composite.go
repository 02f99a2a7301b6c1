package pipeline

import (
	"context"

	"stackpress/internal/fileutil"
	"stackpress/internal/transform"
)

// CompositeSuffix names the intermediate RGB image built next to an asset.
const CompositeSuffix = ".rgb.tmp.tif"

// CompositePath returns the intermediate composite location for assetPath.
func CompositePath(assetPath string) string {
	return assetPath + CompositeSuffix
}

// ChannelPages maps page indexes onto the red, green and blue channels.
// Two pages reuse the second page for blue; pages past the third are ignored.
// It returns nil when there is nothing to combine.
func ChannelPages(pages int) []int {
	switch {
	case pages <= 1:
		return nil
	case pages == 2:
		return []int{0, 1, 1}
	default:
		return []int{0, 1, 2}
	}
}

// Composite combines the pages of assetPath into an RGB image and returns its
// path. Single-page assets are returned unchanged and nothing is created.
func Composite(ctx context.Context, invoker transform.Invoker, assetPath string, pages int) (string, error) {
	channels := ChannelPages(pages)
	if channels == nil {
		return assetPath, nil
	}

	out := CompositePath(assetPath)
	fileutil.RemoveQuietly(out)

	inputs := make([]transform.Source, 0, len(channels))
	for _, page := range channels {
		inputs = append(inputs, transform.Page(assetPath, page))
	}
	if _, err := invoker.Invoke(ctx, transform.Operation{
		Kind:   transform.KindCombine,
		Inputs: inputs,
		Output: out,
	}); err != nil {
		return "", err
	}
	return out, nil
}
