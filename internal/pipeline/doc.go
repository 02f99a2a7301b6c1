// Package pipeline turns multi-page grayscale TIFF channel stacks into
// published RGB images with thumbnails and a manifest.
//
// Each asset flows through the same steps: inspect the page count, combine
// pages into an RGB composite when there is more than one, re-encode with
// lossless LZW compression, publish the result over the original, and render
// a fixed-size thumbnail. The Orchestrator drives every TIFF in a directory
// through those steps, isolates per-asset failures, and writes the manifest of
// attempted assets exactly once.
//
// Pixel work is delegated to a transform.Invoker supplied by the caller.
package pipeline
