// Package transform is the boundary between the publish pipeline and the
// pixel-level image toolkit.
//
// The pipeline describes work as an Operation (page count, channel combine,
// lossless re-encode, thumbnail) and hands it to an Invoker. Two invokers are
// provided: Magick runs ImageMagick as a subprocess, and Builtin performs the
// same operations in-process with a pure Go TIFF codec. Failures from Magick
// are *CommandError values that carry the invocation and captured output.
package transform
