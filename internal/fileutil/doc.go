// Package fileutil holds the filesystem primitives the publish pipeline relies
// on: replacing a file with new content without exposing a missing or partial
// file, writing small files atomically, and best-effort removal of transient
// artifacts whose cleanup outcome is deliberately ignored.
package fileutil
