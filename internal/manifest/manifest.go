// Package manifest reads and writes the list of processed asset identifiers
// consumed by downstream tooling.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"stackpress/internal/fileutil"
)

// Manifest is the on-disk document {"basenames": [...]}.
type Manifest struct {
	Basenames []string `json:"basenames"`
}

// Add appends base, keeping duplicates.
func (m *Manifest) Add(base string) {
	m.Basenames = append(m.Basenames, base)
}

// Marshal renders the manifest as two-space indented JSON. An empty manifest
// encodes as an empty array, never null.
func (m Manifest) Marshal() ([]byte, error) {
	if m.Basenames == nil {
		m.Basenames = []string{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write replaces path with the encoded manifest in one rename.
func Write(path string, m Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// Read loads a manifest written by Write.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if m.Basenames == nil {
		m.Basenames = []string{}
	}
	return m, nil
}
