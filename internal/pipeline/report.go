package pipeline

import (
	"time"

	"stackpress/internal/manifest"
)

// Step names a stage of per-asset processing.
type Step string

const (
	StepInspect   Step = "inspect"
	StepComposite Step = "composite"
	StepCompress  Step = "compress"
	StepPublish   Step = "publish"
	StepThumbnail Step = "thumbnail"
)

// Outcome records how one asset fared.
type Outcome struct {
	Base       string        `json:"base"`
	Path       string        `json:"path"`
	Pages      int           `json:"pages,omitempty"`
	FailedStep Step          `json:"failed_step,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Err        error         `json:"-"`
}

// OK reports whether the asset was published with a thumbnail.
func (o Outcome) OK() bool { return o.Err == nil }

// Report summarizes a batch run. Outcomes follow manifest order and only
// include assets that were attempted.
type Report struct {
	RunID        string            `json:"run_id"`
	Dir          string            `json:"dir"`
	ManifestPath string            `json:"manifest_path"`
	Manifest     manifest.Manifest `json:"manifest"`
	Outcomes     []Outcome         `json:"outcomes"`
	Started      time.Time         `json:"started"`
	Finished     time.Time         `json:"finished"`
	Canceled     bool              `json:"canceled,omitempty"`
}

// Succeeded counts assets that completed every step.
func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed counts assets that stopped at some step.
func (r Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}
