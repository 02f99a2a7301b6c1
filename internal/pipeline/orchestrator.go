package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stackpress/internal/fileutil"
	"stackpress/internal/logging"
	"stackpress/internal/manifest"
	"stackpress/internal/transform"
)

// LockFileName is the advisory lock held inside a directory while it is processed.
const LockFileName = ".stackpress.lock"

// ErrLocked reports that another run already holds the directory lock.
var ErrLocked = errors.New("directory is locked by another run")

// Options tunes a batch run.
type Options struct {
	Workers      int
	Strategy     fileutil.Strategy
	ThumbnailDir string // relative to the processed directory
	ManifestName string
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Strategy == "" {
		o.Strategy = fileutil.StrategyBackup
	}
	if o.ThumbnailDir == "" {
		o.ThumbnailDir = "thumbs"
	}
	if o.ManifestName == "" {
		o.ManifestName = "manifest.json"
	}
	return o
}

// Recorder persists finished run reports.
type Recorder interface {
	Record(ctx context.Context, report Report) error
}

// Orchestrator drives a directory of assets through the publish pipeline.
type Orchestrator struct {
	invoker  transform.Invoker
	opts     Options
	logger   *slog.Logger
	recorder Recorder
	publish  func(strategy fileutil.Strategy, original, replacement string) error
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder stores every finished report.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// New constructs an Orchestrator around invoker.
func New(invoker transform.Invoker, opts Options, logger *slog.Logger, options ...Option) *Orchestrator {
	o := &Orchestrator{
		invoker: invoker,
		opts:    opts.withDefaults(),
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		publish: fileutil.PublishWith,
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Run processes every TIFF directly inside dir.
//
// Per-asset failures are logged and reported but never fail the run. The
// returned error is reserved for conditions that prevent the batch itself:
// an unreadable directory, a held lock, a manifest that cannot be written,
// or cancellation. On cancellation no new assets start and the manifest of
// attempted assets is still written.
func (o *Orchestrator) Run(ctx context.Context, dir string) (Report, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return Report{}, fmt.Errorf("resolve directory: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return Report{}, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return Report{}, fmt.Errorf("%s is not a directory", absDir)
	}

	lock := flock.New(filepath.Join(absDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return Report{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return Report{}, fmt.Errorf("%w: %s", ErrLocked, absDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			o.logger.Warn("release directory lock failed", logging.Error(err))
		}
	}()

	report := Report{
		RunID:        uuid.NewString(),
		Dir:          absDir,
		ManifestPath: filepath.Join(absDir, o.opts.ManifestName),
		Started:      time.Now().UTC(),
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, o.logger)

	assets, err := Discover(absDir)
	if err != nil {
		return report, err
	}
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.String("dir", absDir),
		logging.Int("assets", len(assets)),
		logging.Int("workers", o.opts.Workers),
	)

	if len(assets) > 0 {
		thumbDir := filepath.Join(absDir, o.opts.ThumbnailDir)
		if err := os.MkdirAll(thumbDir, 0o755); err != nil {
			return report, fmt.Errorf("create thumbnail directory: %w", err)
		}
		report.Outcomes = o.processAll(ctx, assets, thumbDir)
	}

	for _, outcome := range report.Outcomes {
		report.Manifest.Add(outcome.Base)
	}
	if err := manifest.Write(report.ManifestPath, report.Manifest); err != nil {
		return report, err
	}
	logger.Info("manifest written",
		logging.String(logging.FieldEventType, "manifest_written"),
		logging.String("path", report.ManifestPath),
		logging.Int("entries", len(report.Manifest.Basenames)),
	)

	report.Finished = time.Now().UTC()
	report.Canceled = ctx.Err() != nil
	o.record(ctx, logger, report)

	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("failed", report.Failed()),
		logging.Int("skipped", len(assets)-len(report.Outcomes)),
		logging.Duration("elapsed", report.Finished.Sub(report.Started)),
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// processAll runs assets through the pipeline with at most Workers in flight
// and returns outcomes for attempted assets in input order.
func (o *Orchestrator) processAll(ctx context.Context, assets []Asset, thumbDir string) []Outcome {
	outcomes := make([]Outcome, len(assets))
	attempted := make([]bool, len(assets))

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for i, asset := range assets {
		if ctx.Err() != nil {
			break
		}
		i, asset := i, asset
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			attempted[i] = true
			outcomes[i] = o.processAsset(ctx, asset, thumbDir)
			return nil
		})
	}
	_ = g.Wait()

	done := make([]Outcome, 0, len(assets))
	for i := range assets {
		if attempted[i] {
			done = append(done, outcomes[i])
		}
	}
	return done
}

func (o *Orchestrator) processAsset(ctx context.Context, asset Asset, thumbDir string) Outcome {
	start := time.Now()
	ctx = logging.WithAsset(ctx, asset.Base)
	outcome := Outcome{Base: asset.Base, Path: asset.Path}

	step, err := o.runSteps(ctx, asset, thumbDir, &outcome)
	outcome.Duration = time.Since(start)
	if err != nil {
		outcome.FailedStep = step
		outcome.Err = err
		outcome.Error = err.Error()
		logging.ErrorWithContext(logging.WithContext(logging.WithStep(ctx, string(step)), o.logger),
			"asset failed", "asset_failed",
			logging.String(logging.FieldErrorHint, failureHint(step, err)),
			logging.Error(err),
		)
		return outcome
	}

	logging.WithContext(ctx, o.logger).Info("asset published",
		logging.String(logging.FieldEventType, "asset_published"),
		logging.Int("pages", outcome.Pages),
		logging.Duration("elapsed", outcome.Duration),
	)
	return outcome
}

func (o *Orchestrator) runSteps(ctx context.Context, asset Asset, thumbDir string, outcome *Outcome) (Step, error) {
	pages, err := PageCount(logging.WithStep(ctx, string(StepInspect)), o.invoker, asset.Path)
	if err != nil {
		return StepInspect, err
	}
	outcome.Pages = pages

	image, err := Composite(logging.WithStep(ctx, string(StepComposite)), o.invoker, asset.Path, pages)
	if err != nil {
		return StepComposite, err
	}

	compressed, err := Compress(logging.WithStep(ctx, string(StepCompress)), o.invoker, image)
	if err != nil {
		return StepCompress, err
	}

	if err := o.publish(o.opts.Strategy, asset.Path, compressed); err != nil {
		return StepPublish, err
	}
	if image != asset.Path {
		fileutil.RemoveQuietly(image)
	}

	thumb := filepath.Join(thumbDir, asset.Base+".jpg")
	if err := Thumbnail(logging.WithStep(ctx, string(StepThumbnail)), o.invoker, asset.Path, thumb); err != nil {
		return StepThumbnail, err
	}
	return "", nil
}

func (o *Orchestrator) record(ctx context.Context, logger *slog.Logger, report Report) {
	if o.recorder == nil {
		return
	}
	// The run is over; a cancellation must not stop the history write.
	if err := o.recorder.Record(context.WithoutCancel(ctx), report); err != nil {
		logging.WarnWithContext(logger, "run history not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions"),
			logging.String(logging.FieldImpact, "run is missing from stackpress history"),
		)
	}
}

func failureHint(step Step, err error) string {
	var publishErr *fileutil.PublishError
	if errors.As(err, &publishErr) {
		return fmt.Sprintf("restore by renaming %s to %s", publishErr.Backup, publishErr.Original)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "raise transform.timeout_seconds or check the input size"
	}
	switch step {
	case StepInspect:
		return "verify the file is a readable TIFF"
	case StepComposite:
		return "check that every page shares the same dimensions"
	case StepCompress:
		return "check free disk space and transform tool output"
	case StepPublish:
		return "check directory write permissions"
	case StepThumbnail:
		return "check thumbnail directory permissions"
	default:
		return "check logs for details"
	}
}
