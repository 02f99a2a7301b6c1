package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized key for the batch run identifier.
	FieldRunID = "run_id"
	// FieldAsset is the standardized key for the asset base identifier.
	FieldAsset = "asset"
	// FieldStep is the standardized key for the pipeline step (inspect, composite, ...).
	FieldStep = "step"
	// FieldEventType classifies a record for filtering (asset_failed, manifest_written, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	runIDKey contextKey = iota
	assetKey
	stepKey
)

// WithRunID stores the batch run identifier on ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return withValue(ctx, runIDKey, id)
}

// WithAsset stores the asset base identifier on ctx.
func WithAsset(ctx context.Context, base string) context.Context {
	return withValue(ctx, assetKey, base)
}

// WithStep stores the current pipeline step on ctx.
func WithStep(ctx context.Context, step string) context.Context {
	return withValue(ctx, stepKey, step)
}

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

// contextFields extracts standardized slog attributes from the provided context.
func contextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	for _, entry := range []struct {
		key   contextKey
		field string
	}{
		{runIDKey, FieldRunID},
		{assetKey, FieldAsset},
		{stepKey, FieldStep},
	} {
		if value, ok := ctx.Value(entry.key).(string); ok {
			fields = append(fields, slog.String(entry.field, value))
		}
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
