package logging

import (
	"context"
	"log/slog"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error records err under the error key; a nil error is logged as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String(FieldError, "<nil>")
	}
	return slog.Any(FieldError, err)
}

// Args converts attributes into the variadic form slog methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(discardHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

type warningGuidance struct {
	hint   string
	impact string
}

// Catalog warnings leave the database committed while some file or page lags
// behind, so each class carries the operator step that reconciles it.
var warningDefaults = map[string]warningGuidance{
	"document_drift":     {"run `mintada coin fix COIN` to regenerate image references", "coin page no longer matches the database"},
	"file_drift":         {"run `mintada coin fix COIN` to reconcile image files", "image files no longer match the database"},
	"worker_unavailable": {"check swap.command in the config file", "swap detection skipped; faces left as stored"},
	"hash_cache":         {"delete the hash cache file if the warning repeats", "hashes will be recomputed on the next run"},
}

var fallbackGuidance = warningGuidance{"check logs for details", "operation completed with warnings"}

// WarnWithContext logs a catalog warning carrying event_type, error_hint and
// impact. Fields missing from attrs are filled from the event class.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	guidance, ok := warningDefaults[eventType]
	if !ok {
		guidance = fallbackGuidance
	}
	present := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		present[a.Key] = true
	}
	if !present[FieldEventType] {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !present[FieldErrorHint] {
		attrs = append(attrs, String(FieldErrorHint, guidance.hint))
	}
	if !present[FieldImpact] {
		attrs = append(attrs, String(FieldImpact, guidance.impact))
	}
	logger.Warn(msg, Args(attrs...)...)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool { return false }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }

func (discardHandler) WithAttrs([]slog.Attr) slog.Handler { return discardHandler{} }

func (discardHandler) WithGroup(string) slog.Handler { return discardHandler{} }
