package logging

import (
	"context"
	"log/slog"

	"mintada/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCoinID is the standardized key for coin type identifiers.
	FieldCoinID = "coin_id"
	// FieldSampleID is the standardized key for coin sample identifiers.
	FieldSampleID = "sample_id"
	// FieldIssuerID is the standardized key for issuer identifiers.
	FieldIssuerID = "issuer_id"
	// FieldOperation is the standardized key for lifecycle operation names.
	FieldOperation = "operation"
	// FieldRequestID is the standardized key for per-invocation request identifiers.
	FieldRequestID = "request_id"
	// FieldEventType classifies warnings (document_drift, file_drift, worker_unavailable).
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	FieldError  = "error"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.CoinIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldCoinID, id))
	}
	if id, ok := services.IssuerIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldIssuerID, id))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
