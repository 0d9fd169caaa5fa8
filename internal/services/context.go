package services

import "context"

type contextKey string

const (
	coinIDKey    contextKey = "coin_id"
	issuerIDKey  contextKey = "issuer_id"
	operationKey contextKey = "operation"
	requestIDKey contextKey = "request_id"
)

// WithCoinID annotates context with the coin type identifier.
func WithCoinID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, coinIDKey, id)
}

// CoinIDFromContext extracts the coin type identifier if present.
func CoinIDFromContext(ctx context.Context) (int64, bool) {
	return int64Value(ctx, coinIDKey)
}

// WithIssuerID annotates context with the issuer identifier.
func WithIssuerID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, issuerIDKey, id)
}

// IssuerIDFromContext extracts the issuer identifier if present.
func IssuerIDFromContext(ctx context.Context) (int64, bool) {
	return int64Value(ctx, issuerIDKey)
}

// WithOperation annotates context with the lifecycle operation name.
func WithOperation(ctx context.Context, op string) context.Context {
	if op == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, op)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(operationKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a request identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

func int64Value(ctx context.Context, key contextKey) (int64, bool) {
	switch val := ctx.Value(key).(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}
