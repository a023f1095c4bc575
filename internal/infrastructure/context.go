package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a type for context keys
type contextKey string

const (
	// RunIDContextKey is the key for storing the pipeline run ID in context
	RunIDContextKey contextKey = "run_id"
	// ClientIDContextKey is the key for storing the client ID in context
	ClientIDContextKey contextKey = "client_id"
)

// NewRunID generates a fresh pipeline run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// WithRunID returns a context carrying the pipeline run ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

// GetRunID extracts the pipeline run ID from context, or "" if absent.
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(RunIDContextKey).(string); ok {
		return v
	}
	return ""
}

// WithClientID returns a context carrying the client being processed.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDContextKey, clientID)
}

// GetClientID extracts the client ID from context, or "" if absent.
func GetClientID(ctx context.Context) string {
	if v, ok := ctx.Value(ClientIDContextKey).(string); ok {
		return v
	}
	return ""
}
