package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	runIDKey ctxKey = "run_id"
	stageKey ctxKey = "stage"
)

// WithRunID stores the identifier of the current build run in the context.
func WithRunID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromCtx extracts the run ID from the context.
// Returns uuid.Nil and false if the value is missing, nil UUID, or wrong type.
func RunIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(runIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithStage stores the name of the running pipeline stage in the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromCtx extracts the stage name from the context.
// Returns an empty string if absent.
func StageFromCtx(ctx context.Context) string {
	stage, _ := ctx.Value(stageKey).(string)
	return stage
}
