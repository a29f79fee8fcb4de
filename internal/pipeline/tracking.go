package pipeline

import (
	"context"

	"consumption-pipeline/internal/model"
)

// Tracker persists run lifecycle, stage progress and the inter-stage handoff.
// *store.Store implements it.
type Tracker interface {
	StartRun(ctx context.Context, run model.Run) error
	SaveStageProgress(ctx context.Context, runID string, p model.StageProgress) error
	SaveLoadResult(ctx context.Context, runID string, load model.LoadResult) error
	SaveVerification(ctx context.Context, runID string, v model.VerificationResult) error
	FinishRun(ctx context.Context, runID string, status model.RunStatus, runErr error) error
}

// NopTracker records nothing
type NopTracker struct{}

func (NopTracker) StartRun(context.Context, model.Run) error { return nil }
func (NopTracker) SaveStageProgress(context.Context, string, model.StageProgress) error {
	return nil
}
func (NopTracker) SaveLoadResult(context.Context, string, model.LoadResult) error { return nil }
func (NopTracker) SaveVerification(context.Context, string, model.VerificationResult) error {
	return nil
}
func (NopTracker) FinishRun(context.Context, string, model.RunStatus, error) error { return nil }
