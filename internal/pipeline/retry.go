package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"consumption-pipeline/internal/model"
)

// RunWithRetry runs the pipeline and re-runs it from the first stage after a
// failure, up to cfg.MaxRetries more times with a constant cfg.Delay between
// attempts. Context cancellation is not retried.
func RunWithRetry(ctx context.Context, runner *Runner, run model.Run, cfg model.RetryConfig) (*model.RunReport, error) {
	logger := runner.logger
	attempt := 0

	operation := func() (*model.RunReport, error) {
		attempt++
		run.Attempt = attempt
		report, err := runner.Run(ctx, run)
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return nil, backoff.Permanent(err)
		}
		return report, err
	}

	maxTries := cfg.MaxRetries + 1
	if maxTries < 1 {
		maxTries = 1
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(cfg.Delay)),
		backoff.WithMaxTries(uint(maxTries)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			fields := []zap.Field{
				zap.String("run_id", run.ID),
				zap.Int("attempt", attempt),
				zap.String("stage", FailedStage(err)),
				zap.Int64("appended_rows", AppendedRows(err)),
				zap.Duration("retry_in", next),
				zap.Error(err),
			}
			if runner.opts.RerunPolicy != model.RerunReplace && loadedBefore(err) {
				logger.Warn("🔄 retrying after rows were appended; the next attempt appends them again", fields...)
				return
			}
			logger.Warn("🔄 run attempt failed, retrying", fields...)
		}),
	)
}

// loadedBefore reports whether rows were already appended when err aborted the run
func loadedBefore(err error) bool {
	switch FailedStage(err) {
	case model.StageCheckRows, model.StageRunInfo:
		return true
	case model.StageLoad:
		return AppendedRows(err) > 0
	default:
		return false
	}
}
