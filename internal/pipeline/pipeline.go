// Package pipeline implements the daily consumption load: wait for the input
// file, prepare the three category tables, load them, verify row counts and
// report stage durations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/internal/storage"
	"consumption-pipeline/pkg/utils"
)

// Options is the per-deployment run policy
type Options struct {
	InputPath    string
	PokeInterval time.Duration
	WaitTimeout  time.Duration
	RerunPolicy  model.RerunPolicy
}

// DefaultOptions mirrors the production schedule
func DefaultOptions() Options {
	return Options{
		InputPath:    "./data/rawdata/consumption_{date}.csv",
		PokeInterval: DefaultPokeInterval,
		WaitTimeout:  DefaultWaitTimeout,
		RerunPolicy:  model.RerunAppend,
	}
}

// Runner executes the stages of a run one after another
type Runner struct {
	opener  storage.Opener
	opts    Options
	fs      afero.Fs
	clock   Clock
	tracker Tracker
	logger  *zap.Logger
}

// RunnerOption customizes a Runner
type RunnerOption func(*Runner)

func WithFS(fs afero.Fs) RunnerOption { return func(r *Runner) { r.fs = fs } }

func WithClock(c Clock) RunnerOption { return func(r *Runner) { r.clock = c } }

func WithTracker(t Tracker) RunnerOption { return func(r *Runner) { r.tracker = t } }

func WithLogger(l *zap.Logger) RunnerOption { return func(r *Runner) { r.logger = l } }

// NewRunner creates a runner that opens storage through opener once per run
func NewRunner(opener storage.Opener, opts Options, options ...RunnerOption) *Runner {
	if opts.RerunPolicy == "" {
		opts.RerunPolicy = model.RerunAppend
	}
	r := &Runner{
		opener:  opener,
		opts:    opts,
		fs:      afero.NewOsFs(),
		clock:   RealClock,
		tracker: NopTracker{},
		logger:  zap.NewNop(),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// NewRun builds a pending run for logicalTime. The input path template and
// the table names are resolved from the logical date.
func (r *Runner) NewRun(logicalTime time.Time) model.Run {
	return model.Run{
		ID:          uuid.New().String(),
		LogicalTime: logicalTime,
		InputPath:   utils.ExpandInputPath(r.opts.InputPath, logicalTime),
		Tables:      model.TablesFor(logicalTime),
		Status:      model.RunPending,
		Attempt:     1,
	}
}

// Run executes one attempt. The first failing stage aborts the run with a
// *StageError; the report is produced only when every stage succeeded.
func (r *Runner) Run(ctx context.Context, run model.Run) (report *model.RunReport, err error) {
	if run.Attempt == 0 {
		run.Attempt = 1
	}
	start := r.clock.Now()
	logger := r.logger.With(
		zap.String("run_id", run.ID),
		zap.Time("logical_time", run.LogicalTime),
		zap.Int("attempt", run.Attempt))

	run.Status = model.RunRunning
	if terr := r.tracker.StartRun(ctx, run); terr != nil {
		logger.Warn("failed to record run start", zap.Error(terr))
	}
	logger.Info("🚀 starting run", zap.String("input", run.InputPath), zap.Int("tables", len(run.Tables)))

	var st storage.Store
	defer func() {
		if st != nil {
			if cerr := st.Close(); cerr != nil {
				logger.Warn("failed to close storage", zap.Error(cerr))
			}
		}

		status := model.RunSuccess
		if err != nil {
			status = model.RunFailed
			logger.Error("❌ run failed", zap.String("stage", FailedStage(err)), zap.Error(err))
		}
		// a cancelled ctx must not keep the final status from being written
		if terr := r.tracker.FinishRun(context.WithoutCancel(ctx), run.ID, status, err); terr != nil {
			logger.Warn("failed to record run result", zap.Error(terr))
		}
	}()

	var durations []model.StageDuration
	stage := func(name string, fn func() error) error {
		t0 := r.clock.Now()
		r.trackStage(ctx, logger, run.ID, model.StageProgress{Stage: name, Status: model.StageStarted, StartTime: t0})

		serr := fn()

		t1 := r.clock.Now()
		p := model.StageProgress{Stage: name, Status: model.StageCompleted, StartTime: t0, EndTime: &t1}
		if serr != nil {
			p.Status = model.StageFailed
			p.Error = serr.Error()
		}
		r.trackStage(context.WithoutCancel(ctx), logger, run.ID, p)

		if serr != nil {
			return &StageError{Stage: name, Err: serr}
		}
		durations = append(durations, model.StageDuration{Stage: name, Duration: t1.Sub(t0)})
		logger.Debug("stage completed", zap.String("stage", name), zap.Duration("duration", t1.Sub(t0)))
		return nil
	}

	watcher := &Watcher{
		FS:       r.fs,
		Interval: r.opts.PokeInterval,
		Timeout:  r.opts.WaitTimeout,
		Clock:    r.clock,
		Logger:   logger,
	}
	if err = stage(model.StageWaitForFile, func() error {
		_, werr := watcher.Wait(ctx, run.InputPath)
		return werr
	}); err != nil {
		return nil, err
	}

	if err = stage(model.StageCreateTable, func() error {
		opened, oerr := r.opener(ctx)
		if oerr != nil {
			return connectivityError("open storage", oerr)
		}
		st = opened
		return PrepareSchema(ctx, st, run.Tables, logger)
	}); err != nil {
		return nil, err
	}

	var load model.LoadResult
	if err = stage(model.StageLoad, func() error {
		var lerr error
		load, lerr = TransformAndLoad(ctx, st, r.fs, run.InputPath, run.LogicalTime, run.Tables, r.opts.RerunPolicy, logger)
		if lerr == nil || len(load.Tables) > 0 {
			if terr := r.tracker.SaveLoadResult(ctx, run.ID, load); terr != nil {
				logger.Warn("failed to record load result", zap.Error(terr))
			}
		}
		return lerr
	}); err != nil {
		return nil, err
	}

	if err = stage(model.StageCheckRows, func() error {
		v, verr := VerifyCounts(ctx, st, load, logger)
		if verr != nil {
			return verr
		}
		if terr := r.tracker.SaveVerification(ctx, run.ID, v); terr != nil {
			logger.Warn("failed to record verification", zap.Error(terr))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// run_information reports on the stages before it and is not part of its own report
	reportStart := r.clock.Now()
	r.trackStage(ctx, logger, run.ID, model.StageProgress{Stage: model.StageRunInfo, Status: model.StageStarted, StartTime: reportStart})
	rep := BuildRunReport(start, reportStart, durations)
	rep.RunID = run.ID
	rep.LogicalTime = run.LogicalTime
	LogRunReport(logger, rep)
	reportEnd := r.clock.Now()
	r.trackStage(ctx, logger, run.ID, model.StageProgress{Stage: model.StageRunInfo, Status: model.StageCompleted, StartTime: reportStart, EndTime: &reportEnd})

	logger.Info("🎉 run succeeded", zap.Duration("elapsed", rep.Elapsed))
	return &rep, nil
}

func (r *Runner) trackStage(ctx context.Context, logger *zap.Logger, runID string, p model.StageProgress) {
	if err := r.tracker.SaveStageProgress(ctx, runID, p); err != nil {
		logger.Warn("failed to record stage progress", zap.String("stage", p.Stage), zap.Error(err))
	}
}

// ExitCode maps a run error to a process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrTimeout):
		return 2
	case errors.Is(err, ErrDataFormat):
		return 3
	case errors.Is(err, ErrConnectivity):
		return 4
	default:
		return 1
	}
}

// Describe is a one-line operator summary of a run error
func Describe(err error) string {
	if err == nil {
		return "success"
	}
	var se *StageError
	if errors.As(err, &se) {
		return fmt.Sprintf("failed at %s: %v", se.Stage, se.Err)
	}
	return err.Error()
}
