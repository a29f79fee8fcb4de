package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Default arrival policy: poke every 5 minutes for at most 15 minutes
const (
	DefaultPokeInterval = 5 * time.Minute
	DefaultWaitTimeout  = 15 * time.Minute
)

// Clock abstracts time for the poll loop and stage timing
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock
var RealClock Clock = realClock{}

// WatchResult describes a successful wait
type WatchResult struct {
	Polls  int           `json:"polls"`
	Waited time.Duration `json:"waited"`
}

// Watcher waits for the input file by polling at a fixed interval
type Watcher struct {
	FS       afero.Fs
	Interval time.Duration
	Timeout  time.Duration
	Clock    Clock
	Logger   *zap.Logger
}

// NewWatcher creates a watcher on the OS filesystem with the default policy
func NewWatcher(logger *zap.Logger) *Watcher {
	return &Watcher{
		FS:       afero.NewOsFs(),
		Interval: DefaultPokeInterval,
		Timeout:  DefaultWaitTimeout,
		Clock:    RealClock,
		Logger:   logger,
	}
}

// Wait polls for path at t=0, Interval, 2*Interval, ... and once more at the
// deadline. It returns as soon as a poll observes the file, or an ErrTimeout
// error when the deadline poll still finds nothing.
func (w *Watcher) Wait(ctx context.Context, path string) (WatchResult, error) {
	clock := w.Clock
	if clock == nil {
		clock = RealClock
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPokeInterval
	}
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := clock.Now()
	deadline := start.Add(w.Timeout)

	for polls := 1; ; polls++ {
		found, err := w.exists(path)
		if err != nil {
			logger.Warn("poke failed", zap.String("path", path), zap.Error(err))
		}
		if found {
			waited := clock.Now().Sub(start)
			logger.Info("✅ input file found", zap.String("path", path), zap.Int("polls", polls), zap.Duration("waited", waited))
			return WatchResult{Polls: polls, Waited: waited}, nil
		}

		remaining := deadline.Sub(clock.Now())
		if remaining <= 0 {
			return WatchResult{Polls: polls, Waited: clock.Now().Sub(start)},
				fmt.Errorf("%w: %s not found after %s", ErrTimeout, path, w.Timeout)
		}

		next := interval
		if remaining < next {
			next = remaining
		}
		logger.Info("⏳ waiting for input file", zap.String("path", path), zap.Int("poll", polls), zap.Duration("next_poke_in", next))

		select {
		case <-ctx.Done():
			return WatchResult{Polls: polls, Waited: clock.Now().Sub(start)}, ctx.Err()
		case <-clock.After(next):
		}
	}
}

func (w *Watcher) exists(path string) (bool, error) {
	fs := w.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	info, err := fs.Stat(path)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}
