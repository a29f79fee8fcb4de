package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/internal/storage"
)

var testLogicalTime = time.Date(2023, 3, 5, 6, 0, 0, 0, time.UTC)

// fakeClock advances instantly on After and lets a test react to each step
type fakeClock struct {
	mu        sync.Mutex
	now       time.Time
	onAdvance func(now time.Time)
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	hook := c.onAdvance
	c.mu.Unlock()

	if hook != nil {
		hook(now)
	}
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// fakeStore is an in-memory storage.Store with injectable failures
type fakeStore struct {
	mu        sync.Mutex
	tables    map[string]bool
	rows      map[string]int64
	ensureErr error
	appendErr error
	failTable map[string]int // remaining Append failures per table
	countErr  error
	shortBy   int64
	closed    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: map[string]bool{}, rows: map[string]int64{}}
}

func (s *fakeStore) EnsureTable(_ context.Context, t model.TableDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensureErr != nil {
		return s.ensureErr
	}
	s.tables[t.Name] = true
	return nil
}

func (s *fakeStore) Append(_ context.Context, table string, records []model.SourceRecord, policy model.RerunPolicy) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return 0, s.appendErr
	}
	if s.failTable[table] > 0 {
		s.failTable[table]--
		return 0, fmt.Errorf("connection reset while copying into %s", table)
	}
	if !s.tables[table] {
		return 0, fmt.Errorf("no such table: %s", table)
	}
	if policy == model.RerunReplace {
		s.rows[table] = 0
	}
	written := int64(len(records))
	if written > 0 {
		written -= s.shortBy
	}
	s.rows[table] += written
	return written, nil
}

func (s *fakeStore) Count(_ context.Context, table string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.rows[table], nil
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStore) opener() storage.Opener {
	return func(context.Context) (storage.Store, error) { return s, nil }
}

// recordingTracker keeps every tracker call in memory
type recordingTracker struct {
	mu           sync.Mutex
	started      []model.Run
	progress     []model.StageProgress
	load         *model.LoadResult
	verification *model.VerificationResult
	status       model.RunStatus
	runErr       error
}

func (t *recordingTracker) StartRun(_ context.Context, run model.Run) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = append(t.started, run)
	return nil
}

func (t *recordingTracker) SaveStageProgress(_ context.Context, _ string, p model.StageProgress) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = append(t.progress, p)
	return nil
}

func (t *recordingTracker) SaveLoadResult(_ context.Context, _ string, load model.LoadResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load = &load
	return nil
}

func (t *recordingTracker) SaveVerification(_ context.Context, _ string, v model.VerificationResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.verification = &v
	return nil
}

func (t *recordingTracker) FinishRun(_ context.Context, _ string, status model.RunStatus, runErr error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	t.runErr = runErr
	return nil
}

func (t *recordingTracker) stageStatuses() map[string]model.StageStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := map[string]model.StageStatus{}
	for _, p := range t.progress {
		out[p.Stage] = p.Status
	}
	return out
}

const csvHeader = "Category,Sub-Category,Month,Millions of Dollars"

// consumptionCSV builds a file with the given number of rows per category label
func consumptionCSV(counts map[string]int) string {
	var b strings.Builder
	b.WriteString(csvHeader + "\n")
	labels := []string{
		model.CategoryAlcoholic.Label,
		model.CategoryCerealsBakery.Label,
		model.CategoryMeatsPoultry.Label,
	}
	for label := range counts {
		if _, ok := model.CategoryByLabel(label); !ok {
			labels = append(labels, label)
		}
	}
	for _, label := range labels {
		for i := 0; i < counts[label]; i++ {
			fmt.Fprintf(&b, "%q,Item %d,%02d/03/2023,%d\n", label, i, i%28+1, 100+i)
		}
	}
	return b.String()
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}
