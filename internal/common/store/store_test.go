// internal/common/store/store_test.go
package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-pipeline/internal/common/logger"
	"form-pipeline/internal/models"
)

// ============================================================================
// Fake scheduler
// ============================================================================

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	was := !f.stopped
	f.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// fire runs a timer callback even if it was stopped, which is what a
// timer racing with Stop looks like.
func (s *fakeScheduler) fire(t *fakeTimer) {
	t.fn()
}

func submission(id string, ts time.Time) models.Submission {
	return models.Submission{
		ID:        id,
		Name:      "Ann",
		Age:       30,
		Email:     "a@b.com",
		Gender:    models.GenderFemale,
		Country:   "France",
		FormType:  models.FormTypeHookForm,
		Timestamp: ts,
	}
}

func newTestStore(t *testing.T) (*Store, *fakeScheduler) {
	sched := &fakeScheduler{}
	st := New(Options{
		HighlightTimeout: 3 * time.Second,
		Scheduler:        sched,
		Logger:           logger.NewTestLogger(t),
	})
	return st, sched
}

// ============================================================================
// Append / ClearLatest
// ============================================================================

func TestAppend(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		seed     []models.Submission
		record   models.Submission
		validate func(t *testing.T, st *Store, err error)
	}{
		{
			name:   "first append becomes latest",
			record: submission("a", base),
			validate: func(t *testing.T, st *Store, err error) {
				require.NoError(t, err)
				all := st.GetAll()
				require.Len(t, all, 1)
				assert.Equal(t, "a", all[0].ID)
				id, ok := st.Latest()
				assert.True(t, ok)
				assert.Equal(t, "a", id)
			},
		},
		{
			name:   "append goes to the end",
			seed:   []models.Submission{submission("a", base), submission("b", base.Add(time.Second))},
			record: submission("c", base.Add(time.Second)),
			validate: func(t *testing.T, st *Store, err error) {
				require.NoError(t, err)
				all := st.GetAll()
				require.Len(t, all, 3)
				assert.Equal(t, "c", all[len(all)-1].ID)
				assert.True(t, st.IsLatest("c"))
				assert.False(t, st.IsLatest("b"))
			},
		},
		{
			name:   "duplicate id rejected",
			seed:   []models.Submission{submission("a", base)},
			record: submission("a", base.Add(time.Second)),
			validate: func(t *testing.T, st *Store, err error) {
				assert.ErrorIs(t, err, ErrDuplicateID)
				assert.Equal(t, 1, st.Len())
			},
		},
		{
			name:   "older timestamp rejected",
			seed:   []models.Submission{submission("a", base)},
			record: submission("b", base.Add(-time.Second)),
			validate: func(t *testing.T, st *Store, err error) {
				assert.ErrorIs(t, err, ErrOutOfOrder)
				assert.True(t, st.IsLatest("a"))
			},
		},
		{
			name:   "empty id rejected",
			record: submission("", base),
			validate: func(t *testing.T, st *Store, err error) {
				assert.ErrorIs(t, err, ErrEmptyID)
				assert.Zero(t, st.Len())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, _ := newTestStore(t)
			for _, s := range tt.seed {
				require.NoError(t, st.Append(s))
			}
			tt.validate(t, st, st.Append(tt.record))
		})
	}
}

func TestAppendStamped(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		seed     []models.Submission
		now      time.Time
		validate func(t *testing.T, st *Store, stored models.Submission, err error)
	}{
		{
			name: "empty store takes the clock",
			now:  base,
			validate: func(t *testing.T, st *Store, stored models.Submission, err error) {
				require.NoError(t, err)
				assert.Equal(t, base, stored.Timestamp)
				assert.Equal(t, base, st.LastTimestamp())
			},
		},
		{
			name: "clock ahead of the store",
			seed: []models.Submission{submission("a", base)},
			now:  base.Add(time.Minute),
			validate: func(t *testing.T, st *Store, stored models.Submission, err error) {
				require.NoError(t, err)
				assert.Equal(t, base.Add(time.Minute), stored.Timestamp)
			},
		},
		{
			name: "clock behind the store is raised",
			seed: []models.Submission{submission("a", base)},
			now:  base.Add(-time.Hour),
			validate: func(t *testing.T, st *Store, stored models.Submission, err error) {
				require.NoError(t, err)
				assert.Equal(t, base, stored.Timestamp)
				all := st.GetAll()
				require.Len(t, all, 2)
				assert.Equal(t, stored, all[1])
				assert.True(t, st.IsLatest("b"))
			},
		},
		{
			name: "duplicate id still rejected",
			seed: []models.Submission{submission("b", base)},
			now:  base.Add(time.Second),
			validate: func(t *testing.T, st *Store, _ models.Submission, err error) {
				assert.ErrorIs(t, err, ErrDuplicateID)
				assert.Equal(t, 1, st.Len())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, _ := newTestStore(t)
			for _, s := range tt.seed {
				require.NoError(t, st.Append(s))
			}
			stored, err := st.AppendStamped(submission("b", time.Time{}), tt.now)
			tt.validate(t, st, stored, err)
		})
	}
}

func TestAppendStamped_ConcurrentWritersStayOrdered(t *testing.T) {
	st := New(Options{})
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	const writers, perWriter = 4, 50
	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			// Each writer has its own skewed clock.
			skew := time.Duration(w) * -time.Minute
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				_, err := st.AppendStamped(submission(id, time.Time{}), base.Add(skew+time.Duration(i)*time.Second))
				errs <- err
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	all := st.GetAll()
	require.Len(t, all, writers*perWriter)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.Before(all[i-1].Timestamp), "timestamp at %d went backwards", i)
	}
}

func TestClearLatest_KeepsSubmissions(t *testing.T) {
	st, sched := newTestStore(t)
	now := time.Now()
	require.NoError(t, st.Append(submission("a", now)))
	require.NoError(t, st.Append(submission("b", now)))
	before := st.GetAll()

	st.ClearLatest()

	_, ok := st.Latest()
	assert.False(t, ok)
	assert.Equal(t, before, st.GetAll())
	assert.True(t, sched.last().stopped, "explicit clear cancels the pending timer")
}

func TestGetAll_ReturnsCopy(t *testing.T) {
	st, _ := newTestStore(t)
	require.NoError(t, st.Append(submission("a", time.Now())))

	all := st.GetAll()
	all[0].Name = "Changed"

	assert.Equal(t, "Ann", st.GetAll()[0].Name)
}

// ============================================================================
// Highlight timer
// ============================================================================

func TestHighlightTimer(t *testing.T) {
	st, sched := newTestStore(t)
	now := time.Now()

	require.NoError(t, st.Append(submission("a", now)))
	first := sched.last()
	require.NotNil(t, first)
	assert.Equal(t, 3*time.Second, first.d)

	require.NoError(t, st.Append(submission("b", now)))
	second := sched.last()
	assert.True(t, first.stopped, "newer append cancels the pending clear")
	assert.NotSame(t, first, second)

	// A stale callback that slipped past Stop must not clear b.
	sched.fire(first)
	assert.True(t, st.IsLatest("b"))

	sched.fire(second)
	_, ok := st.Latest()
	assert.False(t, ok)
	assert.Equal(t, 2, st.Len())
}

func TestClose_CancelsPendingClear(t *testing.T) {
	st, sched := newTestStore(t)
	require.NoError(t, st.Append(submission("a", time.Now())))
	pending := sched.last()

	st.Close()
	assert.True(t, pending.stopped)

	sched.fire(pending)
	assert.True(t, st.IsLatest("a"), "timer cancelled by Close has no effect")

	require.NoError(t, st.Append(submission("b", time.Now())))
	assert.Same(t, pending, sched.last(), "closed store arms no new timers")
}

func TestZeroTimeoutDisablesClear(t *testing.T) {
	sched := &fakeScheduler{}
	st := New(Options{Scheduler: sched})
	require.NoError(t, st.Append(submission("a", time.Now())))

	assert.Nil(t, sched.last())
	assert.True(t, st.IsLatest("a"))
}

func TestRealScheduler(t *testing.T) {
	st := New(Options{HighlightTimeout: 10 * time.Millisecond})
	defer st.Close()

	cleared := make(chan struct{})
	st.Subscribe(func(s Snapshot) {
		if s.LatestID == "" {
			close(cleared)
		}
	})
	require.NoError(t, st.Append(submission("a", time.Now())))

	select {
	case <-cleared:
	case <-time.After(2 * time.Second):
		t.Fatal("highlight was not cleared")
	}
	assert.Equal(t, 1, st.Len())
}

// ============================================================================
// Subscribers
// ============================================================================

func TestSubscribe(t *testing.T) {
	st, sched := newTestStore(t)

	var got []Snapshot
	unsubscribe := st.Subscribe(func(s Snapshot) { got = append(got, s) })

	require.NoError(t, st.Append(submission("a", time.Now())))
	sched.fire(sched.last())
	st.ClearLatest()

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].LatestID)
	assert.Len(t, got[0].Submissions, 1)
	assert.Empty(t, got[1].LatestID)
	assert.Empty(t, got[2].LatestID)

	unsubscribe()
	unsubscribe()
	require.NoError(t, st.Append(submission("b", time.Now())))
	assert.Len(t, got, 3)
}

func TestSubscriberMayReadStore(t *testing.T) {
	st, _ := newTestStore(t)

	var seen int
	st.Subscribe(func(Snapshot) { seen = st.Len() })
	require.NoError(t, st.Append(submission("a", time.Now())))

	assert.Equal(t, 1, seen)
}
