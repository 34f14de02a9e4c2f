// internal/common/store/store.go
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"form-pipeline/internal/common/logger"
	"form-pipeline/internal/models"
)

var (
	ErrEmptyID     = errors.New("submission id is empty")
	ErrDuplicateID = errors.New("submission id already stored")
	ErrOutOfOrder  = errors.New("submission timestamp precedes the latest stored submission")
)

// Timer is a pending deferred call.
type Timer interface {
	Stop() bool
}

// Scheduler arms deferred calls. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Snapshot is a read-only view handed to subscribers.
type Snapshot struct {
	Submissions []models.Submission
	LatestID    string
}

type Options struct {
	// HighlightTimeout is how long LatestID survives an append. Zero
	// disables the timed clear.
	HighlightTimeout time.Duration
	Scheduler        Scheduler
	Logger           logger.Logger
}

// Store is the append-only, process-scoped collection of submissions.
// The only mutators are Append and ClearLatest.
type Store struct {
	mu          sync.Mutex
	submissions []models.Submission
	ids         map[string]struct{}
	latestID    string

	highlight  time.Duration
	scheduler  Scheduler
	timer      Timer
	generation uint64
	closed     bool

	subscribers map[int]func(Snapshot)
	nextSubID   int

	logger logger.Logger
}

func New(opts Options) *Store {
	if opts.Scheduler == nil {
		opts.Scheduler = realScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &Store{
		ids:         make(map[string]struct{}),
		highlight:   opts.HighlightTimeout,
		scheduler:   opts.Scheduler,
		subscribers: make(map[int]func(Snapshot)),
		logger:      opts.Logger,
	}
}

// Append adds s at the end and points LatestID at it. A pending
// highlight clear is cancelled and re-armed for s.
func (st *Store) Append(s models.Submission) error {
	_, err := st.insert(s, nil)
	return err
}

// AppendStamped stamps s with now, raised to the newest stored timestamp
// when the clock is behind, and appends it under the same lock. It returns
// the submission as stored.
func (st *Store) AppendStamped(s models.Submission, now time.Time) (models.Submission, error) {
	return st.insert(s, &now)
}

func (st *Store) insert(s models.Submission, now *time.Time) (models.Submission, error) {
	st.mu.Lock()
	if s.ID == "" {
		st.mu.Unlock()
		return s, ErrEmptyID
	}
	if _, exists := st.ids[s.ID]; exists {
		st.mu.Unlock()
		return s, fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
	}
	last := st.lastTimestampLocked()
	if now != nil {
		s.Timestamp = *now
		if s.Timestamp.Before(last) {
			s.Timestamp = last
		}
	}
	if s.Timestamp.Before(last) {
		st.mu.Unlock()
		return s, fmt.Errorf("%w: %s", ErrOutOfOrder, s.ID)
	}

	st.submissions = append(st.submissions, s)
	st.ids[s.ID] = struct{}{}
	st.latestID = s.ID
	st.rearmLocked()
	snap, subs := st.snapshotLocked(), st.subscriberListLocked()
	st.mu.Unlock()

	st.logger.Debug("Submission appended", map[string]interface{}{
		"submissionId": s.ID,
		"formType":     string(s.FormType),
		"count":        len(snap.Submissions),
	})
	notify(subs, snap)
	return s, nil
}

// ClearLatest drops the latest pointer unconditionally.
func (st *Store) ClearLatest() {
	st.mu.Lock()
	st.cancelTimerLocked()
	st.latestID = ""
	snap, subs := st.snapshotLocked(), st.subscriberListLocked()
	st.mu.Unlock()

	notify(subs, snap)
}

// GetAll returns a copy of the submissions in insertion order.
func (st *Store) GetAll() []models.Submission {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.copyLocked()
}

// Latest returns the id of the newest submission while it is highlighted.
func (st *Store) Latest() (string, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.latestID, st.latestID != ""
}

func (st *Store) IsLatest(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return id != "" && id == st.latestID
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.submissions)
}

// LastTimestamp is the timestamp of the newest submission, zero if empty.
func (st *Store) LastTimestamp() time.Time {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastTimestampLocked()
}

func (st *Store) lastTimestampLocked() time.Time {
	if n := len(st.submissions); n > 0 {
		return st.submissions[n-1].Timestamp
	}
	return time.Time{}
}

func (st *Store) Snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotLocked()
}

// Subscribe registers fn for a Snapshot after every mutation. The returned
// func removes it.
func (st *Store) Subscribe(fn func(Snapshot)) func() {
	st.mu.Lock()
	defer st.mu.Unlock()

	id := st.nextSubID
	st.nextSubID++
	st.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			st.mu.Lock()
			delete(st.subscribers, id)
			st.mu.Unlock()
		})
	}
}

// Close cancels a pending highlight clear and stops arming new ones.
// Stored submissions stay readable.
func (st *Store) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.cancelTimerLocked()
	st.closed = true
	st.subscribers = make(map[int]func(Snapshot))
}

func (st *Store) rearmLocked() {
	st.cancelTimerLocked()
	if st.closed || st.highlight <= 0 {
		return
	}
	gen := st.generation
	st.timer = st.scheduler.AfterFunc(st.highlight, func() {
		st.expire(gen)
	})
}

func (st *Store) cancelTimerLocked() {
	st.generation++
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}

// expire clears the pointer unless a newer append or clear superseded
// the timer that called it.
func (st *Store) expire(gen uint64) {
	st.mu.Lock()
	if gen != st.generation {
		st.mu.Unlock()
		return
	}
	st.timer = nil
	st.latestID = ""
	snap, subs := st.snapshotLocked(), st.subscriberListLocked()
	st.mu.Unlock()

	st.logger.Debug("Latest submission highlight expired", nil)
	notify(subs, snap)
}

func (st *Store) copyLocked() []models.Submission {
	out := make([]models.Submission, len(st.submissions))
	copy(out, st.submissions)
	return out
}

func (st *Store) snapshotLocked() Snapshot {
	return Snapshot{Submissions: st.copyLocked(), LatestID: st.latestID}
}

func (st *Store) subscriberListLocked() []func(Snapshot) {
	subs := make([]func(Snapshot), 0, len(st.subscribers))
	for _, fn := range st.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
