// Package skiplimit keeps the per-day skip quota and the sort preference.
//
// Both live in a small key-value store so they survive restarts. The quota
// resets the first time it is consulted on a later calendar day than the
// last recorded skip.
package skiplimit

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/harrisonrobin/focus/pkg/clock"
	"github.com/harrisonrobin/focus/pkg/model"
)

// DefaultMaxSkipsPerDay is the daily quota unless configured otherwise.
const DefaultMaxSkipsPerDay = 3

// Persisted keys.
const (
	KeyLastSkipDate   = "lastSkipDate"
	KeySkipCount      = "skipCount"
	KeySortPreference = "sortPreference"
)

// KV is the storage the tracker persists through.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Save() error
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLocation sets the time zone used to decide calendar days.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// Tracker enforces the daily skip quota.
type Tracker struct {
	store     KV
	clock     clock.Clock
	loc       *time.Location
	maxPerDay int
	mu        sync.Mutex
}

// New creates a tracker over store. A non-positive maxPerDay falls back to
// DefaultMaxSkipsPerDay.
func New(store KV, maxPerDay int, opts ...Option) *Tracker {
	if maxPerDay <= 0 {
		maxPerDay = DefaultMaxSkipsPerDay
	}
	t := &Tracker{
		store:     store,
		clock:     clock.RealClock{},
		loc:       time.Local,
		maxPerDay: maxPerDay,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.mu.Lock()
	t.checkAndReset()
	t.mu.Unlock()
	return t
}

// DailyMax is the configured quota.
func (t *Tracker) DailyMax() int {
	return t.maxPerDay
}

// Remaining reports how many skips are left today.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkAndReset()
	return max(0, t.maxPerDay-t.used())
}

// CanSkip reports whether another skip is allowed today.
func (t *Tracker) CanSkip() bool {
	return t.Remaining() > 0
}

// RecordSkip counts one skip against today's quota. It does not enforce the
// quota itself; callers check CanSkip first.
func (t *Tracker) RecordSkip() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkAndReset()
	t.store.Set(KeySkipCount, strconv.Itoa(t.used()+1))
	t.store.Set(KeyLastSkipDate, t.clock.Now().Format(time.RFC3339))
	return t.store.Save()
}

// SortPreference returns the persisted preference, or quick-first.
func (t *Tracker) SortPreference() model.SortPreference {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.store.Get(KeySortPreference); ok {
		if pref, ok := model.ParseSortPreference(v); ok {
			return pref
		}
	}
	return model.DefaultSortPreference
}

// SetSortPreference persists pref.
func (t *Tracker) SetSortPreference(pref model.SortPreference) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.store.Set(KeySortPreference, string(pref))
	return t.store.Save()
}

// checkAndReset zeroes the counter once the calendar day has moved past the
// last recorded skip. Callers hold t.mu.
func (t *Tracker) checkAndReset() {
	now := t.clock.Now()
	if v, ok := t.store.Get(KeyLastSkipDate); ok {
		last, err := time.Parse(time.RFC3339, v)
		if err == nil && !t.startOfDay(now).After(t.startOfDay(last)) {
			return
		}
	}
	t.store.Set(KeySkipCount, "0")
	t.store.Set(KeyLastSkipDate, now.Format(time.RFC3339))
	if err := t.store.Save(); err != nil {
		log.Printf("Warning: could not persist skip reset: %v", err)
	}
}

func (t *Tracker) used() int {
	v, ok := t.store.Get(KeySkipCount)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (t *Tracker) startOfDay(ts time.Time) time.Time {
	y, m, d := ts.In(t.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.loc)
}
