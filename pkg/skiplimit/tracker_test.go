package skiplimit

import (
	"testing"
	"time"

	"github.com/harrisonrobin/focus/pkg/model"
	"github.com/harrisonrobin/focus/pkg/state"
)

// MockClock for deterministic testing
type MockClock struct {
	currentTime time.Time
}

func (m *MockClock) Now() time.Time {
	return m.currentTime
}

func (m *MockClock) Advance(d time.Duration) {
	m.currentTime = m.currentTime.Add(d)
}

func newTestTracker(t *testing.T, store KV, clk *MockClock) *Tracker {
	t.Helper()
	return New(store, 3, WithClock(clk), WithLocation(time.UTC))
}

func TestTrackerStartsWithFullQuota(t *testing.T) {
	clk := &MockClock{currentTime: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, state.NewMemoryStore(), clk)

	if got := tr.Remaining(); got != 3 {
		t.Fatalf("Expected 3 skips remaining, got %d", got)
	}
	if !tr.CanSkip() {
		t.Fatal("Expected CanSkip to be true on a fresh tracker")
	}
}

func TestTrackerExhaustsQuota(t *testing.T) {
	clk := &MockClock{currentTime: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, state.NewMemoryStore(), clk)

	for i := 0; i < 3; i++ {
		if err := tr.RecordSkip(); err != nil {
			t.Fatalf("RecordSkip %d failed: %v", i, err)
		}
		clk.Advance(time.Minute)
	}

	if got := tr.Remaining(); got != 0 {
		t.Errorf("Expected 0 skips remaining, got %d", got)
	}
	if tr.CanSkip() {
		t.Error("Expected CanSkip to be false after three skips")
	}

	// Misuse past the limit still counts but never goes negative.
	if err := tr.RecordSkip(); err != nil {
		t.Fatalf("RecordSkip failed: %v", err)
	}
	if got := tr.Remaining(); got != 0 {
		t.Errorf("Expected remaining to clamp at 0, got %d", got)
	}
}

func TestTrackerResetsOnNewDay(t *testing.T) {
	store := state.NewMemoryStore()
	clk := &MockClock{currentTime: time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)}
	tr := newTestTracker(t, store, clk)

	for i := 0; i < 3; i++ {
		if err := tr.RecordSkip(); err != nil {
			t.Fatalf("RecordSkip failed: %v", err)
		}
	}
	if tr.CanSkip() {
		t.Fatal("Expected quota to be exhausted")
	}

	clk.Advance(45 * time.Minute)
	if got := tr.Remaining(); got != 3 {
		t.Fatalf("Expected quota to reset after midnight, got %d", got)
	}
	if v, _ := store.Get(KeySkipCount); v != "0" {
		t.Errorf("Expected persisted skipCount 0, got %q", v)
	}
}

func TestTrackerDoesNotResetWithinSameDay(t *testing.T) {
	clk := &MockClock{currentTime: time.Date(2025, 3, 10, 0, 5, 0, 0, time.UTC)}
	tr := newTestTracker(t, state.NewMemoryStore(), clk)

	if err := tr.RecordSkip(); err != nil {
		t.Fatalf("RecordSkip failed: %v", err)
	}
	clk.Advance(23 * time.Hour)
	if got := tr.Remaining(); got != 2 {
		t.Errorf("Expected 2 skips remaining later the same day, got %d", got)
	}
}

func TestTrackerRollsOverPersistedYesterday(t *testing.T) {
	store := state.NewMemoryStore()
	yesterday := time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC)
	store.Set(KeyLastSkipDate, yesterday.Format(time.RFC3339))
	store.Set(KeySkipCount, "3")

	clk := &MockClock{currentTime: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, store, clk)

	if got := tr.Remaining(); got != 3 {
		t.Errorf("Expected remaining 3 after rollover, got %d", got)
	}
}

func TestTrackerUsesConfiguredLocation(t *testing.T) {
	store := state.NewMemoryStore()
	tz := time.FixedZone("UTC+10", 10*60*60)
	// 20:00 UTC on the 9th is already the 10th in UTC+10.
	store.Set(KeyLastSkipDate, time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC).Format(time.RFC3339))
	store.Set(KeySkipCount, "3")

	clk := &MockClock{currentTime: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	tr := New(store, 3, WithClock(clk), WithLocation(tz))

	if got := tr.Remaining(); got != 0 {
		t.Errorf("Expected no reset within the same local day, got %d remaining", got)
	}
}

func TestTrackerSortPreference(t *testing.T) {
	store := state.NewMemoryStore()
	clk := &MockClock{currentTime: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, store, clk)

	if got := tr.SortPreference(); got != model.QuickFirst {
		t.Errorf("Expected default quick-first, got %s", got)
	}
	if err := tr.SetSortPreference(model.HardFirst); err != nil {
		t.Fatalf("SetSortPreference failed: %v", err)
	}
	if got := tr.SortPreference(); got != model.HardFirst {
		t.Errorf("Expected hard-first, got %s", got)
	}

	store.Set(KeySortPreference, "sideways")
	if got := tr.SortPreference(); got != model.QuickFirst {
		t.Errorf("Expected unknown value to fall back to quick-first, got %s", got)
	}
}

func TestTrackerDefaultMax(t *testing.T) {
	tr := New(state.NewMemoryStore(), 0)
	if tr.DailyMax() != DefaultMaxSkipsPerDay {
		t.Errorf("Expected default max %d, got %d", DefaultMaxSkipsPerDay, tr.DailyMax())
	}
}
