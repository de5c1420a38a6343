// Package queue holds the working set of pending tasks and decides which one
// is presented next.
//
// The queue moves between four states. A refresh always passes through
// Loading and ends in HasCurrent, AllDone or Error. Completing the last task
// ends in AllDone. Skips rotate the head to the tail and never leave
// HasCurrent. AllDone and Error only change on the next refresh.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/harrisonrobin/focus/pkg/model"
)

// ErrRefreshInProgress is returned when a refresh is requested while another
// one has not finished.
var ErrRefreshInProgress = errors.New("refresh already in progress")

const unknownProjectName = "Unknown Project"

// Source supplies tasks and accepts completions. *gateway.Session
// implements it.
type Source interface {
	FetchProjects(ctx context.Context) ([]model.Project, error)
	FetchTasks(ctx context.Context) ([]model.Task, error)
	MarkTaskComplete(ctx context.Context, taskID string) error
}

// Limiter gates skips and provides the sort order. *skiplimit.Tracker
// implements it.
type Limiter interface {
	CanSkip() bool
	RecordSkip() error
	SortPreference() model.SortPreference
}

type State int

const (
	StateLoading State = iota
	StateHasCurrent
	StateAllDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateHasCurrent:
		return "has-task"
	case StateAllDone:
		return "all-done"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Status is a snapshot of the queue for presentation.
type Status struct {
	State   State
	Current *model.Task
	Pending int
	Message string
}

// Queue is safe for use from multiple goroutines, though callers are
// expected to drive it from one place.
type Queue struct {
	src     Source
	limiter Limiter

	mu         sync.Mutex
	tasks      []model.Task
	projects   map[string]model.Project
	state      State
	message    string
	refreshing bool

	subs    map[int]func(Status)
	nextSub int
}

// New returns an empty queue in the Loading state.
func New(src Source, limiter Limiter) *Queue {
	return &Queue{
		src:      src,
		limiter:  limiter,
		projects: make(map[string]model.Project),
		state:    StateLoading,
		subs:     make(map[int]func(Status)),
	}
}

// Subscribe registers fn to be called after every state change. The
// returned func removes the subscription.
func (q *Queue) Subscribe(fn func(Status)) func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.subs, id)
	}
}

// Status returns the current snapshot.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.statusLocked()
}

// Current returns the task at the head of the working set, if any.
func (q *Queue) Current() *model.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentLocked()
}

// Tasks returns a copy of the working set in presentation order.
func (q *Queue) Tasks() []model.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]model.Task(nil), q.tasks...)
}

// ProjectName resolves a project id from the last successful load.
func (q *Queue) ProjectName(projectID string) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if p, ok := q.projects[projectID]; ok {
		return p.Name
	}
	return unknownProjectName
}

// Load replaces the working set. Completed tasks and tasks of archived
// projects are dropped, the rest are sorted by the limiter's preference.
func (q *Queue) Load(tasks []model.Task, projects []model.Project) {
	q.mu.Lock()
	q.loadLocked(tasks, projects)
	st := q.statusLocked()
	subs := q.subscribersLocked()
	q.mu.Unlock()
	notify(subs, st)
}

// Refresh fetches projects and tasks concurrently and loads the result. On
// failure the previous working set is kept and the queue enters Error.
func (q *Queue) Refresh(ctx context.Context) error {
	q.mu.Lock()
	if q.refreshing {
		q.mu.Unlock()
		return ErrRefreshInProgress
	}
	q.refreshing = true
	q.state = StateLoading
	q.message = ""
	st := q.statusLocked()
	subs := q.subscribersLocked()
	q.mu.Unlock()
	notify(subs, st)

	var (
		projects []model.Project
		tasks    []model.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = q.src.FetchProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = q.src.FetchTasks(gctx)
		return err
	})
	err := g.Wait()

	q.mu.Lock()
	q.refreshing = false
	if err != nil {
		q.state = StateError
		q.message = err.Error()
	} else {
		q.loadLocked(tasks, projects)
	}
	st = q.statusLocked()
	subs = q.subscribersLocked()
	q.mu.Unlock()
	notify(subs, st)

	if err != nil {
		log.Printf("Error refreshing tasks: %v", err)
		return fmt.Errorf("refresh tasks: %w", err)
	}
	return nil
}

// CompleteCurrent marks the head task complete remotely and removes it on
// success. Without a current task it does nothing. On failure the working
// set is untouched and the error is both returned and kept as the status
// message.
func (q *Queue) CompleteCurrent(ctx context.Context) error {
	q.mu.Lock()
	if q.state != StateHasCurrent || len(q.tasks) == 0 {
		q.mu.Unlock()
		return nil
	}
	task := q.tasks[0]
	q.mu.Unlock()

	err := q.src.MarkTaskComplete(ctx, task.ID)

	q.mu.Lock()
	if err != nil {
		q.message = err.Error()
	} else {
		q.removeLocked(task.ID)
		q.message = ""
		if len(q.tasks) == 0 {
			q.state = StateAllDone
		}
	}
	st := q.statusLocked()
	subs := q.subscribersLocked()
	q.mu.Unlock()
	notify(subs, st)

	if err != nil {
		log.Printf("Error completing task %s: %v", task.ID, err)
		return fmt.Errorf("complete task %s: %w", task.ID, err)
	}
	return nil
}

// SkipCurrent moves the head task to the tail if the daily quota allows it.
// It reports whether a skip happened. Skips never touch the backend.
func (q *Queue) SkipCurrent() bool {
	q.mu.Lock()
	if q.state != StateHasCurrent || len(q.tasks) == 0 || !q.limiter.CanSkip() {
		q.mu.Unlock()
		return false
	}
	if err := q.limiter.RecordSkip(); err != nil {
		log.Printf("Warning: could not persist skip: %v", err)
	}
	head := q.tasks[0]
	q.tasks = append(q.tasks[1:], head)
	st := q.statusLocked()
	subs := q.subscribersLocked()
	q.mu.Unlock()
	notify(subs, st)
	return true
}

// SortTasks returns tasks ordered by estimated duration for pref. Tasks
// without an estimate compare as the longest in either order; ties keep
// their incoming order.
func SortTasks(tasks []model.Task, pref model.SortPreference) []model.Task {
	type keyed struct {
		task     model.Task
		duration int
	}
	items := make([]keyed, len(tasks))
	for i, t := range tasks {
		d, ok := t.EstimatedDuration()
		if !ok {
			d = math.MaxInt
		}
		items[i] = keyed{task: t, duration: d}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if pref == model.HardFirst {
			return items[i].duration > items[j].duration
		}
		return items[i].duration < items[j].duration
	})

	sorted := make([]model.Task, len(items))
	for i, it := range items {
		sorted[i] = it.task
	}
	return sorted
}

func (q *Queue) loadLocked(tasks []model.Task, projects []model.Project) {
	q.projects = make(map[string]model.Project, len(projects))
	for _, p := range projects {
		q.projects[p.ID] = p
	}

	pending := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsCompleted {
			continue
		}
		if p, ok := q.projects[t.ProjectID]; ok && p.Archived {
			continue
		}
		pending = append(pending, t)
	}

	pref := model.DefaultSortPreference
	if q.limiter != nil {
		pref = q.limiter.SortPreference()
	}
	q.tasks = SortTasks(pending, pref)
	q.message = ""
	if len(q.tasks) == 0 {
		q.state = StateAllDone
	} else {
		q.state = StateHasCurrent
	}
}

func (q *Queue) removeLocked(taskID string) {
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.ID != taskID {
			kept = append(kept, t)
		}
	}
	q.tasks = kept
}

func (q *Queue) currentLocked() *model.Task {
	if len(q.tasks) == 0 {
		return nil
	}
	t := q.tasks[0]
	return &t
}

func (q *Queue) statusLocked() Status {
	return Status{
		State:   q.state,
		Current: q.currentLocked(),
		Pending: len(q.tasks),
		Message: q.message,
	}
}

func (q *Queue) subscribersLocked() []func(Status) {
	subs := make([]func(Status), 0, len(q.subs))
	for _, fn := range q.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Status), st Status) {
	for _, fn := range subs {
		fn(st)
	}
}
