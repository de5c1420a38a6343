package taskwarrior

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/focus/pkg/gateway"
)

const exportJSON = `[
	{
		"uuid": "f45a05b3-c12e-42e5-9c9c-333333333333",
		"description": "Buy milk",
		"status": "pending",
		"entry": "20230101T120000Z",
		"project": "Groceries",
		"tags": ["buy", "food"],
		"est": "PT15M",
		"annotations": [
			{"entry": "20230101T120500Z", "description": "Don't forget almond milk"}
		]
	},
	{
		"uuid": "a1b2c3d4-0000-0000-0000-000000000001",
		"description": "File taxes",
		"status": "pending",
		"project": "Admin"
	},
	{
		"uuid": "a1b2c3d4-0000-0000-0000-000000000002",
		"description": "Call mum",
		"status": "pending"
	}
]`

type fakeRunner struct {
	calls  [][]string
	output map[string]string
	err    error
}

func (f *fakeRunner) run(ctx context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	if f.err != nil {
		return nil, f.err
	}
	for key, out := range f.output {
		if strings.Contains(strings.Join(args, " "), key) {
			return []byte(out), nil
		}
	}
	return []byte("[]"), nil
}

func newTestClient(r *fakeRunner) *Client {
	c := NewClient()
	c.run = r.run
	return c
}

func TestFetchProjects(t *testing.T) {
	r := &fakeRunner{output: map[string]string{"status:pending": exportJSON}}
	c := newTestClient(r)

	projects, err := c.FetchProjects(context.Background(), "me")
	if err != nil {
		t.Fatalf("FetchProjects failed: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("Expected 3 projects, got %d", len(projects))
	}
	if projects[0].ID != "" || projects[0].Name != NoProjectName {
		t.Errorf("Expected first project to be the empty project, got %+v", projects[0])
	}
	if projects[1].Name != "Admin" || projects[2].Name != "Groceries" {
		t.Errorf("Expected Admin then Groceries, got %s, %s", projects[1].Name, projects[2].Name)
	}
	if projects[2].UserID != "me" {
		t.Errorf("Expected user id me, got %s", projects[2].UserID)
	}
}

func TestFetchTasksFiltersByProject(t *testing.T) {
	r := &fakeRunner{output: map[string]string{"status:pending": exportJSON}}
	c := newTestClient(r)

	tasks, err := c.FetchTasks(context.Background(), "me", []string{"Groceries"})
	if err != nil {
		t.Fatalf("FetchTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.ID != "f45a05b3-c12e-42e5-9c9c-333333333333" || task.Content != "Buy milk" {
		t.Errorf("Unexpected task %+v", task)
	}
	if d, ok := task.EstimatedDuration(); !ok || d != 15 {
		t.Errorf("Expected estimate 15, got %d (%v)", d, ok)
	}
	if !strings.Contains(task.Explanation(), "almond milk") {
		t.Errorf("Expected annotation in explanation, got %q", task.Explanation())
	}
	expected, _ := time.Parse(time.RFC3339, "2023-01-01T12:00:00Z")
	if !task.CreatedAt.Equal(expected) {
		t.Errorf("Expected CreatedAt %v, got %v", expected, task.CreatedAt)
	}
}

func TestFetchTasksWithoutProjectsSkipsExport(t *testing.T) {
	r := &fakeRunner{}
	c := newTestClient(r)

	tasks, err := c.FetchTasks(context.Background(), "me", nil)
	if err != nil {
		t.Fatalf("FetchTasks failed: %v", err)
	}
	if len(tasks) != 0 || len(r.calls) != 0 {
		t.Errorf("Expected no tasks and no command, got %d tasks, %d calls", len(tasks), len(r.calls))
	}
}

func TestMarkTaskComplete(t *testing.T) {
	r := &fakeRunner{output: map[string]string{
		"uuid:a1b2c3d4-0000-0000-0000-000000000001": `[{"uuid":"a1b2c3d4-0000-0000-0000-000000000001","status":"pending"}]`,
	}}
	c := newTestClient(r)

	if err := c.MarkTaskComplete(context.Background(), "a1b2c3d4-0000-0000-0000-000000000001"); err != nil {
		t.Fatalf("MarkTaskComplete failed: %v", err)
	}
	last := strings.Join(r.calls[len(r.calls)-1], " ")
	if last != "rc.confirmation=off rc.hooks=0 a1b2c3d4-0000-0000-0000-000000000001 done" {
		t.Errorf("Unexpected done command: %s", last)
	}
}

func TestMarkTaskCompleteNotFound(t *testing.T) {
	c := newTestClient(&fakeRunner{})
	err := c.MarkTaskComplete(context.Background(), "missing")
	if !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRunnerErrorPropagates(t *testing.T) {
	c := newTestClient(&fakeRunner{err: gateway.ErrRemote})
	if _, err := c.FetchProjects(context.Background(), "me"); !errors.Is(err, gateway.ErrRemote) {
		t.Errorf("Expected ErrRemote, got %v", err)
	}
}

func TestToModelWithoutExplanation(t *testing.T) {
	task := ToModel(Task{UUID: "u1", Description: "Plain", Status: PENDING}, 4)
	if task.HowExplanation != nil {
		t.Errorf("Expected no explanation, got %q", *task.HowExplanation)
	}
	if task.Position != 4 {
		t.Errorf("Expected position 4, got %d", task.Position)
	}
	if _, ok := task.EstimatedDuration(); ok {
		t.Error("Expected no estimate")
	}
}
