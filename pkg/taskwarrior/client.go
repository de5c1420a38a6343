package taskwarrior

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"sort"
	"strings"

	"github.com/harrisonrobin/focus/pkg/gateway"
	"github.com/harrisonrobin/focus/pkg/model"
	"github.com/harrisonrobin/focus/pkg/util"
)

// NoProjectName labels tasks that have no project set.
const NoProjectName = "No Project"

type runFunc func(ctx context.Context, args ...string) ([]byte, error)

// Client talks to the local `task` binary. Taskwarrior projects become
// projects keyed by name, and pending tasks become tasks.
type Client struct {
	filter []string
	run    runFunc
}

func NewClient(filter ...string) *Client {
	return &Client{filter: filter, run: runTask}
}

func runTask(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "task", args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: taskwarrior command failed: exit code %d, stderr: %s",
				gateway.ErrRemote, exitErr.ExitCode(), exitErr.Stderr)
		}
		return nil, fmt.Errorf("%w: taskwarrior command failed: %v", gateway.ErrRemote, err)
	}
	return output, nil
}

// GetTasks exports the tasks matching filter.
func (c *Client) GetTasks(ctx context.Context, filter []string) ([]Task, error) {
	args := append(append([]string{}, filter...), "export", "rc.hooks=0")
	output, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	if err := json.Unmarshal(output, &tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal taskwarrior output: %w", err)
	}
	return tasks, nil
}

func (c *Client) pending(ctx context.Context) ([]Task, error) {
	filter := append([]string{"status:" + PENDING}, c.filter...)
	return c.GetTasks(ctx, filter)
}

// FetchProjects returns one project per distinct Taskwarrior project among
// pending tasks. Taskwarrior has no archived projects.
func (c *Client) FetchProjects(ctx context.Context, userID string) ([]model.Project, error) {
	tasks, err := c.pending(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for _, t := range tasks {
		if !seen[t.Project] {
			seen[t.Project] = true
			names = append(names, t.Project)
		}
	}
	sort.Strings(names)

	projects := make([]model.Project, 0, len(names))
	for i, name := range names {
		display := name
		if display == "" {
			display = NoProjectName
		}
		projects = append(projects, model.Project{ID: name, UserID: userID, Name: display, Position: i})
	}
	log.Printf("Fetched %d taskwarrior projects", len(projects))
	return projects, nil
}

// FetchTasks returns pending tasks whose project is in projectIDs.
func (c *Client) FetchTasks(ctx context.Context, userID string, projectIDs []string) ([]model.Task, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	tasks, err := c.pending(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = true
	}

	var out []model.Task
	for i, t := range tasks {
		if wanted[t.Project] {
			out = append(out, ToModel(t, i))
		}
	}
	log.Printf("Fetched %d taskwarrior tasks", len(out))
	return out, nil
}

// MarkTaskComplete runs `task <uuid> done`.
func (c *Client) MarkTaskComplete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("%w: empty task id", gateway.ErrValidation)
	}
	matches, err := c.GetTasks(ctx, []string{"uuid:" + taskID})
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("%w: task %s", gateway.ErrNotFound, taskID)
	}
	if matches[0].Status == COMPLETED {
		return nil
	}
	_, err = c.run(ctx, "rc.confirmation=off", "rc.hooks=0", taskID, "done")
	return err
}

// ToModel converts a Taskwarrior task. The explanation is the estimate UDA
// in minutes, if set, followed by the annotations.
func ToModel(t Task, position int) model.Task {
	var lines []string
	if est, err := util.ParseDuration(t.Est); err == nil && est > 0 {
		lines = append(lines, fmt.Sprintf("%d minutes", int(est.Minutes())))
	}
	for _, ann := range t.Annotations {
		lines = append(lines, ann.Description)
	}

	mt := model.Task{
		ID:          t.UUID,
		ProjectID:   t.Project,
		Content:     t.Description,
		IsCompleted: t.Status == COMPLETED,
		Position:    position,
		CreatedAt:   t.Entry.value(),
		UpdatedAt:   t.Modified.value(),
	}
	if len(lines) > 0 {
		how := strings.Join(lines, "\n")
		mt.HowExplanation = &how
	}
	return mt
}
