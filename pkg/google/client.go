// Package google implements the task gateway on top of the Google Tasks API.
// Task lists are projects and their tasks are tasks; a task's notes are its
// how-explanation.
package google

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"

	"github.com/harrisonrobin/focus/pkg/gateway"
	"github.com/harrisonrobin/focus/pkg/model"
)

const (
	statusCompleted = "completed"
	pageSize        = 100
	maxParallelList = 4
)

// TasksClient is a Google Tasks API client.
type TasksClient struct {
	srv *tasks.Service

	mu    sync.Mutex
	lists map[string]string // task id -> task list id
}

// NewTasksClient wraps an existing service.
func NewTasksClient(srv *tasks.Service) *TasksClient {
	return &TasksClient{srv: srv, lists: make(map[string]string)}
}

// NewClient creates a Tasks client using an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*TasksClient, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Tasks client: %w", err)
	}
	return NewTasksClient(srv), nil
}

// FetchProjects lists the user's task lists. Google Tasks has no archived
// lists, so every list is returned.
func (c *TasksClient) FetchProjects(ctx context.Context, userID string) ([]model.Project, error) {
	var projects []model.Project
	err := c.srv.Tasklists.List().MaxResults(pageSize).Pages(ctx, func(page *tasks.TaskLists) error {
		for _, l := range page.Items {
			projects = append(projects, model.Project{
				ID:        l.Id,
				UserID:    userID,
				Name:      l.Title,
				Position:  len(projects),
				UpdatedAt: parseTime(l.Updated),
			})
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	log.Printf("Fetched %d task lists", len(projects))
	return projects, nil
}

// FetchTasks lists incomplete tasks of each list, a few lists at a time.
func (c *TasksClient) FetchTasks(ctx context.Context, userID string, projectIDs []string) ([]model.Task, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	perList := make([][]model.Task, len(projectIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelList)
	for i, listID := range projectIDs {
		g.Go(func() error {
			found, err := c.listTasks(gctx, listID)
			if err != nil {
				return err
			}
			perList[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.Task
	for _, found := range perList {
		out = append(out, found...)
	}
	log.Printf("Fetched %d tasks", len(out))
	return out, nil
}

func (c *TasksClient) listTasks(ctx context.Context, listID string) ([]model.Task, error) {
	var out []model.Task
	err := c.srv.Tasks.List(listID).
		ShowCompleted(false).
		ShowHidden(false).
		MaxResults(pageSize).
		Pages(ctx, func(page *tasks.Tasks) error {
			for _, t := range page.Items {
				if t.Status == statusCompleted || t.Deleted {
					continue
				}
				out = append(out, ToModelTask(t, listID))
			}
			return nil
		})
	if err != nil {
		return nil, classify(err)
	}

	c.mu.Lock()
	for _, t := range out {
		c.lists[t.ID] = listID
	}
	c.mu.Unlock()
	return out, nil
}

// MarkTaskComplete patches the task's status. The task must have been seen
// by FetchTasks so its list is known.
func (c *TasksClient) MarkTaskComplete(ctx context.Context, taskID string) error {
	c.mu.Lock()
	listID, ok := c.lists[taskID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: task %s is not in any fetched list", gateway.ErrNotFound, taskID)
	}

	patch := &tasks.Task{Status: statusCompleted}
	if _, err := c.srv.Tasks.Patch(listID, taskID, patch).Context(ctx).Do(); err != nil {
		return classify(err)
	}

	c.mu.Lock()
	delete(c.lists, taskID)
	c.mu.Unlock()
	return nil
}

// ToModelTask converts an API task that belongs to listID.
func ToModelTask(t *tasks.Task, listID string) model.Task {
	mt := model.Task{
		ID:          t.Id,
		ProjectID:   listID,
		Content:     t.Title,
		IsCompleted: t.Status == statusCompleted,
		UpdatedAt:   parseTime(t.Updated),
	}
	if pos, err := strconv.Atoi(t.Position); err == nil {
		mt.Position = pos
	}
	if t.Notes != "" {
		notes := t.Notes
		mt.HowExplanation = &notes
	}
	return mt
}

func parseTime(s string) time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// classify maps API errors onto the gateway error kinds.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", gateway.ErrAuth, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", gateway.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%w: %v", gateway.ErrRemote, err)
}
