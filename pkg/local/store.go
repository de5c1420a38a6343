// Package local is an offline task backend kept in a single YAML file.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/focus/pkg/gateway"
	"github.com/harrisonrobin/focus/pkg/model"
)

// UserID owns everything in a local store.
const UserID = "local"

type document struct {
	Projects []model.Project `yaml:"projects"`
	Tasks    []model.Task    `yaml:"tasks"`
}

// Store reads and writes the YAML file on every call, so edits made by hand
// between refreshes are picked up.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty store path", gateway.ErrValidation)
	}
	return &Store{path: path, now: time.Now}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() (*document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", gateway.ErrRemote, s.path, err)
	}
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", gateway.ErrRemote, s.path, err)
	}
	return &doc, nil
}

func (s *Store) save(doc *document) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) FetchProjects(ctx context.Context, userID string) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []model.Project
	for _, p := range doc.Projects {
		if p.UserID == userID && !p.Archived {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) FetchTasks(ctx context.Context, userID string, projectIDs []string) ([]model.Task, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = true
	}
	var out []model.Task
	for _, t := range doc.Tasks {
		if !t.IsCompleted && wanted[t.ProjectID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) MarkTaskComplete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == taskID {
			doc.Tasks[i].IsCompleted = true
			doc.Tasks[i].UpdatedAt = s.now().UTC()
			return s.save(doc)
		}
	}
	return fmt.Errorf("%w: task %s", gateway.ErrNotFound, taskID)
}

// AddTask appends a task to the named project, creating the project if it
// does not exist yet.
func (s *Store) AddTask(userID, projectName, content, how string) (model.Task, error) {
	content = strings.TrimSpace(content)
	projectName = strings.TrimSpace(projectName)
	if content == "" {
		return model.Task{}, fmt.Errorf("%w: task content is empty", gateway.ErrValidation)
	}
	if projectName == "" {
		return model.Task{}, fmt.Errorf("%w: project name is empty", gateway.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return model.Task{}, err
	}

	now := s.now().UTC()
	project := findProject(doc, userID, projectName)
	if project == nil {
		doc.Projects = append(doc.Projects, model.Project{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      projectName,
			Position:  len(doc.Projects),
			CreatedAt: now,
			UpdatedAt: now,
		})
		project = &doc.Projects[len(doc.Projects)-1]
	}

	task := model.Task{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		Content:   content,
		Position:  countTasks(doc, project.ID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if how = strings.TrimSpace(how); how != "" {
		task.HowExplanation = &how
	}
	doc.Tasks = append(doc.Tasks, task)

	if err := s.save(doc); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func findProject(doc *document, userID, name string) *model.Project {
	for i := range doc.Projects {
		p := &doc.Projects[i]
		if p.UserID == userID && !p.Archived && strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func countTasks(doc *document, projectID string) int {
	n := 0
	for _, t := range doc.Tasks {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n
}
