// Package gateway defines the boundary between the task queue and whatever
// backend holds the user's projects and tasks.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrisonrobin/focus/pkg/model"
)

var (
	// ErrAuth means there is no authenticated user for the call.
	ErrAuth = errors.New("user not authenticated")
	// ErrNotFound means the remote record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrRemote covers transport and server failures.
	ErrRemote = errors.New("remote request failed")
	// ErrValidation means the caller supplied malformed input.
	ErrValidation = errors.New("invalid input")
)

// Gateway is implemented by each task backend.
type Gateway interface {
	// FetchProjects returns the non-archived projects owned by userID.
	FetchProjects(ctx context.Context, userID string) ([]model.Project, error)
	// FetchTasks returns incomplete tasks belonging to projectIDs.
	FetchTasks(ctx context.Context, userID string, projectIDs []string) ([]model.Task, error)
	// MarkTaskComplete marks a single task done.
	MarkTaskComplete(ctx context.Context, taskID string) error
}

// User is the signed-in account.
type User struct {
	ID    string
	Email string
}

// Session pairs a gateway with the user it acts for.
type Session struct {
	gw   Gateway
	user *User
}

// NewSession returns a session for user. A nil user yields a signed-out
// session whose fetches fail with ErrAuth.
func NewSession(gw Gateway, user *User) (*Session, error) {
	if gw == nil {
		return nil, fmt.Errorf("%w: nil gateway", ErrValidation)
	}
	if user != nil && user.ID == "" {
		return nil, fmt.Errorf("%w: user id is empty", ErrValidation)
	}
	return &Session{gw: gw, user: user}, nil
}

// User returns the signed-in user, or nil.
func (s *Session) User() *User {
	return s.user
}

// IsAuthenticated reports whether a user is attached.
func (s *Session) IsAuthenticated() bool {
	return s.user != nil
}

// SignOut detaches the user.
func (s *Session) SignOut() {
	s.user = nil
}

// FetchProjects loads the signed-in user's projects.
func (s *Session) FetchProjects(ctx context.Context) ([]model.Project, error) {
	if s.user == nil {
		return nil, ErrAuth
	}
	projects, err := s.gw.FetchProjects(ctx, s.user.ID)
	if err != nil {
		return nil, err
	}
	active := projects[:0:0]
	for _, p := range projects {
		if !p.Archived {
			active = append(active, p)
		}
	}
	return active, nil
}

// FetchTasks loads the incomplete tasks of the signed-in user by resolving
// their projects first. No projects means no task request at all.
func (s *Session) FetchTasks(ctx context.Context) ([]model.Task, error) {
	projects, err := s.FetchProjects(ctx)
	if err != nil {
		return nil, err
	}
	ids := model.ProjectIDs(projects)
	if len(ids) == 0 {
		return nil, nil
	}
	return s.gw.FetchTasks(ctx, s.user.ID, ids)
}

// MarkTaskComplete marks taskID done for the signed-in user.
func (s *Session) MarkTaskComplete(ctx context.Context, taskID string) error {
	if s.user == nil {
		return ErrAuth
	}
	return s.gw.MarkTaskComplete(ctx, taskID)
}
