package model

import "time"

// Project groups tasks and is owned by a single user.
type Project struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Name      string    `json:"name" yaml:"name"`
	Position  int       `json:"position" yaml:"position"`
	Archived  bool      `json:"archived" yaml:"archived"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ProjectIDs returns the ids of the given projects in order.
func ProjectIDs(projects []Project) []string {
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}
