package model

import (
	"time"

	"github.com/harrisonrobin/focus/pkg/util"
)

// Task is a single incomplete item fetched from a backend.
type Task struct {
	ID             string    `json:"id" yaml:"id"`
	ProjectID      string    `json:"project_id" yaml:"project_id"`
	Content        string    `json:"content" yaml:"content"`
	IsCompleted    bool      `json:"is_completed" yaml:"is_completed"`
	Position       int       `json:"position" yaml:"position"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at"`
	HowExplanation *string   `json:"how_explanation,omitempty" yaml:"how_explanation,omitempty"`
}

// EstimatedDuration returns the estimate in minutes taken from the
// explanation text, if there is one.
func (t Task) EstimatedDuration() (int, bool) {
	return util.EstimateMinutes(t.HowExplanation)
}

// Explanation returns the how-explanation or "" when absent.
func (t Task) Explanation() string {
	if t.HowExplanation == nil {
		return ""
	}
	return *t.HowExplanation
}
