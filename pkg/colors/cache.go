package colors

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Palette holds the ANSI 256 colours handed out to projects, in order.
var Palette = []string{"39", "170", "214", "42", "204", "141", "45", "221", "111", "203", "78"}

// NoProjectColor is used for tasks without a project.
const NoProjectColor = "245"

type ProjectState struct {
	Color        string    `json:"color"`
	LastModified time.Time `json:"last_modified"`
}

// ColorCache gives each project a stable accent colour. When every colour is
// taken the least recently seen project gives up its colour.
type ColorCache struct {
	Path     string
	Projects map[string]*ProjectState `json:"projects"`
	dirty    bool
	now      func() time.Time
}

const cacheFile = "project_colors.json"

func NewColorCache(dir string) (*ColorCache, error) {
	cache := &ColorCache{
		Path:     filepath.Join(dir, cacheFile),
		Projects: make(map[string]*ProjectState),
		now:      time.Now,
	}

	if _, err := os.Stat(cache.Path); err == nil {
		if err := cache.Load(); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&c.Projects)
}

func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Printf("Error creating color cache directory: %v", err)
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		log.Printf("Error creating color cache file: %v", err)
		return err
	}
	defer f.Close()
	err = json.NewEncoder(f).Encode(c.Projects)
	if err == nil {
		c.dirty = false
	}
	return err
}

// Color returns the accent colour for a project, assigning one if needed.
func (c *ColorCache) Color(projectID string) string {
	if projectID == "" {
		return NoProjectColor
	}

	state, exists := c.Projects[projectID]
	if exists {
		// Marked dirty without saving; the caller saves once per session.
		state.LastModified = c.now()
		c.dirty = true
		return state.Color
	}

	return c.assignColor(projectID)
}

func (c *ColorCache) assignColor(projectID string) string {
	used := make(map[string]bool)
	for _, s := range c.Projects {
		used[s.Color] = true
	}

	for _, color := range Palette {
		if !used[color] {
			c.Projects[projectID] = &ProjectState{Color: color, LastModified: c.now()}
			c.dirty = true
			return color
		}
	}

	// Palette is full -> evict LRU
	var oldestProject string
	var oldestTime time.Time
	first := true

	for p, s := range c.Projects {
		if first || s.LastModified.Before(oldestTime) {
			oldestTime = s.LastModified
			oldestProject = p
			first = false
		}
	}

	recycled := c.Projects[oldestProject].Color
	delete(c.Projects, oldestProject)
	c.Projects[projectID] = &ProjectState{Color: recycled, LastModified: c.now()}
	c.dirty = true
	return recycled
}
