// Package registry holds the static list of projects the scanner operates over.
// A Registry is built once at startup and never mutated afterwards.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project is a registered (identifier, display name, filesystem path) triple.
type Project struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// Registry is an ordered, read-only set of projects.
type Registry struct {
	projects []Project
	byID     map[string]int
}

type file struct {
	Projects []Project `yaml:"projects"`
}

// New validates the projects and builds a registry preserving their order.
func New(projects ...Project) (*Registry, error) {
	r := &Registry{
		projects: make([]Project, 0, len(projects)),
		byID:     make(map[string]int, len(projects)),
	}

	for i, p := range projects {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		p.Path = strings.TrimSpace(p.Path)

		if p.ID == "" {
			return nil, fmt.Errorf("project #%d: id is required", i+1)
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		if p.Path == "" {
			return nil, fmt.Errorf("project %q: path is required", p.ID)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("project %q: duplicate id", p.ID)
		}

		expanded, err := expandHome(p.Path)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", p.ID, err)
		}
		p.Path = expanded

		r.byID[p.ID] = len(r.projects)
		r.projects = append(r.projects, p)
	}

	return r, nil
}

// Load reads a YAML projects file of the form
//
//	projects:
//	  - id: english-learning-tts
//	    name: English Learning TTS
//	    path: ~/Documents/my_project/english-learning
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects file %q: %w", path, err)
	}

	return Parse(data)
}

// Parse builds a registry from YAML bytes.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse projects file: %w", err)
	}

	return New(f.Projects...)
}

// All returns a copy of the registered projects in registration order.
func (r *Registry) All() []Project {
	out := make([]Project, len(r.projects))
	copy(out, r.projects)
	return out
}

// Get looks up a project by id.
func (r *Registry) Get(id string) (Project, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Project{}, false
	}
	return r.projects[i], true
}

// Len returns the number of registered projects.
func (r *Registry) Len() int {
	return len(r.projects)
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", p, err)
	}

	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
