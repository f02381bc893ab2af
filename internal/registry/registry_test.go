package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsFileOrder(t *testing.T) {
	data := []byte(`
projects:
  - id: zeta
    name: Zeta
    path: /tmp/zeta
  - id: alpha
    name: Alpha
    path: /tmp/alpha
`)

	r, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	all := r.All()
	assert.Equal(t, "zeta", all[0].ID)
	assert.Equal(t, "alpha", all[1].ID)

	p, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "/tmp/alpha", p.Path)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	r, err := New(Project{ID: "a", Name: "A", Path: "/a"})
	require.NoError(t, err)

	all := r.All()
	all[0].Name = "changed"

	p, _ := r.Get("a")
	assert.Equal(t, "A", p.Name)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name     string
		projects []Project
		wantErr  string
	}{
		{
			name:     "missing id",
			projects: []Project{{Name: "x", Path: "/x"}},
			wantErr:  "id is required",
		},
		{
			name:     "missing path",
			projects: []Project{{ID: "x", Name: "x"}},
			wantErr:  "path is required",
		},
		{
			name: "duplicate id",
			projects: []Project{
				{ID: "x", Name: "x", Path: "/x"},
				{ID: "x", Name: "y", Path: "/y"},
			},
			wantErr: "duplicate id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.projects...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNameDefaultsToID(t *testing.T) {
	r, err := New(Project{ID: "skills", Path: "/skills"})
	require.NoError(t, err)

	p, _ := r.Get("skills")
	assert.Equal(t, "skills", p.Name)
}

func TestHomeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	r, err := New(Project{ID: "p", Name: "P", Path: "~/work/p"})
	require.NoError(t, err)

	p, _ := r.Get("p")
	assert.Equal(t, filepath.Join(home, "work/p"), p.Path)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projects:\n  - id: a\n    name: A\n    path: /a\n"), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("projects: [oops"))
	require.Error(t, err)
}
