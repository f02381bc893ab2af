package gitlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommits(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []Commit
	}{
		{
			name:     "empty output",
			output:   "\n",
			expected: nil,
		},
		{
			name:   "two lines",
			output: "a1b2c3d|feat: add tts voices|2026-10-15 09:12:44 +0800\ne4f5a6b|fix: crash on empty text|2026-10-16 18:01:02 +0800\n",
			expected: []Commit{
				{Hash: "a1b2c3d", Message: "feat: add tts voices", Time: "2026-10-15 09:12:44 +0800"},
				{Hash: "e4f5a6b", Message: "fix: crash on empty text", Time: "2026-10-16 18:01:02 +0800"},
			},
		},
		{
			name:   "pipe in subject",
			output: "abc1234|docs: a | b table|2026-10-16 10:00:00 +0000",
			expected: []Commit{
				{Hash: "abc1234", Message: "docs: a | b table", Time: "2026-10-16 10:00:00 +0000"},
			},
		},
		{
			name:   "crlf and blank lines",
			output: "abc1234|msg|2026-10-16 10:00:00 +0000\r\n\r\ndef5678|other|2026-10-16 11:00:00 +0000",
			expected: []Commit{
				{Hash: "abc1234", Message: "msg", Time: "2026-10-16 10:00:00 +0000"},
				{Hash: "def5678", Message: "other", Time: "2026-10-16 11:00:00 +0000"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCommits(tt.output))
		})
	}
}

func TestParseNumstat(t *testing.T) {
	output := "3\t1\tREADME.md\n\n10\t0\tsrc/main.go\n-\t-\tassets/logo.png\n2\t2\tsrc/main.go\n1\t0\tsrc/{old => new}/util.go\n0\t0\told.txt => new.txt\ngarbage line\n"

	files := ParseNumstat(output)

	assert.Equal(t, []FileChange{
		{Path: "README.md", Additions: 3, Deletions: 1},
		{Path: "assets/logo.png", IsBinary: true},
		{Path: "new.txt"},
		{Path: "src/main.go", Additions: 12, Deletions: 2},
		{Path: "src/new/util.go", Additions: 1},
	}, files)
}

func TestParseNumstatEmpty(t *testing.T) {
	files := ParseNumstat("")
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestRenamedPathEmptyBrace(t *testing.T) {
	assert.Equal(t, "src/util.go", renamedPath("src/{old => }/util.go"))
}
