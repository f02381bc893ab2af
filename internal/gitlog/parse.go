package gitlog

import (
	"sort"
	"strconv"
	"strings"
)

// CommitFormat is the --pretty format ParseCommits expects.
const CommitFormat = "%h|%s|%ai"

// Commit is a single commit line from the windowed log.
type Commit struct {
	Hash    string `json:"hash"`
	Message string `json:"msg"`
	Time    string `json:"time"`
}

// FileChange aggregates numstat lines for one path across the window.
type FileChange struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	IsBinary  bool   `json:"isBinary,omitempty"`
}

// ParseCommits parses "hash|subject|time" lines. The hash ends at the first
// separator and the timestamp starts after the last one, so subjects may
// themselves contain "|". Blank lines are skipped.
func ParseCommits(output string) []Commit {
	var commits []Commit

	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		first := strings.Index(line, "|")
		last := strings.LastIndex(line, "|")

		var c Commit
		switch {
		case first == -1:
			c.Hash = line
		case first == last:
			c.Hash = line[:first]
			c.Message = line[first+1:]
		default:
			c.Hash = line[:first]
			c.Message = line[first+1 : last]
			c.Time = line[last+1:]
		}

		commits = append(commits, c)
	}

	return commits
}

// ParseNumstat parses the output of `git log --numstat --pretty=format:`.
// Each non-blank line is "added<TAB>deleted<TAB>path"; binary files report
// "-" for both counts. Paths touched by several commits are merged, and the
// result is sorted by path.
func ParseNumstat(output string) []FileChange {
	byPath := make(map[string]*FileChange)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		path := renamedPath(parts[2])
		fc, ok := byPath[path]
		if !ok {
			fc = &FileChange{Path: path}
			byPath[path] = fc
		}

		if parts[0] == "-" && parts[1] == "-" {
			fc.IsBinary = true
			continue
		}

		added, errA := strconv.Atoi(parts[0])
		deleted, errD := strconv.Atoi(parts[1])
		if errA != nil || errD != nil {
			continue
		}
		fc.Additions += added
		fc.Deletions += deleted
	}

	files := make([]FileChange, 0, len(byPath))
	for _, fc := range byPath {
		files = append(files, *fc)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return files
}

// renamedPath resolves numstat rename notation to the destination path:
// "old => new" and "dir/{old => new}/file".
func renamedPath(p string) string {
	if !strings.Contains(p, " => ") {
		return p
	}

	open := strings.Index(p, "{")
	closing := strings.Index(p, "}")
	if open != -1 && closing > open {
		inner := p[open+1 : closing]
		_, to, _ := strings.Cut(inner, " => ")
		joined := p[:open] + to + p[closing+1:]
		return strings.ReplaceAll(joined, "//", "/")
	}

	_, to, _ := strings.Cut(p, " => ")
	return to
}
