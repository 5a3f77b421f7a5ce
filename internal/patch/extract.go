// Package patch extracts the touched-file list from unified diff text.
package patch

import (
	"fmt"
	"strconv"
	"strings"
)

type ChangeKind string

const (
	Edited  ChangeKind = "edited"
	Created ChangeKind = "created"
	Deleted ChangeKind = "deleted"
)

// ParseChangeKind maps a change type label to a kind. The service's
// ADDED/MODIFIED/DELETED spellings are accepted; anything else is Edited.
func ParseChangeKind(raw string) ChangeKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "created", "added", "add", "new":
		return Created
	case "deleted", "removed", "delete":
		return Deleted
	default:
		return Edited
	}
}

func (k ChangeKind) String() string {
	if k == "" {
		return string(Edited)
	}
	return string(k)
}

type FileChange struct {
	Path string
	Kind ChangeKind
}

const (
	fileHeaderPrefix  = "diff --git "
	newFileModePrefix = "new file mode"
	delFileModePrefix = "deleted file mode"
)

// ExtractFiles returns one entry per file header in diff, in order of
// appearance. A header whose block carries a new/deleted file mode line is
// Created/Deleted; otherwise Edited. Headers that cannot be parsed are
// skipped.
func ExtractFiles(diff string) []FileChange {
	files := []FileChange{}
	current := -1
	for _, line := range strings.Split(diff, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, fileHeaderPrefix):
			current = -1
			path, ok := parseHeaderPath(strings.TrimPrefix(line, fileHeaderPrefix))
			if !ok {
				continue
			}
			files = append(files, FileChange{Path: path, Kind: Edited})
			current = len(files) - 1
		case current < 0:
		case strings.HasPrefix(line, newFileModePrefix):
			files[current].Kind = Created
		case strings.HasPrefix(line, delFileModePrefix):
			files[current].Kind = Deleted
		}
	}
	return files
}

// parseHeaderPath returns the b/ side of "a/X b/Y". Quoted paths, which git
// emits for names with special characters, are unquoted. An unquoted header
// whose halves name the same file is split in the middle, since the name may
// itself contain " b/"; only renames fall back to the last " b/".
func parseHeaderPath(rest string) (string, bool) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", false
	}
	if strings.HasSuffix(rest, `"`) {
		idx := strings.LastIndex(rest[:len(rest)-1], `"`)
		for idx > 0 && rest[idx-1] == '\\' {
			idx = strings.LastIndex(rest[:idx-1], `"`)
		}
		if idx < 0 {
			return "", false
		}
		unquoted, err := strconv.Unquote(rest[idx:])
		if err != nil {
			return "", false
		}
		return trimSidePrefix(unquoted, "b/")
	}
	if path, ok := sameNameHeaderPath(rest); ok {
		return path, true
	}
	idx := strings.LastIndex(rest, " b/")
	if idx < 0 {
		return "", false
	}
	return trimSidePrefix(rest[idx+1:], "b/")
}

func sameNameHeaderPath(rest string) (string, bool) {
	if len(rest)%2 == 0 || !strings.HasPrefix(rest, "a/") {
		return "", false
	}
	mid := len(rest) / 2
	if rest[mid] != ' ' || !strings.HasPrefix(rest[mid+1:], "b/") {
		return "", false
	}
	name := rest[2:mid]
	if name == "" || name != rest[mid+3:] {
		return "", false
	}
	return name, true
}

func trimSidePrefix(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	path = strings.TrimPrefix(path, prefix)
	if path == "" {
		return "", false
	}
	return path, true
}

// Summary renders counts per kind, e.g. "2 created, 1 edited".
func Summary(files []FileChange) string {
	counts := map[ChangeKind]int{}
	for _, file := range files {
		counts[file.Kind.normalized()]++
	}
	parts := make([]string, 0, 3)
	for _, kind := range []ChangeKind{Created, Edited, Deleted} {
		if n := counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, kind))
		}
	}
	if len(parts) == 0 {
		return "no files"
	}
	return strings.Join(parts, ", ")
}

func (k ChangeKind) normalized() ChangeKind {
	switch k {
	case Created, Deleted:
		return k
	default:
		return Edited
	}
}
