package repository

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// maxReadBytes caps file_read and diff synthesis input, matching the
// truncation boundary the file_read tool advertises to the model.
const maxReadBytes = 512 * 1024

func readFileCapped(path string, limit int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) <= limit {
		return string(data), nil
	}
	return string(data[:limit]) + "\n... (truncated)", nil
}

// FileDiff is a synthesized or git-produced unified diff for one path.
type FileDiff struct {
	Path     string
	Diff     string
	Added    int
	Removed  int
	Binary   bool
}

// Diff returns the unified diff for path relative to its last committed
// state. Tracked changes go through "git diff"; untracked files have no
// git-produced diff, so their diff is synthesized against an empty blob
// using go-difflib, the same way an added file would read.
func (r *Repository) Diff(ctx context.Context, path string, staged bool) (FileDiff, error) {
	args := []string{"diff"}
	if staged {
		args = append(args, "--cached")
	} else {
		args = append(args, "HEAD")
	}
	args = append(args, "--", path)
	out, err := r.run(ctx, args...)
	if err != nil {
		return FileDiff{}, err
	}
	if strings.TrimSpace(out) == "" {
		untracked, uerr := r.isUntracked(ctx, path)
		if uerr == nil && untracked {
			return r.synthesizeUntrackedDiff(path)
		}
	}
	added, removed := countDiffLines(out)
	return FileDiff{Path: path, Diff: out, Added: added, Removed: removed}, nil
}

func (r *Repository) isUntracked(ctx context.Context, path string) (bool, error) {
	out, err := r.run(ctx, "status", "--porcelain", "--", path)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.TrimSpace(out), "??"), nil
}

func (r *Repository) synthesizeUntrackedDiff(path string) (FileDiff, error) {
	full := r.Root + string(os.PathSeparator) + path
	content, err := readFileCapped(full, maxReadBytes)
	if err != nil {
		return FileDiff{}, &RepositoryError{Kind: ErrIO, Op: "diff " + path, Err: err}
	}
	if looksBinary(content) {
		return FileDiff{Path: path, Binary: true}, nil
	}

	diff := difflib.UnifiedDiff{
		A:        []string{},
		B:        difflib.SplitLines(content),
		FromFile: "/dev/null",
		ToFile:   path,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return FileDiff{}, fmt.Errorf("synthesize diff for %s: %w", path, err)
	}
	added, removed := countDiffLines(text)
	return FileDiff{Path: path, Diff: text, Added: added, Removed: removed}, nil
}

func countDiffLines(diff string) (added, removed int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			continue
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

// binarySniffBytes bounds how much of a file's content looksBinary
// inspects, matching file_read's "null byte in the first 8KB" heuristic.
const binarySniffBytes = 8 * 1024

func looksBinary(content string) bool {
	n := len(content)
	if n > binarySniffBytes {
		n = binarySniffBytes
	}
	return strings.ContainsRune(content[:n], 0)
}
