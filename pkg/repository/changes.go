package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/gitiris/agentcore/pkg/relevance"
)

// ChangedFile is one path in a changeset, annotated with its relevance
// score for ranking and the diff that produced that score.
type ChangedFile struct {
	Path       string
	ChangeType relevance.ChangeType
	Relevance  relevance.Score
	Diff       string
	Binary     bool
	Added      int
	Removed    int
}

// ChangedFiles enumerates every file touched by the requested comparison,
// scored by relevance.Compute and sorted by descending score (ties broken
// by path) so callers see the most important files first.
//
// With from and to both set, it diffs the from..to range. With only from
// set, it diffs from against the working tree. With neither set, it diffs
// HEAD against the working tree when includeUnstaged is true, or just the
// index (staged changes) when it is false. Untracked files are folded in
// whenever the comparison's upper bound is the working tree (to == "").
func (r *Repository) ChangedFiles(ctx context.Context, includeUnstaged bool, from, to string) ([]ChangedFile, error) {
	args := []string{"diff", "--name-status"}
	includeUntracked := to == ""
	switch {
	case from != "" && to != "":
		args = append(args, from, to)
	case from != "":
		args = append(args, from)
	case includeUnstaged:
		args = append(args, "HEAD")
	default:
		args = append(args, "--cached")
	}

	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var files []ChangedFile
	seen := map[string]bool{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		status, path := fields[0], fields[len(fields)-1]
		ct := statusToChangeType(status)
		seen[path] = true
		files = append(files, r.scoreChangedFile(ctx, path, ct))
	}

	if includeUntracked {
		st, err := r.Status(ctx)
		if err == nil {
			for _, path := range st.Untracked {
				if seen[path] {
					continue
				}
				seen[path] = true
				files = append(files, r.scoreChangedFile(ctx, path, relevance.Untracked))
			}
		}
	}

	sortByRelevanceDesc(files)
	return files, nil
}

func (r *Repository) scoreChangedFile(ctx context.Context, path string, ct relevance.ChangeType) ChangedFile {
	diff, err := r.Diff(ctx, path, false)
	var diffText string
	var added, removed int
	var binary bool
	if err == nil {
		diffText, added, removed, binary = diff.Diff, diff.Added, diff.Removed, diff.Binary
	}
	score := relevance.Compute(relevance.Input{
		Path:         path,
		ChangeType:   ct,
		DiffText:     diffText,
		LinesAdded:   added,
		LinesRemoved: removed,
	})
	return ChangedFile{
		Path:       path,
		ChangeType: ct,
		Relevance:  score,
		Diff:       diffText,
		Binary:     binary,
		Added:      added,
		Removed:    removed,
	}
}

func statusToChangeType(status string) relevance.ChangeType {
	switch status[0] {
	case 'A':
		return relevance.Added
	case 'D':
		return relevance.Deleted
	case 'R':
		return relevance.Renamed
	default:
		return relevance.Modified
	}
}

func sortByRelevanceDesc(files []ChangedFile) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Relevance.Value != files[j].Relevance.Value {
			return files[i].Relevance.Value > files[j].Relevance.Value
		}
		return files[i].Path < files[j].Path
	})
}
