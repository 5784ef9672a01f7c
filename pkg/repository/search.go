package repository

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SearchMatch is one matching location from a code_search query, with
// context_lines of surrounding text above and below folded into Excerpt.
type SearchMatch struct {
	Path    string
	Line    int
	Excerpt string
}

// git grep separates a matching line with ":" and a context line with "-".
var (
	matchLineRe   = regexp.MustCompile(`^(.+?):(\d+):(.*)$`)
	contextLineRe = regexp.MustCompile(`^(.+?)-(\d+)-(.*)$`)
)

// Search runs a literal or regex query over tracked files with git grep,
// the same plumbing git_diff and git_status use, so results never include
// files outside the repository's tracked set plus untracked working files.
// contextLines surrounding lines are folded into each match's Excerpt.
func (r *Repository) Search(ctx context.Context, query, pathGlob string, contextLines, maxResults int) ([]SearchMatch, error) {
	if maxResults <= 0 || maxResults > 200 {
		maxResults = 50
	}
	if contextLines < 0 {
		contextLines = 0
	}
	args := []string{"grep", "--untracked", "-n", "-I", "-E"}
	if contextLines > 0 {
		args = append(args, fmt.Sprintf("-C%d", contextLines))
	}
	args = append(args, "--", query)
	if pathGlob != "" {
		args = append(args, "--", pathGlob)
	}
	out, err := r.run(ctx, args...)
	if err != nil {
		// git grep exits non-zero on no matches; distinguish from real errors
		// by checking the underlying message is empty.
		if rerr, ok := asRepositoryError(err); ok && strings.TrimSpace(rerr.Err.Error()) == "" {
			return nil, nil
		}
		return nil, err
	}

	var matches []SearchMatch
	var cur *SearchMatch
	var excerpt []string
	flush := func() {
		if cur != nil {
			cur.Excerpt = strings.Join(excerpt, "\n")
			matches = append(matches, *cur)
		}
		cur = nil
		excerpt = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "--" {
			flush()
			continue
		}
		if fields := matchLineRe.FindStringSubmatch(line); fields != nil {
			lineNum, _ := strconv.Atoi(fields[2])
			if cur == nil {
				cur = &SearchMatch{Path: fields[1], Line: lineNum}
			} else {
				cur.Path, cur.Line = fields[1], lineNum
			}
			excerpt = append(excerpt, fields[3])
			continue
		}
		if fields := contextLineRe.FindStringSubmatch(line); fields != nil {
			if cur == nil {
				lineNum, _ := strconv.Atoi(fields[2])
				cur = &SearchMatch{Path: fields[1], Line: lineNum}
			}
			excerpt = append(excerpt, fields[3])
		}
	}
	flush()

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].Line < matches[j].Line
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

func asRepositoryError(err error) (*RepositoryError, bool) {
	rerr, ok := err.(*RepositoryError)
	return rerr, ok
}
