// Package repository is the read-only Git facade the agent core's tools
// are built on. It shells out to the git binary, the way the teacher's
// gitutil.Client and tools/builtin git tools do, but exposes only read
// operations: the core never writes to a repository.
package repository

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Kind of failure the facade can report.
type ErrorKind string

const (
	ErrNotARepository ErrorKind = "not_a_repository"
	ErrInvalidRef     ErrorKind = "invalid_ref"
	ErrIO             ErrorKind = "io"
)

// RepositoryError is the sum-typed failure surfaced by facade operations.
type RepositoryError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// Repository is a read-only view over a Git working tree.
type Repository struct {
	GitBinary string
	Root      string
	timeout   time.Duration
}

// New creates a Repository rooted at dir. It does not verify dir is a git
// repository; that is discovered on first use (NotARepository).
func New(dir string) *Repository {
	return &Repository{Root: dir, timeout: 60 * time.Second}
}

func (r *Repository) gitBinary() string {
	if r.GitBinary == "" {
		return "git"
	}
	return r.GitBinary
}

func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.gitBinary(), args...)
	cmd.Dir = r.Root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		kind := ErrIO
		if strings.Contains(msg, "not a git repository") {
			kind = ErrNotARepository
		} else if strings.Contains(msg, "unknown revision") || strings.Contains(msg, "bad revision") || strings.Contains(msg, "ambiguous argument") {
			kind = ErrInvalidRef
		}
		return "", &RepositoryError{Kind: kind, Op: strings.Join(args, " "), Err: errors.New(msg)}
	}
	return stdout.String(), nil
}

// RepoInfo describes the repository root.
type RepoInfo struct {
	RootPath      string
	DefaultBranch string
	Head          string
	RemoteURL     string
}

// Info returns static repository metadata.
func (r *Repository) Info(ctx context.Context) (RepoInfo, error) {
	root, err := r.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoInfo{}, err
	}
	head, _ := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	remote, _ := r.run(ctx, "remote", "get-url", "origin")
	defaultBranch, _ := r.run(ctx, "symbolic-ref", "refs/remotes/origin/HEAD")
	db := strings.TrimPrefix(strings.TrimSpace(defaultBranch), "refs/remotes/origin/")
	if db == "" {
		db = strings.TrimSpace(head)
	}
	return RepoInfo{
		RootPath:      strings.TrimSpace(root),
		DefaultBranch: db,
		Head:          strings.TrimSpace(head),
		RemoteURL:     strings.TrimSpace(remote),
	}, nil
}

// CurrentBranch returns the checked-out branch name.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Status is the result of a working-tree status query.
type Status struct {
	Staged    []string
	Unstaged  []string
	Untracked []string
}

// Status reports staged, unstaged, and untracked paths.
func (r *Repository) Status(ctx context.Context) (Status, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return Status{}, err
	}
	var st Status
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 3 {
			continue
		}
		idx, wt, path := line[0], line[1], strings.TrimSpace(line[3:])
		if strings.Contains(path, " -> ") {
			path = path[strings.Index(path, " -> ")+4:]
		}
		switch {
		case idx == '?' && wt == '?':
			st.Untracked = append(st.Untracked, path)
		case idx != ' ' && idx != '?':
			st.Staged = append(st.Staged, path)
			if wt != ' ' {
				st.Unstaged = append(st.Unstaged, path)
			}
		case wt != ' ':
			st.Unstaged = append(st.Unstaged, path)
		}
	}
	return st, scanner.Err()
}

// LogEntry is one commit summary.
type LogEntry struct {
	ShortHash string
	Author    string
	Date      string
	Title     string
	Body      string
}

const logSep = "\x1f"

// Log returns the most recent count commits, newest first.
func (r *Repository) Log(ctx context.Context, count int) ([]LogEntry, error) {
	if count <= 0 {
		count = 5
	}
	format := strings.Join([]string{"%h", "%an", "%ad", "%s", "%b"}, logSep) + "\x1e"
	out, err := r.run(ctx, "log", fmt.Sprintf("-n%d", count), "--date=short", "--format="+format)
	if err != nil {
		var rerr *RepositoryError
		if errors.As(err, &rerr) && strings.Contains(rerr.Err.Error(), "does not have any commits yet") {
			return nil, nil
		}
		return nil, err
	}
	var entries []LogEntry
	for _, rec := range strings.Split(out, "\x1e") {
		rec = strings.TrimLeft(rec, "\n")
		if strings.TrimSpace(rec) == "" {
			continue
		}
		fields := strings.SplitN(rec, logSep, 5)
		if len(fields) < 4 {
			continue
		}
		e := LogEntry{ShortHash: fields[0], Author: fields[1], Date: fields[2], Title: fields[3]}
		if len(fields) == 5 {
			e.Body = strings.TrimSpace(fields[4])
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReadFile reads path from the working tree. start/num of 0 means whole
// file. The second return value reports whether the content was rejected
// as binary by heuristic (a null byte in the first 8KB); when true the
// first return value is empty.
func (r *Repository) ReadFile(path string, startLine, numLines int) (string, bool, error) {
	full := filepath.Join(r.Root, path)
	data, err := readFileCapped(full, maxReadBytes)
	if err != nil {
		return "", false, &RepositoryError{Kind: ErrIO, Op: "read_file " + path, Err: err}
	}
	if looksBinary(data) {
		return "", true, nil
	}
	if startLine <= 0 && numLines <= 0 {
		return data, false, nil
	}
	lines := strings.Split(data, "\n")
	start := startLine - 1
	if start < 0 {
		start = 0
	}
	if start >= len(lines) {
		return "", false, nil
	}
	end := len(lines)
	if numLines > 0 && start+numLines < end {
		end = start + numLines
	}
	return strings.Join(lines[start:end], "\n"), false, nil
}

// ResolveRef validates a ref and returns its resolved commit hash.
func (r *Repository) ResolveRef(ctx context.Context, ref string) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--verify", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
