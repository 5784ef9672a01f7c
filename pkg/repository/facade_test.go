package repository

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestRepository_CurrentBranchAndInfo(t *testing.T) {
	dir := initTestRepo(t)
	repo := New(dir)
	ctx := context.Background()

	branch, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, branch)

	info, err := repo.Info(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, info.RootPath)
}

func TestRepository_StatusReportsUntracked(t *testing.T) {
	dir := initTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hi"), 0o644))

	st, err := New(dir).Status(context.Background())
	require.NoError(t, err)
	require.Contains(t, st.Untracked, "new.txt")
}

func TestRepository_DiffSynthesizesForUntrackedFile(t *testing.T) {
	dir := initTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.go"), []byte("package main\n\nfunc hi() {}\n"), 0o644))

	diff, err := New(dir).Diff(context.Background(), "new.go", false)
	require.NoError(t, err)
	require.False(t, diff.Binary)
	require.Greater(t, diff.Added, 0)
	require.Contains(t, diff.Diff, "+func hi()")
}

func TestRepository_LogReturnsCommits(t *testing.T) {
	dir := initTestRepo(t)
	entries, err := New(dir).Log(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "initial", entries[0].Title)
}

func TestRepository_ReadFileWithRange(t *testing.T) {
	dir := initTestRepo(t)
	text, binary, err := New(dir).ReadFile("main.go", 1, 1)
	require.NoError(t, err)
	require.False(t, binary)
	require.Contains(t, text, "package main")
}

func TestRepository_ReadFileRejectsBinaryContent(t *testing.T) {
	dir := initTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte("PNG\x00\x01\x02fake binary"), 0o644))

	text, binary, err := New(dir).ReadFile("blob.bin", 0, 0)
	require.NoError(t, err)
	require.True(t, binary)
	require.Empty(t, text)
}

func TestRepository_ChangedFilesScoresUntracked(t *testing.T) {
	dir := initTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "feature.go"), []byte("package main\n\nfunc newFeature() {}\n"), 0o644))

	files, err := New(dir).ChangedFiles(context.Background(), false, "", "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var found bool
	for _, f := range files {
		if f.Path == "feature.go" {
			found = true
			require.Greater(t, f.Relevance.Value, 0.0)
		}
	}
	require.True(t, found)
}

func TestRepository_SearchFindsLiteral(t *testing.T) {
	dir := initTestRepo(t)
	repo := New(dir)
	matches, err := repo.Search(context.Background(), "package main", "", 0, 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
}

func TestRepository_SearchIncludesContextLines(t *testing.T) {
	dir := initTestRepo(t)
	content := "package main\n\nfunc before() {}\n\nfunc target() {}\n\nfunc after() {}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "code.go"), []byte(content), 0o644))

	matches, err := New(dir).Search(context.Background(), "func target", "", 2, 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	require.Contains(t, matches[0].Excerpt, "func before()")
	require.Contains(t, matches[0].Excerpt, "func target()")
	require.Contains(t, matches[0].Excerpt, "func after()")
}

func TestRepository_NotARepository(t *testing.T) {
	dir := t.TempDir()
	_, err := New(dir).CurrentBranch(context.Background())
	require.Error(t, err)
	var rerr *RepositoryError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ErrNotARepository, rerr.Kind)
}
