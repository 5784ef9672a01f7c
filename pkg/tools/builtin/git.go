package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitiris/agentcore/pkg/relevance"
	"github.com/gitiris/agentcore/pkg/repository"
	"github.com/gitiris/agentcore/pkg/tools"
)

// GitStatusTool shows the working tree status.
type GitStatusTool struct{}

func (t GitStatusTool) Name() string { return "git_status" }

func (t GitStatusTool) Description() string {
	return "Show the working tree status: staged, unstaged, and untracked paths."
}

func (t GitStatusTool) InputSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}

func (t GitStatusTool) Execute(ctx context.Context, toolCtx *tools.ToolContext, input map[string]any) (tools.ToolResult, error) {
	st, err := toolCtx.Repo.Status(ctx)
	if err != nil {
		return tools.NewErrorResultf("git_status failed: %v", err), nil
	}
	if len(st.Staged) == 0 && len(st.Unstaged) == 0 && len(st.Untracked) == 0 {
		return tools.NewToolResult("Working tree clean"), nil
	}

	var b strings.Builder
	writeSection(&b, "Staged", st.Staged)
	writeSection(&b, "Unstaged", st.Unstaged)
	writeSection(&b, "Untracked", st.Untracked)
	return tools.NewToolResult(strings.TrimRight(b.String(), "\n")), nil
}

func writeSection(b *strings.Builder, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, p := range paths {
		fmt.Fprintf(b, "  %s\n", p)
	}
}

// diffDetailLevel is the DetailLevel enum from §3: Summary, Minimal, or Full.
// It governs how much of git_diff's output the model sees.
type diffDetailLevel string

const (
	diffDetailSummary diffDetailLevel = "summary"
	diffDetailMinimal diffDetailLevel = "minimal"
	diffDetailFull    diffDetailLevel = "full"
)

// minimalTopScore and minimalTopCount bound which files git_diff's Minimal
// detail level inlines full diffs for: score >= minimalTopScore, or else the
// top minimalTopCount files by relevance, whichever is larger.
const (
	minimalTopScore = 0.6
	minimalTopCount = 5
)

// GitDiffTool aggregates every changed file in a changeset, scores each by
// relevance, sorts descending, and shapes the output by detail level.
type GitDiffTool struct{}

func (t GitDiffTool) Name() string { return "git_diff" }

func (t GitDiffTool) Description() string {
	return "Show the diff for the current changeset (or a from/to ref range), scored by relevance and shaped by detail: summary (one line per file), minimal (full diffs for the top files, names only for the rest), or full (every diff in relevance order)."
}

func (t GitDiffTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"detail": map[string]any{
				"type":        "string",
				"enum":        []string{"summary", "minimal", "full"},
				"description": "How much diff content to include. Defaults to full.",
			},
			"from": map[string]any{
				"type":        "string",
				"description": "Base ref to diff from. Omit to diff the working tree against HEAD.",
			},
			"to": map[string]any{
				"type":        "string",
				"description": "Ref to diff to. Omit to diff against the working tree.",
			},
		},
		"additionalProperties": false,
	}
}

func (t GitDiffTool) Execute(ctx context.Context, toolCtx *tools.ToolContext, input map[string]any) (tools.ToolResult, error) {
	detail := diffDetailFull
	if d, ok := input["detail"].(string); ok && d != "" {
		detail = diffDetailLevel(d)
	}
	from, _ := input["from"].(string)
	to, _ := input["to"].(string)

	files, err := toolCtx.Repo.ChangedFiles(ctx, true, from, to)
	if err != nil {
		return tools.NewErrorResultf("git_diff failed: %v", err), nil
	}
	if len(files) == 0 {
		return tools.NewToolResult("No changes"), nil
	}

	totalLines := 0
	for _, f := range files {
		totalLines += f.Added + f.Removed
	}
	size := relevance.ClassifySize(len(files), totalLines)
	banner := fmt.Sprintf("Size: %s (%d files, %d lines). Guidance: %s", size, len(files), totalLines, relevance.Guidance(size))

	var b strings.Builder
	switch detail {
	case diffDetailSummary:
		fmt.Fprintf(&b, "%s\n\n", banner)
		for _, f := range files {
			fmt.Fprintf(&b, "%.2f  %-8s %s (+%d/-%d)\n", f.Relevance.Value, f.ChangeType, f.Path, f.Added, f.Removed)
		}
	case diffDetailMinimal:
		fmt.Fprintf(&b, "%s\n\n", banner)
		top := minimalTopCount
		for i, f := range files {
			if i >= top && f.Relevance.Value < minimalTopScore {
				break
			}
			writeDiffEntry(&b, f)
		}
		if len(files) > top {
			b.WriteString("Remaining files (names only):\n")
			for _, f := range files[top:] {
				if f.Relevance.Value >= minimalTopScore {
					continue
				}
				fmt.Fprintf(&b, "  %-8s %s\n", f.ChangeType, f.Path)
			}
		}
	default:
		fmt.Fprintf(&b, "%s\n\n", banner)
		for _, f := range files {
			writeDiffEntry(&b, f)
		}
	}

	return tools.NewToolResult(strings.TrimRight(b.String(), "\n")).
		WithMetadata("size_category", string(size)).
		WithMetadata("file_count", len(files)), nil
}

func writeDiffEntry(b *strings.Builder, f repository.ChangedFile) {
	fmt.Fprintf(b, "=== %s (%.2f, %s, +%d/-%d) ===\n", f.Path, f.Relevance.Value, f.ChangeType, f.Added, f.Removed)
	if f.Binary {
		fmt.Fprintf(b, "binary file, no textual diff\n\n")
		return
	}
	diff := f.Diff
	if strings.TrimSpace(diff) == "" {
		diff = "(no diff)"
	}
	fmt.Fprintf(b, "%s\n\n", diff)
}

// GitLogTool shows commit history.
type GitLogTool struct{}

func (t GitLogTool) Name() string { return "git_log" }

func (t GitLogTool) Description() string {
	return "Show the last N commits (hash, author, date, subject, body)."
}

func (t GitLogTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{
				"type":        "integer",
				"description": "Number of commits to show (default 10, max 50)",
			},
		},
		"additionalProperties": false,
	}
}

func (t GitLogTool) Execute(ctx context.Context, toolCtx *tools.ToolContext, input map[string]any) (tools.ToolResult, error) {
	count := 10
	if n, ok := input["count"].(float64); ok && n > 0 {
		count = int(n)
		if count > 50 {
			count = 50
		}
	}

	entries, err := toolCtx.Repo.Log(ctx, count)
	if err != nil {
		return tools.NewErrorResultf("git_log failed: %v", err), nil
	}
	if len(entries) == 0 {
		return tools.NewToolResult("No commits yet"), nil
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s <%s> %s\n", e.ShortHash, e.Title, e.Author, e.Date)
		if e.Body != "" {
			fmt.Fprintf(&b, "%s\n", e.Body)
		}
	}
	return tools.NewToolResult(strings.TrimRight(b.String(), "\n")), nil
}

// GitChangedFilesTool is the lightweight changeset overview: name and
// change type per line, nothing else. Use git_diff for relevance scoring,
// sizing, and actual diff content.
type GitChangedFilesTool struct{}

func (t GitChangedFilesTool) Name() string { return "git_changed_files" }

func (t GitChangedFilesTool) Description() string {
	return "List every changed file (tracked and untracked) as name and change type, one per line. Lighter than git_diff for a quick overview."
}

func (t GitChangedFilesTool) InputSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}

func (t GitChangedFilesTool) Execute(ctx context.Context, toolCtx *tools.ToolContext, input map[string]any) (tools.ToolResult, error) {
	files, err := toolCtx.Repo.ChangedFiles(ctx, true, "", "")
	if err != nil {
		return tools.NewErrorResultf("git_changed_files failed: %v", err), nil
	}
	if len(files) == 0 {
		return tools.NewToolResult("No changed files"), nil
	}

	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "%-8s %s\n", f.ChangeType, f.Path)
	}
	return tools.NewToolResult(strings.TrimRight(b.String(), "\n")), nil
}

// RegisterGitTools registers all git_* tools with the registry.
func RegisterGitTools(registry *tools.Registry) {
	registry.MustRegister(GitStatusTool{})
	registry.MustRegister(GitDiffTool{})
	registry.MustRegister(GitLogTool{})
	registry.MustRegister(GitChangedFilesTool{})
}
