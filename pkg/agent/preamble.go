package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitiris/agentcore/pkg/repository"
)

const rolePreamble = "You are Git-Iris, an autonomous agent operating against a Git repository. " +
	"You have strict tool calling available: every tool call you make is validated against its " +
	"JSON Schema before it runs, and you will receive exactly one tool-result message per tool call " +
	"you emit in a turn, in the order you emitted them."

// buildPreamble assembles the system prompt per §4.6: role declaration,
// task prompt, optional style preset and user instructions (labeled), and
// a minimal repository snapshot. Additional context is left to tools.
func buildPreamble(ctx context.Context, taskPrompt, stylePreset, instructions string, repo *repository.Repository) string {
	var parts []string
	parts = append(parts, rolePreamble)

	if trimmed := strings.TrimSpace(taskPrompt); trimmed != "" {
		parts = append(parts, trimmed)
	}

	if trimmed := strings.TrimSpace(stylePreset); trimmed != "" {
		parts = append(parts, "## Style preset\n\n"+trimmed)
	}
	if trimmed := strings.TrimSpace(instructions); trimmed != "" {
		parts = append(parts, "## User instructions\n\n"+trimmed)
	}

	if snapshot := repositorySnapshot(ctx, repo); snapshot != "" {
		parts = append(parts, snapshot)
	}

	return strings.Join(parts, "\n\n")
}

// repositorySnapshot produces a one- or two-line context note. It is
// intentionally minimal: the model is expected to reach for git_status,
// git_log, etc. for anything beyond orientation.
func repositorySnapshot(ctx context.Context, repo *repository.Repository) string {
	if repo == nil {
		return ""
	}
	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("## Context\n\nRepository root: %s\nCurrent branch: %s", repo.Root, branch)
}
