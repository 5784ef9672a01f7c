package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gitiris/agentcore/pkg/llm"
	"github.com/gitiris/agentcore/pkg/logging"
	"github.com/gitiris/agentcore/pkg/repository"
	"github.com/gitiris/agentcore/pkg/tools"
)

const (
	defaultSubAgentConcurrency = 4
	maxSubAgentConcurrency     = 16
	defaultSubAgentTimeout     = 60 * time.Second
)

// SubAgentDelegator implements tools.Delegator by spawning one fresh agent
// Runtime per task, bounded to a small concurrency limit. It is the
// parallel_analyze dispatcher described in §4.4/§4.5: the fast model,
// core tools only, an independent conversation per sub-agent, and a
// per-task timeout that surfaces as a failed result rather than aborting
// the whole call. The bounded-concurrency shape is the same one the
// webhook job queue uses for worker dispatch, adapted here to a
// synchronous scatter-gather that preserves input order.
type SubAgentDelegator struct {
	// Provider is the fast/cheap completion model used for sub-agents.
	Provider llm.LLMProvider

	// Registry is the sub-agent tool set: core tools only, no
	// parallel_analyze, no workspace.
	Registry *tools.Registry

	Repo    *repository.Repository
	WorkDir string

	// TurnBudget bounds each sub-agent's own loop; smaller than the main
	// agent's.
	TurnBudget int

	// Concurrency bounds how many sub-agents run at once.
	Concurrency int

	// Timeout bounds a single sub-agent's wall-clock execution.
	Timeout time.Duration

	Logger *logging.Logger
}

// NewSubAgentDelegator builds a delegator with the defaults from §4.5.
func NewSubAgentDelegator(provider llm.LLMProvider, registry *tools.Registry, repo *repository.Repository, workDir string) *SubAgentDelegator {
	return &SubAgentDelegator{
		Provider:    provider,
		Registry:    registry,
		Repo:        repo,
		WorkDir:     workDir,
		TurnBudget:  defaultSubTurnBudget,
		Concurrency: defaultSubAgentConcurrency,
		Timeout:     defaultSubAgentTimeout,
		Logger:      logging.Default(),
	}
}

// Delegate runs tasks concurrently, bounded by requested (the caller's
// override, per §4.4) clamped to [1, maxSubAgentConcurrency], falling back
// to Concurrency (or the package default) when requested is 0. Results
// come back in the same order as tasks regardless of completion order.
func (d *SubAgentDelegator) Delegate(ctx context.Context, tasks []tools.AnalysisTask, requested int) ([]tools.AnalysisResult, error) {
	concurrency := requested
	if concurrency < 1 {
		concurrency = d.Concurrency
	}
	if concurrency < 1 {
		concurrency = defaultSubAgentConcurrency
	}
	if concurrency > maxSubAgentConcurrency {
		concurrency = maxSubAgentConcurrency
	}
	if concurrency > len(tasks) {
		concurrency = len(tasks)
	}

	results := make([]tools.AnalysisResult, len(tasks))
	sem := make(chan struct{}, concurrency)
	done := make(chan int, len(tasks))

	for i, task := range tasks {
		i, task := i, task
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; done <- i }()
			results[i] = d.runOne(ctx, task)
		}()
	}
	for range tasks {
		<-done
	}
	return results, nil
}

func (d *SubAgentDelegator) runOne(ctx context.Context, task tools.AnalysisTask) tools.AnalysisResult {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultSubAgentTimeout
	}
	subCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	toolCtx := tools.NewToolContext(d.WorkDir, d.Repo).WithPermissions(tools.SubAgentPermissions())

	rt := &Runtime{
		Provider:       d.Provider,
		Registry:       d.Registry,
		MainTurnBudget: d.TurnBudget,
		MaxMessages:    defaultMaxMessages,
		Logger:         d.Logger,
	}

	result, err := rt.Run(subCtx, RunRequest{
		CapabilityName: "sub_agent:" + task.Focus,
		TaskPrompt:     subAgentTaskPrompt(task),
		OutputType:     string(OutputPlainText),
		WorkDir:        d.WorkDir,
		TurnBudget:     d.TurnBudget,
		ToolContext:    toolCtx,
	})
	if err != nil {
		if subCtx.Err() != nil {
			return tools.AnalysisResult{Focus: task.Focus, Err: fmt.Errorf("timed out after %s: %w", timeout, err)}
		}
		return tools.AnalysisResult{Focus: task.Focus, Err: err}
	}
	return tools.AnalysisResult{Focus: task.Focus, Summary: result.Response.Content}
}

func subAgentTaskPrompt(task tools.AnalysisTask) string {
	var b strings.Builder
	b.WriteString("You are a focused sub-agent. Investigate the following and reply with a concise, plain-text summary of your findings only — no preamble, no JSON.\n\n")
	fmt.Fprintf(&b, "Focus: %s\n", task.Focus)
	if len(task.Paths) > 0 {
		fmt.Fprintf(&b, "Relevant paths: %s\n", strings.Join(task.Paths, ", "))
	}
	return b.String()
}
