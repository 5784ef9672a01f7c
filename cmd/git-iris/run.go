package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gitiris/agentcore/pkg/agent"
	"github.com/gitiris/agentcore/pkg/agentcore"
	"github.com/gitiris/agentcore/pkg/llm"
	"github.com/gitiris/agentcore/pkg/logging"
)

// commandOptions are the flags common to every capability subcommand.
type commandOptions struct {
	from            string
	to              string
	commit          string
	includeUnstaged bool
	print           bool
	raw             bool
	autoCommit      bool
	noGitmoji       bool
}

// buildProvider resolves flags/environment into an llm.LLMProvider per §6:
// ANTHROPIC_API_KEY / OPENAI_API_KEY supply the credential, the provider
// name selects which.
func buildProvider() (llm.LLMProvider, error) {
	switch flags.provider {
	case "claude", "":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, &usageError{msg: "ANTHROPIC_API_KEY is not set"}
		}
		return llm.NewLLMProvider(llm.LLMProviderConfig{
			Type:    llm.ProviderClaude,
			APIKey:  key,
			Model:   envOr("GIT_IRIS_MODEL", "claude-sonnet-4-20250514"),
			MaxTokens: 4096,
		})
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, &usageError{msg: "OPENAI_API_KEY is not set"}
		}
		return llm.NewLLMProvider(llm.LLMProviderConfig{
			Type:      llm.ProviderOpenAI,
			APIKey:    key,
			Model:     envOr("GIT_IRIS_MODEL", "gpt-4o"),
			MaxTokens: 4096,
		})
	default:
		return nil, &usageError{msg: fmt.Sprintf("unknown provider %q (want claude or openai)", flags.provider)}
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// runCapability wires a capability name + options into a Runtime.Run call,
// prints the result, and returns the error run()'s caller maps to an exit
// code. workDir defaults to the current directory.
func runCapability(capabilityName string, requiresChanges bool, opts commandOptions) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}

	provider, err := buildProvider()
	if err != nil {
		return err
	}

	cfg := agent.Config{
		MainProvider: provider,
		WorkDir:      workDir,
	}
	if flags.debug {
		cfg.Logger = &logging.Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	rt, err := agent.NewMainRuntime(cfg)
	if err != nil {
		return fmt.Errorf("build agent runtime: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	req := agent.RunRequest{
		CapabilityName:  capabilityName,
		StylePreset:     flags.preset,
		Instructions:    composeInstructions(opts),
		WorkDir:         workDir,
		TurnBudget:      25,
		RequiresChanges: requiresChanges,
		MaxMessages:     60,
		Compact:         agent.DefaultCompactConfig(),
		ToolContext:     agent.NewMainToolContext(workDir),
	}
	if flags.debug {
		req.Callbacks.OnToolCall = func(name string, input map[string]any) {
			rt.Logger.Debug("tool call", "tool", name, "input", input)
		}
	}

	result, err := rt.Run(ctx, req)
	if err != nil {
		return classifyRunError(err)
	}

	if result.Diagnostics.NoChanges {
		return &noChangesError{msg: "nothing to describe: the repository has no changes"}
	}

	printResult(result, opts)

	if opts.autoCommit && result.Response.Kind == agent.OutputGeneratedMessage {
		if err := autoCommit(ctx, workDir, result.Response); err != nil {
			return fmt.Errorf("auto-commit: %w", err)
		}
	}
	return nil
}

// composeInstructions folds CLI options the model can't express through a
// tool call directly (the commit pointer, the gitmoji/unstaged toggles) into
// natural language. git_diff's own from/to parameters already cover ref
// ranges, so those are passed through as a hint rather than restated here.
func composeInstructions(opts commandOptions) string {
	var parts []string
	if opts.from != "" && opts.to != "" {
		parts = append(parts, fmt.Sprintf("Use git_diff with from=%q and to=%q for the range of commits to consider.", opts.from, opts.to))
	} else if opts.from != "" {
		parts = append(parts, fmt.Sprintf("Use git_diff with from=%q to consider only changes since that ref.", opts.from))
	}
	if opts.commit != "" {
		parts = append(parts, fmt.Sprintf("Describe commit %s specifically, not the working tree.", opts.commit))
	}
	if opts.includeUnstaged {
		parts = append(parts, "Include unstaged working tree changes in addition to staged changes.")
	}
	if opts.noGitmoji {
		parts = append(parts, "Do not prefix the title with an emoji or gitmoji.")
	}
	if flags.instructions != "" {
		parts = append(parts, flags.instructions)
	}
	return strings.Join(parts, " ")
}

func classifyRunError(err error) error {
	var coreErr *agentcore.Error
	if errors.As(err, &coreErr) {
		if coreErr.Kind == agentcore.KindCancelled {
			return &cancelledError{msg: "run cancelled"}
		}
	}
	if errors.Is(err, context.Canceled) {
		return &cancelledError{msg: "run cancelled"}
	}
	return err
}

func printResult(result agent.Result, opts commandOptions) {
	resp := result.Response
	if opts.raw {
		if resp.Kind == agent.OutputGeneratedMessage {
			fmt.Println(resp.Message)
			return
		}
		fmt.Println(resp.Content)
		return
	}
	switch resp.Kind {
	case agent.OutputGeneratedMessage:
		title := resp.Title
		if resp.Emoji != "" && !opts.noGitmoji {
			title = resp.Emoji + " " + title
		}
		fmt.Println(title)
		if resp.Message != "" {
			fmt.Println()
			fmt.Println(resp.Message)
		}
	default:
		fmt.Println(resp.Content)
	}

	if !flags.quiet && result.Diagnostics.TitleTruncated {
		fmt.Fprintln(os.Stderr, "note: title truncated to 72 characters")
	}
	if !flags.quiet && result.Diagnostics.SchemaRecoveryFailed {
		fmt.Fprintln(os.Stderr, "note: structured output recovery failed, showing plain text")
	}
}

// autoCommit runs `git commit` with the generated message. pkg/repository
// is a deliberately read-only facade (the agent core never writes to a
// repository), so this is the one place the CLI shells out to git
// directly instead of going through it.
func autoCommit(ctx context.Context, workDir string, resp agent.StructuredResponse) error {
	title := resp.Title
	if resp.Emoji != "" {
		title = resp.Emoji + " " + title
	}
	message := title
	if resp.Message != "" {
		message = title + "\n\n" + resp.Message
	}
	cmd := exec.CommandContext(ctx, "git", "commit", "-m", message)
	cmd.Dir = workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
