package agent

import (
	"fmt"

	"github.com/gitiris/agentcore/pkg/capability"
	"github.com/gitiris/agentcore/pkg/llm"
	"github.com/gitiris/agentcore/pkg/logging"
	"github.com/gitiris/agentcore/pkg/repository"
	"github.com/gitiris/agentcore/pkg/tools"
	"github.com/gitiris/agentcore/pkg/tools/builtin"
)

// Config describes how to build a top-level agent Runtime: which
// providers back the main loop and parallel_analyze sub-agents, and
// which repository working directory they operate on.
type Config struct {
	// MainProvider answers the top-level agent's completion requests.
	MainProvider llm.LLMProvider

	// SubAgentProvider answers parallel_analyze sub-agents' completion
	// requests. Left nil, it falls back to MainProvider — a fast/cheap
	// model for sub-agents is a deployment choice, not a requirement.
	SubAgentProvider llm.LLMProvider

	// WorkDir is the repository working directory.
	WorkDir string

	// Capabilities overrides the embedded capability registry. Nil loads
	// the five built-in descriptors via capability.MustLoadEmbedded.
	Capabilities *capability.Registry

	Logger *logging.Logger
}

// NewMainRuntime builds the fully wired top-level agent Runtime: the
// registry with every built-in tool, a SubAgentDelegator backing
// parallel_analyze, and the capability descriptors, the way cmd/git-iris
// constructs one per invocation.
func NewMainRuntime(cfg Config) (*Runtime, error) {
	if cfg.MainProvider == nil {
		return nil, fmt.Errorf("agent: MainProvider is required")
	}
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("agent: WorkDir is required")
	}

	capabilities := cfg.Capabilities
	if capabilities == nil {
		capabilities = capability.MustLoadEmbedded()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	subProvider := cfg.SubAgentProvider
	if subProvider == nil {
		subProvider = cfg.MainProvider
	}

	repo := repository.New(cfg.WorkDir)
	registry := builtin.NewRegistryWithBuiltins()
	subRegistry := builtin.NewSubAgentRegistry()

	delegator := NewSubAgentDelegator(subProvider, subRegistry, repo, cfg.WorkDir)
	delegator.Logger = logger

	rt := NewRuntime(cfg.MainProvider, capabilities, registry)
	rt.Delegate = delegator
	rt.Logger = logger
	return rt, nil
}

// NewMainToolContext builds the top-level ToolContext for a main run:
// default permissions and a fresh Workspace. The Runtime fills in
// Delegate from rt.Delegate if this context's Delegate is left nil.
func NewMainToolContext(workDir string) *tools.ToolContext {
	repo := repository.New(workDir)
	return tools.NewToolContext(workDir, repo).
		WithPermissions(tools.DefaultPermissions()).
		WithWorkspace(tools.NewWorkspace())
}
