package builtin

import "github.com/gitiris/agentcore/pkg/tools"

// RegisterCoreTools registers the read-only tool set available to every
// agent run: status, diff, log, changed-files, file reads, search, and
// project docs. This is also the full set a parallel_analyze sub-agent
// receives.
func RegisterCoreTools(registry *tools.Registry) {
	RegisterGitTools(registry)
	RegisterFileTools(registry)
	RegisterSearchTools(registry)
	RegisterDocsTools(registry)
}

// RegisterAll registers the core tools plus the tools only a top-level
// run is permitted to use: workspace and parallel_analyze.
func RegisterAll(registry *tools.Registry) {
	RegisterCoreTools(registry)
	RegisterWorkspaceTools(registry)
	RegisterParallelTools(registry)
}

// NewRegistryWithBuiltins creates a new registry with every built-in tool
// registered, suitable for a top-level agent run.
func NewRegistryWithBuiltins() *tools.Registry {
	registry := tools.NewRegistry()
	RegisterAll(registry)
	return registry
}

// NewSubAgentRegistry creates a registry with only the core, read-only
// tool set — no workspace, no further delegation — for a parallel_analyze
// sub-agent.
func NewSubAgentRegistry() *tools.Registry {
	registry := tools.NewRegistry()
	RegisterCoreTools(registry)
	return registry
}
