package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitiris/agentcore/pkg/repository"
)

// AnalysisTask is one unit of work handed to a parallel_analyze sub-agent.
type AnalysisTask struct {
	// Focus is the natural-language question or area the sub-agent should
	// investigate, e.g. "summarize changes under pkg/auth".
	Focus string

	// Paths optionally scopes the sub-agent's attention to specific files.
	Paths []string
}

// AnalysisResult is one sub-agent's finding, returned in the same order
// as the AnalysisTask it answers.
type AnalysisResult struct {
	Focus   string
	Summary string
	Err     error
}

// Delegator runs a batch of AnalysisTasks as independent sub-agents and
// returns their results in input order. concurrency is the caller's
// requested bound; 0 means "use the implementation's default". Implemented
// by the agent runtime; the tools package only depends on the shape of the
// call.
type Delegator interface {
	Delegate(ctx context.Context, tasks []AnalysisTask, concurrency int) ([]AnalysisResult, error)
}

// Permissions gates what a tool registry's caller may do. The core tool
// set is read-only by construction (no bash, no GitHub, no file writes),
// so the only things worth gating are delegation and the workspace's
// scratch state, both of which a sub-agent is denied per the runtime's
// no-nested-delegation rule.
type Permissions struct {
	// AllowDelegation permits the parallel_analyze tool to be called.
	// False for sub-agents: delegation never nests.
	AllowDelegation bool

	// AllowWorkspace permits the workspace tool's notes/tasks surface.
	// False for sub-agents: their findings return through their final
	// answer, not through shared scratch state.
	AllowWorkspace bool
}

// DefaultPermissions is granted to a top-level agent run.
func DefaultPermissions() Permissions {
	return Permissions{AllowDelegation: true, AllowWorkspace: true}
}

// SubAgentPermissions is granted to a parallel_analyze sub-agent: core
// tools only, no further delegation, no shared workspace.
func SubAgentPermissions() Permissions {
	return Permissions{}
}

// ToolContext provides execution context for tool calls within one run.
type ToolContext struct {
	// WorkDir is the repository working directory tools operate on.
	WorkDir string

	// Repo is the read-only Git facade backing the git_* tools.
	Repo *repository.Repository

	// Workspace is the in-memory scratch state backing the workspace
	// tool. Nil when AllowWorkspace is false.
	Workspace *Workspace

	// Permissions defines what operations are allowed.
	Permissions Permissions

	// Delegate runs parallel_analyze sub-agents. Nil for a sub-agent's
	// own context, since delegation never nests.
	Delegate Delegator

	// Env contains environment variables surfaced to tools that need
	// them (none of the core tools do today; kept for parity with the
	// capability loader's future needs).
	Env map[string]string
}

// NewToolContext creates a tool context rooted at workDir, backed by repo.
func NewToolContext(workDir string, repo *repository.Repository) *ToolContext {
	return &ToolContext{
		WorkDir:     workDir,
		Repo:        repo,
		Permissions: DefaultPermissions(),
		Env:         make(map[string]string),
	}
}

// WithPermissions sets the permissions and returns the context for chaining.
func (c *ToolContext) WithPermissions(p Permissions) *ToolContext {
	c.Permissions = p
	return c
}

// WithWorkspace attaches a workspace and returns the context for chaining.
func (c *ToolContext) WithWorkspace(w *Workspace) *ToolContext {
	c.Workspace = w
	return c
}

// WithDelegate attaches a sub-agent dispatcher and returns the context for
// chaining.
func (c *ToolContext) WithDelegate(d Delegator) *ToolContext {
	c.Delegate = d
	return c
}

// ForSubAgent derives a restricted context for a parallel_analyze
// sub-agent: same repository view, no delegation, no workspace.
func (c *ToolContext) ForSubAgent() *ToolContext {
	return &ToolContext{
		WorkDir:     c.WorkDir,
		Repo:        c.Repo,
		Permissions: SubAgentPermissions(),
		Env:         c.Env,
	}
}

// ValidatePath checks if the given path is within the working directory.
// Returns the cleaned absolute path if valid, or an error if the path
// escapes the working directory.
func (c *ToolContext) ValidatePath(path string) (string, error) {
	if c.WorkDir == "" {
		return "", ErrNoWorkDir
	}

	var absPath string
	if filepath.IsAbs(path) {
		absPath = filepath.Clean(path)
	} else {
		absPath = filepath.Clean(filepath.Join(c.WorkDir, path))
	}

	absWorkDir, err := filepath.Abs(c.WorkDir)
	if err != nil {
		return "", err
	}
	absWorkDir = filepath.Clean(absWorkDir)

	rel, err := filepath.Rel(absWorkDir, absPath)
	if err != nil {
		return "", ErrPathOutsideWorkDir
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathOutsideWorkDir
	}

	return absPath, nil
}

// ResolvePath resolves a path relative to the working directory without
// checking that it exists.
func (c *ToolContext) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(c.WorkDir, path))
}

// FileExists checks if a file exists at the given path.
func (c *ToolContext) FileExists(path string) bool {
	absPath, err := c.ValidatePath(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(absPath)
	return err == nil
}

// IsDir checks if the path is a directory.
func (c *ToolContext) IsDir(path string) bool {
	absPath, err := c.ValidatePath(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// toolError is a const-comparable error type for the tool package's
// sentinel failures.
type toolError string

func (e toolError) Error() string { return string(e) }

const (
	ErrNoWorkDir            toolError = "working directory not set"
	ErrPathOutsideWorkDir   toolError = "path is outside working directory"
	ErrDelegationNotAllowed toolError = "parallel_analyze is not available to a sub-agent"
	ErrWorkspaceNotAllowed  toolError = "workspace tool is not available to a sub-agent"
)

// CheckDelegation checks if parallel_analyze may be invoked.
func (c *ToolContext) CheckDelegation() error {
	if !c.Permissions.AllowDelegation {
		return ErrDelegationNotAllowed
	}
	return nil
}

// CheckWorkspace checks if the workspace tool may be invoked.
func (c *ToolContext) CheckWorkspace() error {
	if !c.Permissions.AllowWorkspace {
		return ErrWorkspaceNotAllowed
	}
	if c.Workspace == nil {
		return ErrWorkspaceNotAllowed
	}
	return nil
}
