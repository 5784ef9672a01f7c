package tools

import (
	"os"
	"path/filepath"
	"testing"
)

func TestToolContextValidatePath(t *testing.T) {
	tmpDir := t.TempDir()

	ctx := NewToolContext(tmpDir, nil)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative path", "subdir/file.txt", false},
		{"current dir", ".", false},
		{"parent escape", "../outside", true},
		{"absolute in workdir", filepath.Join(tmpDir, "file.txt"), false},
		{"absolute outside", "/etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ctx.ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestToolContextValidatePathNoWorkDir(t *testing.T) {
	ctx := &ToolContext{}

	_, err := ctx.ValidatePath("file.txt")
	if err != ErrNoWorkDir {
		t.Errorf("expected ErrNoWorkDir, got %v", err)
	}
}

func TestToolContextPermissions(t *testing.T) {
	ctx := NewToolContext("/tmp", nil)

	if err := ctx.CheckDelegation(); err != nil {
		t.Errorf("CheckDelegation() = %v, want nil for a top-level run", err)
	}

	ctx.WithPermissions(SubAgentPermissions())

	if err := ctx.CheckDelegation(); err != ErrDelegationNotAllowed {
		t.Errorf("CheckDelegation() = %v, want ErrDelegationNotAllowed", err)
	}
	if err := ctx.CheckWorkspace(); err != ErrWorkspaceNotAllowed {
		t.Errorf("CheckWorkspace() = %v, want ErrWorkspaceNotAllowed", err)
	}
}

func TestToolContextForSubAgentDeniesDelegationAndWorkspace(t *testing.T) {
	parent := NewToolContext("/tmp", nil).WithWorkspace(NewWorkspace())
	child := parent.ForSubAgent()

	if err := child.CheckDelegation(); err != ErrDelegationNotAllowed {
		t.Errorf("sub-agent CheckDelegation() = %v, want ErrDelegationNotAllowed", err)
	}
	if err := child.CheckWorkspace(); err != ErrWorkspaceNotAllowed {
		t.Errorf("sub-agent CheckWorkspace() = %v, want ErrWorkspaceNotAllowed", err)
	}
	if child.WorkDir != parent.WorkDir {
		t.Errorf("sub-agent WorkDir = %q, want %q", child.WorkDir, parent.WorkDir)
	}
}

func TestToolContextFileExists(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "exists.txt")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	ctx := NewToolContext(tmpDir, nil)

	if !ctx.FileExists("exists.txt") {
		t.Error("FileExists() = false for existing file")
	}
	if ctx.FileExists("nonexistent.txt") {
		t.Error("FileExists() = true for nonexistent file")
	}
}

func TestToolContextIsDir(t *testing.T) {
	tmpDir := t.TempDir()

	testDir := filepath.Join(tmpDir, "subdir")
	if err := os.Mkdir(testDir, 0o755); err != nil {
		t.Fatalf("failed to create test dir: %v", err)
	}
	testFile := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	ctx := NewToolContext(tmpDir, nil)

	if !ctx.IsDir("subdir") {
		t.Error("IsDir() = false for directory")
	}
	if ctx.IsDir("file.txt") {
		t.Error("IsDir() = true for file")
	}
}

func TestToolContextChaining(t *testing.T) {
	ws := NewWorkspace()
	ctx := NewToolContext("/tmp", nil).
		WithPermissions(DefaultPermissions()).
		WithWorkspace(ws)

	if ctx.Workspace != ws {
		t.Error("WithWorkspace did not attach the workspace")
	}
	if !ctx.Permissions.AllowWorkspace {
		t.Error("expected AllowWorkspace after WithPermissions(DefaultPermissions())")
	}
}
