package builtin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCodeSearchTool_FindsLiteral(t *testing.T) {
	dir := initTestRepo(t)
	result, err := CodeSearchTool{}.Execute(context.Background(), newTestContext(t, dir), map[string]any{"pattern": "package main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", result.Content)
	}
}

func TestCodeSearchTool_RequiresPattern(t *testing.T) {
	dir := initTestRepo(t)
	result, _ := CodeSearchTool{}.Execute(context.Background(), newTestContext(t, dir), map[string]any{})
	if !result.IsError {
		t.Fatal("expected error when pattern is missing")
	}
}

func TestCodeSearchTool_DefaultsContextLinesToTwo(t *testing.T) {
	dir := initTestRepo(t)
	content := "package main\n\nfunc before() {}\n\nfunc target() {}\n\nfunc after() {}\n"
	if err := os.WriteFile(filepath.Join(dir, "code.go"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := CodeSearchTool{}.Execute(context.Background(), newTestContext(t, dir), map[string]any{"pattern": "func target"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Content, "func before()") || !strings.Contains(result.Content, "func after()") {
		t.Fatalf("expected default context_lines=2 to pull in surrounding lines, got %q", result.Content)
	}
}

func TestCodeSearchTool_ExplicitContextLinesZero(t *testing.T) {
	dir := initTestRepo(t)
	content := "package main\n\nfunc before() {}\n\nfunc target() {}\n\nfunc after() {}\n"
	if err := os.WriteFile(filepath.Join(dir, "code.go"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := CodeSearchTool{}.Execute(context.Background(), newTestContext(t, dir), map[string]any{
		"pattern": "func target", "context_lines": float64(0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(result.Content, "func before()") {
		t.Fatalf("expected context_lines=0 to omit surrounding lines, got %q", result.Content)
	}
}

func TestProjectDocsTool_ReturnsReadme(t *testing.T) {
	dir := initTestRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := ProjectDocsTool{}.Execute(context.Background(), newTestContext(t, dir), map[string]any{"doc_type": "readme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Content, "# Hello") {
		t.Fatalf("expected README.md content, got %q", result.Content)
	}
}

func TestProjectDocsTool_NoDocsFound(t *testing.T) {
	dir := initTestRepo(t)
	result, err := ProjectDocsTool{}.Execute(context.Background(), newTestContext(t, dir), map[string]any{"doc_type": "context"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "No project documentation found" {
		t.Fatalf("expected no docs message, got %q", result.Content)
	}
}

func TestProjectDocsTool_MissingSingleDocReportsNotFound(t *testing.T) {
	dir := initTestRepo(t)
	result, err := ProjectDocsTool{}.Execute(context.Background(), newTestContext(t, dir), map[string]any{"doc_type": "agents"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "AGENTS.md: not found" {
		t.Fatalf("expected not-found text, got %q", result.Content)
	}
}

func TestProjectDocsTool_ContextConcatenatesAvailableDocs(t *testing.T) {
	dir := initTestRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "AGENTS.md"), []byte("Agent notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := ProjectDocsTool{}.Execute(context.Background(), newTestContext(t, dir), map[string]any{"doc_type": "context"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Content, "# Hello") || !strings.Contains(result.Content, "Agent notes") {
		t.Fatalf("expected both docs concatenated, got %q", result.Content)
	}
}
