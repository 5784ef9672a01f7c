package capability

import "testing"

func TestLoadValidDescriptor(t *testing.T) {
	data := []byte("name: commit\ndescription: Generate a commit message.\noutput_type: generated_message\ntask_prompt: Write a commit message.\n")
	c, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Name != "commit" || c.OutputType != "generated_message" {
		t.Errorf("c = %+v, missing expected fields", c)
	}
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing name", "description: x\noutput_type: plain_text\ntask_prompt: do it\n"},
		{"missing output_type", "name: x\ntask_prompt: do it\n"},
		{"missing task_prompt", "name: x\noutput_type: plain_text\n"},
		{"invalid yaml", "name: [unterminated\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.data)); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestRegistryAddRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	c := Capability{Name: "commit", OutputType: "generated_message", TaskPrompt: "x"}
	if err := reg.Add(c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Add(c); err == nil {
		t.Error("Add() expected error on duplicate name, got nil")
	}
}

func TestRegistryAddRejectsMissingFields(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(Capability{OutputType: "x", TaskPrompt: "y"}); err == nil {
		t.Error("Add() expected error for missing name, got nil")
	}
	if err := reg.Add(Capability{Name: "x", TaskPrompt: "y"}); err == nil {
		t.Error("Add() expected error for missing output_type, got nil")
	}
	if err := reg.Add(Capability{Name: "x", OutputType: "y"}); err == nil {
		t.Error("Add() expected error for missing task_prompt, got nil")
	}
}

func TestRegistryGetAndNames(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(Capability{Name: "review", OutputType: "markdown_review", TaskPrompt: "review it"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	c, ok := reg.Get("review")
	if !ok || c.OutputType != "markdown_review" {
		t.Errorf("Get(\"review\") = %+v, %v", c, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("Get(\"missing\") returned ok=true")
	}

	names := reg.Names()
	if len(names) != 1 || names[0] != "review" {
		t.Errorf("Names() = %v, want [review]", names)
	}
}

func TestLoadEmbeddedHasAllFiveCapabilities(t *testing.T) {
	reg, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}
	want := []string{"commit", "review", "pr", "changelog", "release-notes"}
	for _, name := range want {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("LoadEmbedded() registry missing capability %q", name)
		}
	}
}

func TestMustLoadEmbeddedDoesNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoadEmbedded() panicked: %v", r)
		}
	}()
	MustLoadEmbedded()
}

func TestMustLoadPanicsOnInvalidDescriptor(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustLoad() expected a panic for an invalid descriptor")
		}
	}()
	MustLoad([]byte("not: valid\n"))
}
