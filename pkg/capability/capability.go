// Package capability loads the task descriptors that drive an agent
// invocation: a name, a human description, the expected output type, and
// the task prompt handed to the model.
package capability

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed definitions/*.yaml
var embedded embed.FS

// Capability is an immutable task descriptor. Once loaded it is never
// mutated; its lifetime is the process.
type Capability struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	OutputType  string `yaml:"output_type"`
	TaskPrompt  string `yaml:"task_prompt"`
}

// Registry holds the set of capabilities available to the agent runtime,
// keyed by name.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{capabilities: make(map[string]Capability)}
}

// Add registers a capability, rejecting duplicate names.
func (r *Registry) Add(c Capability) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("capability: name is required")
	}
	if strings.TrimSpace(c.OutputType) == "" {
		return fmt.Errorf("capability %q: output_type is required", c.Name)
	}
	if strings.TrimSpace(c.TaskPrompt) == "" {
		return fmt.Errorf("capability %q: task_prompt is required", c.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.capabilities[c.Name]; exists {
		return fmt.Errorf("capability %q already registered", c.Name)
	}
	r.capabilities[c.Name] = c
	return nil
}

// Get looks up a capability by name.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.capabilities[name]
	return c, ok
}

// Names returns all registered capability names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	return names
}

// Load parses a single YAML capability descriptor.
func Load(data []byte) (Capability, error) {
	var c Capability
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Capability{}, fmt.Errorf("parse capability descriptor: %w", err)
	}
	if strings.TrimSpace(c.Name) == "" {
		return Capability{}, fmt.Errorf("capability descriptor missing name")
	}
	if strings.TrimSpace(c.OutputType) == "" {
		return Capability{}, fmt.Errorf("capability %q missing output_type", c.Name)
	}
	if strings.TrimSpace(c.TaskPrompt) == "" {
		return Capability{}, fmt.Errorf("capability %q missing task_prompt", c.Name)
	}
	return c, nil
}

// MustLoad parses a capability descriptor and panics on error. Intended for
// use with the embedded, build-time-verified descriptors below.
func MustLoad(data []byte) Capability {
	c, err := Load(data)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadEmbedded builds a Registry from the descriptors embedded in
// definitions/*.yaml — the five capabilities Git-Iris ships out of the box.
func LoadEmbedded() (*Registry, error) {
	reg := NewRegistry()
	entries, err := fs.ReadDir(embedded, "definitions")
	if err != nil {
		return nil, fmt.Errorf("read embedded capability definitions: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(embedded, "definitions/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		cap, err := Load(data)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		if err := reg.Add(cap); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// MustLoadEmbedded is LoadEmbedded that panics on error; used at process
// start where a malformed embedded descriptor is a programmer error.
func MustLoadEmbedded() *Registry {
	reg, err := LoadEmbedded()
	if err != nil {
		panic(err)
	}
	return reg
}
