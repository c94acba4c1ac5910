package tools

import (
	"fmt"
	"sort"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
)

// Registry manages available tools
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// Names returns the registered tool names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToDefinitions converts all registered tools to LLM tool definitions
func (r *Registry) ToDefinitions() []llm.ToolDefinition {
	definitions := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, name := range r.Names() {
		tool := r.tools[name]
		definitions = append(definitions, llm.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return definitions
}
