package tools

import (
	"context"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
)

// Tool represents one capability the LLM can invoke
type Tool interface {
	// Name returns the tool's unique name
	Name() string

	// Description returns a description the model uses to decide applicability
	Description() string

	// Parameters returns the declared parameter schema
	Parameters() llm.ParameterSchema

	// Execute runs the tool with validated arguments
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// Interactive marks tools that block on user input (approval prompts).
// The executor exempts them from the default call timeout and never runs
// more than one of them concurrently.
type Interactive interface {
	Interactive() bool
}

func isInteractive(t Tool) bool {
	if i, ok := t.(Interactive); ok {
		return i.Interactive()
	}
	return false
}
