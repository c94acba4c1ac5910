package shellcmd

import (
	"context"
	"fmt"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
	"github.com/jvcostta/hiring-challenge-alpha/internal/sources/command"
)

// Tool exposes the command execution provider to the tool-calling loop.
// It is interactive: execution blocks on the user's approval prompt.
type Tool struct {
	provider *command.Provider
}

// New creates the execute_command tool
func New(provider *command.Provider) *Tool {
	return &Tool{provider: provider}
}

func (t *Tool) Name() string {
	return "execute_command"
}

func (t *Tool) Description() string {
	return t.provider.Description()
}

// Interactive exempts this tool from the executor's call timeout and keeps
// only one approval pending at a time.
func (t *Tool) Interactive() bool {
	return true
}

func (t *Tool) Parameters() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"question": {
				Type:        "string",
				Description: "The live-data question to answer by running a command",
			},
			"command": {
				Type:        "string",
				Description: "Optional explicit command line to run instead of deriving one from the question. Subject to the same safety checks.",
			},
		},
		Required: []string{"question"},
	}
}

func (t *Tool) Execute(ctx context.Context, args map[string]any) (any, error) {
	question, ok := args["question"].(string)
	if !ok || question == "" {
		return nil, fmt.Errorf("question parameter is required and must be a non-empty string")
	}

	if cmd, ok := args["command"].(string); ok && cmd != "" {
		return t.provider.RunCommand(ctx, cmd)
	}

	return t.provider.Run(ctx, question)
}
