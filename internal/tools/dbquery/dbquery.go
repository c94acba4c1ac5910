package dbquery

import (
	"context"
	"fmt"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
	"github.com/jvcostta/hiring-challenge-alpha/internal/sources/database"
)

// Tool exposes the database provider to the tool-calling loop
type Tool struct {
	provider *database.Provider
}

// New creates the query_database tool
func New(provider *database.Provider) *Tool {
	return &Tool{provider: provider}
}

func (t *Tool) Name() string {
	return "query_database"
}

// Description includes the introspected schema so the model can reference
// table and column names accurately.
func (t *Tool) Description() string {
	return t.provider.Description()
}

func (t *Tool) Parameters() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"question": {
				Type:        "string",
				Description: "The data question to answer from the database, in natural language",
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

	return t.provider.Query(ctx, question)
}
