package docsearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
	"github.com/jvcostta/hiring-challenge-alpha/internal/sources/documents"
)

// NoResultsMessage is the explicit found-nothing signal, distinct from a
// search failure, so the model can tell the two apart.
const NoResultsMessage = "No relevant information found in the documents."

// Tool exposes the document search provider to the tool-calling loop
type Tool struct {
	provider *documents.Provider
}

// New creates the search_documents tool
func New(provider *documents.Provider) *Tool {
	return &Tool{provider: provider}
}

func (t *Tool) Name() string {
	return "search_documents"
}

func (t *Tool) Description() string {
	return t.provider.Description()
}

func (t *Tool) Parameters() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"question": {
				Type:        "string",
				Description: "The question to find relevant document excerpts for",
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

	results, err := t.provider.Search(ctx, question)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return NoResultsMessage, nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]\n%s", r.Document, r.Snippet)
	}
	return b.String(), nil
}
