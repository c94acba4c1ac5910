package llmfactory

import (
	"context"
	"fmt"

	"github.com/jvcostta/hiring-challenge-alpha/internal/config"
	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
	"github.com/jvcostta/hiring-challenge-alpha/internal/llm/claude"
	"github.com/jvcostta/hiring-challenge-alpha/internal/llm/gemini"
)

// NewAdapter creates an llm.Adapter from a ModelConfig.
// The required API key environment variable is validated before the
// provider client is constructed.
func NewAdapter(ctx context.Context, mc config.ModelConfig) (llm.Adapter, error) {
	if err := config.ValidateAPIKeys(mc); err != nil {
		return nil, err
	}

	switch mc.Provider {
	case "claude":
		return claude.NewClient(mc.Model)
	case "gemini":
		return gemini.NewClient(ctx, mc.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q (supported: claude, gemini)", mc.Provider)
	}
}
