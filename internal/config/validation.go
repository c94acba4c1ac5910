package config

import (
	"fmt"
	"os"
)

// ValidateAPIKeys validates that the required API key is set for the given
// model configuration. Returns an error with setup guidance if not.
func ValidateAPIKeys(mc ModelConfig) error {
	switch mc.Provider {
	case "claude":
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required for Claude provider")
		}
	case "gemini":
		if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			return fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY environment variable is required for Gemini provider")
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %s (supported: claude, gemini)", mc.Provider)
	}
	return nil
}
