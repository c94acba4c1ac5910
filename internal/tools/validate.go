package tools

import (
	"fmt"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
)

// ValidateArgs checks a tool invocation's arguments against the declared
// parameter schema before dispatch. Malformed invocations are rejected and
// reported instead of being forwarded into a provider.
func ValidateArgs(schema llm.ParameterSchema, args map[string]any) error {
	for _, required := range schema.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("missing required parameter %q", required)
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok {
			return fmt.Errorf("unknown parameter %q", name)
		}
		if value == nil {
			continue
		}
		if err := checkType(prop, value); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
	}

	return nil
}

func checkType(prop llm.Property, value any) error {
	switch prop.Type {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number", "integer":
		switch value.(type) {
		case float64, float32, int, int32, int64:
		default:
			return fmt.Errorf("expected %s, got %T", prop.Type, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "array":
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
		if prop.Items != nil {
			for i, item := range items {
				if err := checkType(*prop.Items, item); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	}
	return nil
}
