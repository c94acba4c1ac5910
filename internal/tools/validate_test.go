package tools

import (
	"strings"
	"testing"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
)

func testSchema() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"question": {Type: "string"},
			"limit":    {Type: "integer"},
			"verbose":  {Type: "boolean"},
			"tags":     {Type: "array", Items: &llm.Property{Type: "string"}},
			"options":  {Type: "object"},
		},
		Required: []string{"question"},
	}
}

func TestValidateArgs(t *testing.T) {
	cases := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{"valid minimal", map[string]any{"question": "hi"}, ""},
		{"valid full", map[string]any{
			"question": "hi",
			"limit":    float64(5), // JSON numbers decode as float64
			"verbose":  true,
			"tags":     []any{"a", "b"},
			"options":  map[string]any{"k": "v"},
		}, ""},
		{"missing required", map[string]any{"limit": float64(1)}, "missing required parameter"},
		{"unknown parameter", map[string]any{"question": "hi", "nope": 1}, "unknown parameter"},
		{"wrong string type", map[string]any{"question": 42}, "expected string"},
		{"wrong bool type", map[string]any{"question": "hi", "verbose": "yes"}, "expected boolean"},
		{"wrong array element", map[string]any{"question": "hi", "tags": []any{"a", 1}}, "expected string"},
		{"nil value skipped", map[string]any{"question": "hi", "limit": nil}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateArgs(testSchema(), tc.args)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateArgs() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("ValidateArgs() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}
