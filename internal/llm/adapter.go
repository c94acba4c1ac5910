package llm

import "context"

// Adapter is the interface for LLM providers (Claude, Gemini).
// The agent is provider-agnostic; it only needs "send conversation,
// receive either text or structured tool invocation requests".
type Adapter interface {
	// Chat sends a chat request and returns a response
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest represents a request to the LLM
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
	MaxTokens    int
}

// ChatResponse represents a response from the LLM
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     TokenUsage
}

// Message represents one turn in the conversation
type Message struct {
	Role         string     // "user", "assistant"
	Content      string     // Text content
	ToolCalls    []ToolCall // For assistant messages: the tool calls made
	ToolResultID string     // For tool result messages: references the tool call ID
	ToolName     string     // For tool result messages: the tool name (needed by Gemini)
	IsError      bool       // For tool result messages: whether the result is an error
}

// ToolDefinition describes a capability available to the LLM
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  ParameterSchema
}

// ParameterSchema defines the structure of tool parameters
type ParameterSchema struct {
	Type       string
	Properties map[string]Property
	Required   []string
}

// Property defines a single parameter property
type Property struct {
	Type        string
	Description string
	Items       *Property // For array types: describes array items
}

// ToolCall represents a structured tool invocation requested by the LLM
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
