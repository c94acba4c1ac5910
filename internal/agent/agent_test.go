package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
	"github.com/jvcostta/hiring-challenge-alpha/internal/tools"
)

// mockLLM replays canned responses in order
type mockLLM struct {
	responses []*llm.ChatResponse
	callCount int
	lastReq   *llm.ChatRequest
}

func (m *mockLLM) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.lastReq = &req

	if m.callCount >= len(m.responses) {
		return nil, errors.New("no more mock responses")
	}

	resp := m.responses[m.callCount]
	m.callCount++
	return resp, nil
}

// echoTool is a trivial tool for loop tests
type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "Echoes the message back" }

func (echoTool) Parameters() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"message": {Type: "string", Description: "text to echo"},
		},
		Required: []string{"message"},
	}
}

func (echoTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	return args["message"], nil
}

func newTestAgent(mock *mockLLM, register ...tools.Tool) *Agent {
	registry := tools.NewRegistry()
	for _, tool := range register {
		registry.Register(tool)
	}
	executor := tools.NewExecutor(registry)
	return New(mock, executor, registry)
}

func TestProcessMessage_DirectAnswer(t *testing.T) {
	mock := &mockLLM{
		responses: []*llm.ChatResponse{
			{Content: "Hello! How can I help you?"},
		},
	}
	agent := newTestAgent(mock)

	session := NewSession()
	response := agent.ProcessMessage(context.Background(), session, "Hello")

	if response != "Hello! How can I help you?" {
		t.Errorf("ProcessMessage() = %q, want direct answer", response)
	}

	if len(session.Messages) != 2 {
		t.Errorf("Session has %d messages, want 2", len(session.Messages))
	}
	if session.Messages[0].Role != "user" || session.Messages[0].Content != "Hello" {
		t.Errorf("First message = %+v, want user message 'Hello'", session.Messages[0])
	}
	if session.Messages[1].Role != "assistant" {
		t.Errorf("Second message role = %s, want assistant", session.Messages[1].Role)
	}

	if !strings.Contains(mock.lastReq.SystemPrompt, "Never invent data") {
		t.Errorf("system prompt missing ground rules: %q", mock.lastReq.SystemPrompt)
	}
}

func TestProcessMessage_WithToolCall(t *testing.T) {
	mock := &mockLLM{
		responses: []*llm.ChatResponse{
			{
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: "echo", Args: map[string]any{"message": "test message"}},
				},
			},
			{Content: "I echoed your message!"},
		},
	}
	agent := newTestAgent(mock, echoTool{})

	session := NewSession()
	response := agent.ProcessMessage(context.Background(), session, "Echo 'test message'")

	if response != "I echoed your message!" {
		t.Errorf("ProcessMessage() = %q, want final answer after tool call", response)
	}
	if mock.callCount != 2 {
		t.Errorf("LLM was called %d times, want 2", mock.callCount)
	}

	// History must contain the tool result turn linked to the call ID
	found := false
	for _, msg := range session.Messages {
		if msg.ToolResultID == "call-1" && msg.Content == "test message" {
			found = true
		}
	}
	if !found {
		t.Error("session missing tool result turn for call-1")
	}
}

func TestProcessMessage_MultipleToolCalls(t *testing.T) {
	mock := &mockLLM{
		responses: []*llm.ChatResponse{
			{
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: "echo", Args: map[string]any{"message": "first"}},
					{ID: "call-2", Name: "echo", Args: map[string]any{"message": "second"}},
				},
			},
			{Content: "Done!"},
		},
	}
	agent := newTestAgent(mock, echoTool{})

	session := NewSession()
	response := agent.ProcessMessage(context.Background(), session, "Test")

	if response != "Done!" {
		t.Errorf("ProcessMessage() = %q, want %q", response, "Done!")
	}

	toolResultCount := 0
	for _, msg := range session.Messages {
		if msg.ToolResultID != "" {
			toolResultCount++
		}
	}
	if toolResultCount != 2 {
		t.Errorf("Session has %d tool results, want 2", toolResultCount)
	}
}

func TestProcessMessage_LLMErrorBecomesApology(t *testing.T) {
	mock := &mockLLM{} // no responses: Chat always errors
	agent := newTestAgent(mock)

	session := NewSession()
	response := agent.ProcessMessage(context.Background(), session, "Hello")

	if !strings.HasPrefix(response, "Sorry,") {
		t.Errorf("ProcessMessage() = %q, want apologetic failure text", response)
	}
}

func TestProcessMessage_ToolNotFoundHandledGracefully(t *testing.T) {
	mock := &mockLLM{
		responses: []*llm.ChatResponse{
			{
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: "nonexistent_tool", Args: map[string]any{}},
				},
			},
			// The model sees the error turn and answers anyway
			{Content: "Sorry, that tool doesn't exist"},
		},
	}
	agent := newTestAgent(mock)

	session := NewSession()
	response := agent.ProcessMessage(context.Background(), session, "Test")

	if response != "Sorry, that tool doesn't exist" {
		t.Errorf("ProcessMessage() = %q, want model's recovery answer", response)
	}

	hasErrorTurn := false
	for _, msg := range session.Messages {
		if msg.IsError && strings.Contains(msg.Content, "tool not found") {
			hasErrorTurn = true
		}
	}
	if !hasErrorTurn {
		t.Error("session should contain the tool error as an error turn")
	}
	if mock.callCount != 2 {
		t.Errorf("LLM was called %d times, want 2", mock.callCount)
	}
}

func TestProcessMessage_DeniedCommandAcknowledged(t *testing.T) {
	// A user-declined command comes back as a normal tool result, which the
	// model acknowledges without retrying.
	mock := &mockLLM{
		responses: []*llm.ChatResponse{
			{
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: "echo", Args: map[string]any{"message": "Command execution was cancelled by the user."}},
				},
			},
			{Content: "Understood, I won't run that command."},
		},
	}
	agent := newTestAgent(mock, echoTool{})

	session := NewSession()
	response := agent.ProcessMessage(context.Background(), session, "What's the weather?")

	if response != "Understood, I won't run that command." {
		t.Errorf("ProcessMessage() = %q, want acknowledgement", response)
	}

	for _, msg := range session.Messages {
		if msg.ToolResultID == "call-1" && msg.IsError {
			t.Error("a denied command is a normal outcome, not an error turn")
		}
	}
}

func TestProcessMessage_IterationCap(t *testing.T) {
	responses := make([]*llm.ChatResponse, maxIterations+3)
	for i := range responses {
		responses[i] = &llm.ChatResponse{
			ToolCalls: []llm.ToolCall{
				{ID: "call-1", Name: "echo", Args: map[string]any{"message": "loop"}},
			},
		}
	}
	mock := &mockLLM{responses: responses}
	agent := newTestAgent(mock, echoTool{})

	session := NewSession()
	response := agent.ProcessMessage(context.Background(), session, "Test")

	if !strings.Contains(response, "could not settle on an answer") {
		t.Errorf("ProcessMessage() = %q, want iteration-cap text", response)
	}
	if mock.callCount != maxIterations {
		t.Errorf("LLM was called %d times, want %d", mock.callCount, maxIterations)
	}
}

func TestProcessMessage_ContextCancellation(t *testing.T) {
	mock := &mockLLM{
		responses: []*llm.ChatResponse{{Content: "Response"}},
	}
	agent := newTestAgent(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := NewSession()
	response := agent.ProcessMessage(ctx, session, "Test")

	if response != "Request cancelled." {
		t.Errorf("ProcessMessage() = %q, want cancellation text", response)
	}
}

func TestProcessMessage_ToolDefinitionsIncluded(t *testing.T) {
	mock := &mockLLM{
		responses: []*llm.ChatResponse{{Content: "Done"}},
	}
	agent := newTestAgent(mock, echoTool{})

	session := NewSession()
	agent.ProcessMessage(context.Background(), session, "Test")

	if len(mock.lastReq.Tools) != 1 {
		t.Fatalf("LLM received %d tools, want 1", len(mock.lastReq.Tools))
	}
	if mock.lastReq.Tools[0].Name != "echo" {
		t.Errorf("LLM received tool %q, want 'echo'", mock.lastReq.Tools[0].Name)
	}
}

func TestSession_TokenTracking(t *testing.T) {
	mock := &mockLLM{
		responses: []*llm.ChatResponse{
			{
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: "echo", Args: map[string]any{"message": "x"}},
				},
				Usage: llm.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
			},
			{
				Content: "Done",
				Usage:   llm.TokenUsage{InputTokens: 20, OutputTokens: 8, TotalTokens: 28},
			},
		},
	}
	agent := newTestAgent(mock, echoTool{})

	session := NewSession()
	agent.ProcessMessage(context.Background(), session, "Test")

	if session.RunLLMCalls != 2 {
		t.Errorf("RunLLMCalls = %d, want 2", session.RunLLMCalls)
	}
	if session.RunTokens != 43 {
		t.Errorf("RunTokens = %d, want 43", session.RunTokens)
	}
	if session.TotalTokens != 43 {
		t.Errorf("TotalTokens = %d, want 43", session.TotalTokens)
	}
}

func TestSession_Pruning(t *testing.T) {
	session := NewSession()
	session.MaxMessages = 20

	for i := 0; i < 30; i++ {
		session.AddMessage(llm.Message{Role: "user", Content: "m"})
	}

	if len(session.Messages) > 20 {
		t.Errorf("session grew to %d messages despite MaxMessages=20", len(session.Messages))
	}
}

func TestSession_PruningTinyLimit(t *testing.T) {
	// A limit below the 10-message floor must not panic when the history
	// is still shorter than the floor.
	session := NewSession()
	session.MaxMessages = 5

	for i := 0; i < 12; i++ {
		session.AddMessage(llm.Message{Role: "user", Content: "m"})
	}

	if len(session.Messages) > 10 {
		t.Errorf("session holds %d messages, want at most the 10-message floor", len(session.Messages))
	}
}

func TestSwitchModel(t *testing.T) {
	first := &mockLLM{responses: []*llm.ChatResponse{{Content: "from first"}}}
	second := &mockLLM{responses: []*llm.ChatResponse{{Content: "from second"}}}

	registry := tools.NewRegistry()
	executor := tools.NewExecutor(registry)
	agent := New(first, executor, registry,
		WithCurrentModelName("first"),
		WithAdapterFactory(func(ctx context.Context, provider, model string) (llm.Adapter, error) {
			return second, nil
		}),
	)

	if agent.CurrentModelName() != "first" {
		t.Errorf("CurrentModelName() = %q, want first", agent.CurrentModelName())
	}

	if err := agent.SwitchModel(context.Background(), "claude", "claude-x", "second"); err != nil {
		t.Fatalf("SwitchModel() returned error: %v", err)
	}
	if agent.CurrentModelName() != "second" {
		t.Errorf("CurrentModelName() = %q, want second", agent.CurrentModelName())
	}

	response := agent.ProcessMessage(context.Background(), NewSession(), "hi")
	if response != "from second" {
		t.Errorf("ProcessMessage() after switch = %q, want answer from second adapter", response)
	}
}

func TestSwitchModel_NoFactory(t *testing.T) {
	agent := newTestAgent(&mockLLM{})
	if err := agent.SwitchModel(context.Background(), "claude", "m", "m"); err == nil {
		t.Error("SwitchModel() without factory should fail")
	}
}
