package agent

import "github.com/jvcostta/hiring-challenge-alpha/internal/llm"

// Session holds the conversation history across questions, so follow-ups
// like "and how many of those are from the 90s?" resolve against earlier
// turns.
type Session struct {
	Messages []llm.Message

	// Token usage tracking
	TotalInputTokens  int
	TotalOutputTokens int
	TotalTokens       int

	// Per-question tracking, reset at the start of each ProcessMessage
	RunInputTokens  int
	RunOutputTokens int
	RunTokens       int
	RunLLMCalls     int

	// MaxMessages bounds history growth. When 0, no limit is applied.
	MaxMessages int
}

// NewSession creates a new session with empty conversation history
func NewSession() *Session {
	return &Session{
		Messages: make([]llm.Message, 0),
	}
}

// AddMessage appends a message, pruning the oldest turns once MaxMessages
// is exceeded. Pruning keeps the most recent half so context survives.
func (s *Session) AddMessage(message llm.Message) {
	s.Messages = append(s.Messages, message)

	if s.MaxMessages > 0 && len(s.Messages) > s.MaxMessages {
		keepCount := s.MaxMessages / 2
		if keepCount < 10 {
			keepCount = 10
		}
		if keepCount > len(s.Messages) {
			keepCount = len(s.Messages)
		}
		s.Messages = s.Messages[len(s.Messages)-keepCount:]
	}
}

// AddMessages appends multiple messages to the conversation history
func (s *Session) AddMessages(messages []llm.Message) {
	s.Messages = append(s.Messages, messages...)
}

// Clear discards the conversation history
func (s *Session) Clear() {
	s.Messages = make([]llm.Message, 0)
}

// ResetRunStats resets per-question token tracking
func (s *Session) ResetRunStats() {
	s.RunInputTokens = 0
	s.RunOutputTokens = 0
	s.RunTokens = 0
	s.RunLLMCalls = 0
}

// AddTokenUsage accumulates token usage from one LLM response
func (s *Session) AddTokenUsage(usage llm.TokenUsage) {
	s.RunInputTokens += usage.InputTokens
	s.RunOutputTokens += usage.OutputTokens
	s.RunTokens += usage.TotalTokens
	s.RunLLMCalls++

	s.TotalInputTokens += usage.InputTokens
	s.TotalOutputTokens += usage.OutputTokens
	s.TotalTokens += usage.TotalTokens
}
