package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
	"github.com/jvcostta/hiring-challenge-alpha/internal/tools"
)

const (
	// maxIterations caps the think → call tools → think loop per question.
	// Honest questions resolve in 2-3 iterations; anything hitting the cap
	// is stuck.
	maxIterations = 6

	// llmCallTimeout bounds a single model round-trip
	llmCallTimeout = 2 * time.Minute
)

// AdapterFactory creates a new LLM adapter for the given provider and model.
// Used by SwitchModel to hot-swap the underlying LLM without restarting.
type AdapterFactory func(ctx context.Context, provider, model string) (llm.Adapter, error)

// Option configures optional Agent settings.
type Option func(*Agent)

// WithAdapterFactory sets the adapter factory for hot-swapping models.
func WithAdapterFactory(f AdapterFactory) Option {
	return func(a *Agent) { a.adapterFactory = f }
}

// WithCurrentModelName sets the display name of the active model.
func WithCurrentModelName(name string) Option {
	return func(a *Agent) { a.currentModel = name }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// Agent routes each question through the model: the model either answers
// directly or requests tool calls against the capability providers, whose
// results feed the next round until a final text answer comes back.
type Agent struct {
	mu             sync.RWMutex // protects llm and currentModel
	llm            llm.Adapter
	executor       *tools.Executor
	registry       *tools.Registry
	systemPrompt   string
	logger         *slog.Logger
	adapterFactory AdapterFactory
	currentModel   string
}

// New creates an agent over the given adapter and tool set
func New(llmAdapter llm.Adapter, executor *tools.Executor, registry *tools.Registry, opts ...Option) *Agent {
	a := &Agent{
		llm:          llmAdapter,
		executor:     executor,
		registry:     registry,
		systemPrompt: buildSystemPrompt(registry),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// buildSystemPrompt describes the available sources and the ground rules.
// Tool descriptions already carry the specifics (database schema, document
// inventory, command catalog), so the prompt stays about conduct.
func buildSystemPrompt(registry *tools.Registry) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant with access to local data sources through tools.\n\n")
	b.WriteString("Available tools: ")
	b.WriteString(strings.Join(registry.Names(), ", "))
	b.WriteString("\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Prefer tools over memory for anything the local sources can answer. ")
	b.WriteString("Use query_database for questions about the structured data, search_documents for questions about the document collection, and execute_command for live system or network facts.\n")
	b.WriteString("- Never invent data. If a tool returns nothing relevant, say so.\n")
	b.WriteString("- If the user declines a command, acknowledge the cancellation and do not retry the command.\n")
	b.WriteString("- Conversational questions that need no local data get a direct answer without tools.\n")
	b.WriteString("- Answer in the language the user writes in.\n")
	return b.String()
}

// SwitchModel hot-swaps the LLM adapter to a different provider/model.
// Requires an AdapterFactory to have been set via WithAdapterFactory.
func (a *Agent) SwitchModel(ctx context.Context, provider, model, displayName string) error {
	if a.adapterFactory == nil {
		return fmt.Errorf("no adapter factory configured; cannot switch models")
	}
	newAdapter, err := a.adapterFactory(ctx, provider, model)
	if err != nil {
		return fmt.Errorf("failed to create adapter for %s/%s: %w", provider, model, err)
	}
	a.mu.Lock()
	a.llm = newAdapter
	a.currentModel = displayName
	a.mu.Unlock()
	return nil
}

// CurrentModelName returns the display name of the active model.
func (a *Agent) CurrentModelName() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentModel
}

// ProcessMessage answers one user question. It never returns an error and
// never panics: every failure mode becomes a readable sentence, because a
// crashed chat session is worse than an apologetic one.
func (a *Agent) ProcessMessage(ctx context.Context, session *Session, userMessage string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("recovered from panic while processing message", "panic", r)
			answer = "Sorry, something went wrong while processing that question. Please try again."
		}
	}()

	answer, err := a.run(ctx, session, userMessage)
	if err == nil {
		return answer
	}

	a.logger.Error("failed to process message", "error", err)
	switch {
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "Sorry, the model took too long to respond. Please try again."
	case errors.Is(err, errMaxIterations):
		return "Sorry, I could not settle on an answer for that question. Try rephrasing it."
	default:
		return fmt.Sprintf("Sorry, I could not process that question: %v", err)
	}
}

var errMaxIterations = errors.New("iteration limit reached without a final answer")

// run executes the tool-calling loop for one question:
//  1. append the user message to history
//  2. call the model with the system prompt, tools, and history
//  3. if the model requested tool calls, execute them, feed the results
//     back as conversation turns, and loop
//  4. if the model returned plain text, that is the answer
func (a *Agent) run(ctx context.Context, session *Session, userMessage string) (string, error) {
	session.ResetRunStats()

	session.AddMessage(llm.Message{
		Role:    "user",
		Content: userMessage,
	})

	toolDefs := a.registry.ToDefinitions()

	for i := 0; i < maxIterations; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		req := llm.ChatRequest{
			SystemPrompt: a.systemPrompt,
			Messages:     session.Messages,
			Tools:        toolDefs,
		}

		resp, err := a.chat(ctx, req)
		if err != nil {
			return "", fmt.Errorf("llm chat failed: %w", err)
		}

		session.AddTokenUsage(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			if resp.Content != "" {
				session.AddMessage(llm.Message{
					Role:    "assistant",
					Content: resp.Content,
				})
			}
			return resp.Content, nil
		}

		// Preserve the tool calls in history so the model sees them on the
		// next iteration
		session.AddMessage(llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		requests := make([]tools.ToolCallRequest, len(resp.ToolCalls))
		for j, tc := range resp.ToolCalls {
			a.logger.Debug("executing tool call", "tool", tc.Name, "iteration", i)
			requests[j] = tools.ToolCallRequest{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Args,
			}
		}

		results, err := a.executor.ExecuteBatch(ctx, requests)
		if err != nil && !errors.Is(err, tools.ErrAllToolsFailed) {
			return "", fmt.Errorf("tool execution failed: %w", err)
		}

		// Failed tools come back as error turns the model can explain,
		// not as loop aborts
		session.AddMessages(a.executor.ResultsToMessages(results))
	}

	return "", errMaxIterations
}

// chat performs one model round-trip under the adapter read lock, so
// SwitchModel cannot swap the adapter mid-call, with a bounded deadline.
func (a *Agent) chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()

	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.llm.Chat(ctx, req)
}
