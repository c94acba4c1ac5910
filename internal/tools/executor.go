package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
)

// ErrAllToolsFailed is returned when every tool in a batch fails
var ErrAllToolsFailed = errors.New("all tools in batch failed")

// defaultCallTimeout bounds non-interactive tool calls; interactive tools
// (the command approval prompt) are exempt since they wait on the user.
const defaultCallTimeout = time.Minute

// Executor executes tool calls requested by the LLM
type Executor struct {
	registry *Registry
}

// NewExecutor creates a new tool executor
func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry: registry,
	}
}

// Execute validates and executes a single tool call
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	tool, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}

	if err := ValidateArgs(tool.Parameters(), args); err != nil {
		return nil, fmt.Errorf("invalid arguments for tool %s: %w", name, err)
	}

	if !isInteractive(tool) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultCallTimeout)
		defer cancel()
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("failed to execute tool %s: %w", name, err)
	}

	return result, nil
}

// ExecuteBatch executes multiple tool calls from one model turn.
// Independent calls run concurrently; interactive tools serialize among
// themselves so only one approval prompt is pending at a time. Results are
// returned for every call, successful or not, and an error comes back only
// when ALL calls failed. Individual failures live in each result and are
// fed back to the model instead of aborting the turn.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []ToolCallRequest) ([]ToolCallResult, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	results := make([]ToolCallResult, len(calls))

	var interactive []int
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		if tool, err := e.registry.Get(call.Name); err == nil && isInteractive(tool) {
			interactive = append(interactive, i)
			continue
		}
		i, call := i, call
		g.Go(func() error {
			result, err := e.Execute(gctx, call.Name, call.Args)
			results[i] = ToolCallResult{ID: call.ID, Name: call.Name, Result: result, Error: err}
			return nil
		})
	}
	_ = g.Wait()

	// Interactive calls run after the concurrent batch, one at a time, so
	// the approval prompt is never interleaved with other output.
	for _, i := range interactive {
		call := calls[i]
		result, err := e.Execute(ctx, call.Name, call.Args)
		results[i] = ToolCallResult{ID: call.ID, Name: call.Name, Result: result, Error: err}
	}

	errorCount := 0
	for _, r := range results {
		if r.Error != nil {
			errorCount++
		}
	}
	if errorCount == len(calls) {
		return results, fmt.Errorf("%w: %d tool(s) failed", ErrAllToolsFailed, errorCount)
	}

	return results, nil
}

// ResultsToMessages converts tool call results to conversation turns
func (e *Executor) ResultsToMessages(results []ToolCallResult) []llm.Message {
	messages := make([]llm.Message, len(results))

	for i, result := range results {
		messages[i] = ResultToMessage(result)
	}

	return messages
}

// ResultToMessage converts a single tool call result to a conversation turn.
// Errors become message content too, so the model can explain the failure
// instead of the session crashing.
func ResultToMessage(result ToolCallResult) llm.Message {
	var content string
	isError := false

	if result.Error != nil {
		content = fmt.Sprintf("Error executing tool: %v", result.Error)
		isError = true
	} else if s, ok := result.Result.(string); ok {
		content = s
	} else {
		jsonBytes, err := json.Marshal(result.Result)
		if err != nil {
			content = fmt.Sprintf("Error marshaling result: %v", err)
			isError = true
		} else {
			content = string(jsonBytes)
		}
	}

	return llm.Message{
		Role:         "user", // tool results travel back as user turns
		Content:      content,
		ToolResultID: result.ID,
		ToolName:     result.Name,
		IsError:      isError,
	}
}

// ToolCallRequest represents a request to execute a tool
type ToolCallRequest struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolCallResult represents the result of executing a tool
type ToolCallResult struct {
	ID     string
	Name   string
	Result any
	Error  error
}
