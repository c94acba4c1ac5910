package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
)

// Client implements the Adapter interface using Anthropic's Claude API
type Client struct {
	client anthropic.Client
	model  string
}

// NewClient creates a new Claude client
// API key is read from ANTHROPIC_API_KEY environment variable
func NewClient(model string) (*Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// Chat sends a chat request and returns a response
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		text := msg.Content
		if text == "" && len(msg.ToolCalls) > 0 {
			// Assistant turns that only carried tool calls still need a
			// non-empty text block for the Messages API.
			text = describeToolCalls(msg.ToolCalls)
		}
		if text == "" {
			continue
		}
		if msg.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}

	var tools []anthropic.ToolUnionParam
	if len(req.Tools) > 0 {
		tools = make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, c.convertToolDefinition(tool))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Text: req.SystemPrompt,
			},
		}
	}

	if len(tools) > 0 {
		params.Tools = tools
	}

	response, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	return c.convertResponse(response), nil
}

// describeToolCalls renders tool calls as text so they survive in history
func describeToolCalls(calls []llm.ToolCall) string {
	out := "Requested tool calls:"
	for _, tc := range calls {
		args, _ := json.Marshal(tc.Args)
		out += fmt.Sprintf(" %s(%s)", tc.Name, string(args))
	}
	return out
}

// convertToolDefinition converts our tool definition to Anthropic format
func (c *Client) convertToolDefinition(tool llm.ToolDefinition) anthropic.ToolUnionParam {
	properties := make(map[string]interface{})
	for name, prop := range tool.Parameters.Properties {
		p := map[string]interface{}{
			"type":        prop.Type,
			"description": prop.Description,
		}
		if prop.Items != nil {
			p["items"] = map[string]interface{}{
				"type":        prop.Items.Type,
				"description": prop.Items.Description,
			}
		}
		properties[name] = p
	}

	inputSchema := anthropic.ToolInputSchemaParam{
		Properties: properties,
	}

	if len(tool.Parameters.Required) > 0 {
		inputSchema.Required = tool.Parameters.Required
	}

	param := anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
	if param.OfTool != nil && tool.Description != "" {
		// Tool descriptions carry the database schema and document
		// inventory; the model routes on them.
		param.OfTool.Description = anthropic.String(tool.Description)
	}
	return param
}

// convertResponse converts Anthropic response to our response format
func (c *Client) convertResponse(response *anthropic.Message) *llm.ChatResponse {
	result := &llm.ChatResponse{
		Usage: llm.TokenUsage{
			InputTokens:  int(response.Usage.InputTokens),
			OutputTokens: int(response.Usage.OutputTokens),
			TotalTokens:  int(response.Usage.InputTokens + response.Usage.OutputTokens),
		},
	}

	for _, block := range response.Content {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			result.Content += textBlock.Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := make(map[string]any)
			if err := json.Unmarshal(toolBlock.Input, &args); err == nil {
				result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
					ID:   toolBlock.ID,
					Name: toolBlock.Name,
					Args: args,
				})
			}
		}
	}

	return result
}
