package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client implements the Adapter interface using Google's Gemini API
type Client struct {
	client *genai.Client
	model  string
}

// APIError represents an error from the Gemini API with structured details
type APIError struct {
	Code    int    // HTTP status code
	Message string // Raw API error message
	Err     error  // Enhanced error with user-friendly message
}

func (e *APIError) Error() string {
	return e.Err.Error()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// APICode returns the HTTP status code from the API
func (e *APIError) APICode() int {
	return e.Code
}

// APIMessage returns the raw error message from the API
func (e *APIError) APIMessage() string {
	return e.Message
}

// NewClient creates a new Gemini client
// API key is read from GEMINI_API_KEY or GOOGLE_API_KEY environment variable
func NewClient(ctx context.Context, model string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// Chat sends a chat request and returns a response
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	model := c.client.GenerativeModel(c.model)

	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{
				genai.Text(req.SystemPrompt),
			},
		}
	}

	if len(req.Tools) > 0 {
		tools := make([]*genai.Tool, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, c.convertToolDefinition(tool))
		}
		model.Tools = tools
	}

	// Gemini wants the last user message passed to SendMessage separately,
	// with everything before it as chat history.
	var history []*genai.Content
	var lastParts []genai.Part

	for i, msg := range req.Messages {
		var parts []genai.Part
		var role string

		if msg.Role == "assistant" {
			role = "model"
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			// Include FunctionCall parts so Gemini sees its own tool calls in history
			for _, tc := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{
					Name: tc.Name,
					Args: tc.Args,
				})
			}
		} else if msg.ToolResultID != "" {
			role = "user"
			var responseData map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &responseData); err != nil {
				responseData = map[string]any{"result": msg.Content}
			}
			parts = append(parts, genai.FunctionResponse{
				Name:     msg.ToolName,
				Response: responseData,
			})
		} else {
			role = "user"
			parts = append(parts, genai.Text(msg.Content))
		}

		if i == len(req.Messages)-1 && role == "user" {
			lastParts = parts
			break
		}

		if len(parts) > 0 {
			history = append(history, &genai.Content{
				Parts: parts,
				Role:  role,
			})
		}
	}

	chat := model.StartChat()
	chat.History = history

	if lastParts == nil {
		lastParts = []genai.Part{genai.Text("")}
	}
	resp, err := chat.SendMessage(ctx, lastParts...)
	if err != nil {
		return nil, c.enhanceError(err)
	}

	return c.convertResponse(resp), nil
}

// convertToolDefinition converts our tool definition to Gemini format
func (c *Client) convertToolDefinition(tool llm.ToolDefinition) *genai.Tool {
	properties := make(map[string]*genai.Schema)
	for name, prop := range tool.Parameters.Properties {
		properties[name] = &genai.Schema{
			Type:        schemaType(prop.Type),
			Description: prop.Description,
		}
		if prop.Items != nil {
			properties[name].Items = &genai.Schema{
				Type:        schemaType(prop.Items.Type),
				Description: prop.Items.Description,
			}
		}
	}

	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: properties,
					Required:   tool.Parameters.Required,
				},
			},
		},
	}
}

func schemaType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// convertResponse converts Gemini response to our response format
func (c *Client) convertResponse(resp *genai.GenerateContentResponse) *llm.ChatResponse {
	result := &llm.ChatResponse{}

	if resp.UsageMetadata != nil {
		result.Usage = llm.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			switch v := part.(type) {
			case genai.Text:
				result.Content += string(v)
			case genai.FunctionCall:
				args := make(map[string]any)
				for k, val := range v.Args {
					args[k] = val
				}

				result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
					ID:   v.Name, // Gemini has no separate call ID, use the name
					Name: v.Name,
					Args: args,
				})
			}
		}
	}

	return result
}

// enhanceError provides better error messages for common API errors
func (c *Client) enhanceError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		var enhancedErr error
		switch apiErr.Code {
		case 404:
			enhancedErr = fmt.Errorf("model '%s' not found for Gemini provider. Try gemini-1.5-flash or gemini-1.5-pro, or update your config file", c.model)
		case 400:
			enhancedErr = fmt.Errorf("invalid request to Gemini API: %s", apiErr.Message)
		case 403:
			enhancedErr = fmt.Errorf("authentication failed with Gemini API: %s (check GEMINI_API_KEY)", apiErr.Message)
		case 429:
			enhancedErr = fmt.Errorf("rate limit exceeded for Gemini API: %s", apiErr.Message)
		default:
			enhancedErr = fmt.Errorf("Gemini API error (%d): %s", apiErr.Code, apiErr.Message)
		}

		return &APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Err:     enhancedErr,
		}
	}

	return fmt.Errorf("gemini API call failed: %w", err)
}

// Close closes the Gemini client
func (c *Client) Close() error {
	return c.client.Close()
}
