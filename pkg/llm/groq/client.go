package groq

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fennec-ai/fennec/pkg/llm"
)

// Client is a Groq chat client.
// Groq exposes an OpenAI-compatible API, so the OpenAI SDK is reused
// with the Groq base URL.
type Client struct {
	client *openai.Client
	model  string
}

// Config is the configuration for the Groq provider.
// APIKey: Groq API key (required)
// Model: Model name to use, defaults to "llama-3.3-70b-versatile"
// BaseURL: API base URL, defaults to "https://api.groq.com/openai/v1"
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new Groq provider.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = baseURL

	model := cfg.Model
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Complete generates a reply from the conversation history.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	options := llm.ApplyCompleteOptions(opts)

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
		TopP:        float32(options.TopP),
		Stop:        options.Stop,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("completion failed: no choices returned from Groq API")
	}

	return resp.Choices[0].Message.Content, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return nil
}
