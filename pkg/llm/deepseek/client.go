package deepseek

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fennec-ai/fennec/pkg/llm"
)

// Client is a DeepSeek chat client.
// DeepSeek exposes an OpenAI-compatible API, so the OpenAI SDK is reused
// with a different base URL.
type Client struct {
	client *openai.Client
	model  string
}

// Config is the configuration for the DeepSeek provider.
// APIKey: DeepSeek API key (required)
// Model: Model name to use, defaults to "deepseek-chat"
// BaseURL: API base URL, defaults to "https://api.deepseek.com"
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new DeepSeek provider.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = baseURL

	model := cfg.Model
	if model == "" {
		model = "deepseek-chat"
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
		return "", errors.New("completion failed: no choices returned from DeepSeek API")
	}

	return resp.Choices[0].Message.Content, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return nil
}
