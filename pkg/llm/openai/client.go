package openai

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fennec-ai/fennec/pkg/llm"
)

// Client is an OpenAI chat-completion client.
// It implements llm.Provider and llm.StreamingProvider on top of the
// OpenAI chat completions API.
type Client struct {
	client *openai.Client
	model  string
}

// Config is the configuration for the OpenAI provider.
// APIKey: OpenAI API key (required)
// Model: Model name to use, defaults to "gpt-4o-mini"
// BaseURL: API base URL, defaults to the OpenAI official address
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new OpenAI provider.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Complete generates a reply from the conversation history.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, opts))
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("completion failed: no choices returned from OpenAI API")
	}

	return resp.Choices[0].Message.Content, nil
}

// CompleteStream generates a reply as incremental text chunks.
//
// The returned channel is closed when the reply finishes; a chunk carrying
// a non-nil Err terminates the stream early.
func (c *Client) CompleteStream(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (<-chan llm.Chunk, error) {
	req := c.buildRequest(messages, opts)
	req.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	chunks := make(chan llm.Chunk)
	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				chunks <- llm.Chunk{Err: err}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case chunks <- llm.Chunk{Content: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, nil
}

// Close closes the client connection.
// The OpenAI SDK client does not require explicit closing; this method is
// retained for interface compatibility.
func (c *Client) Close() error {
	return nil
}

func (c *Client) buildRequest(messages []llm.Message, opts []llm.CompleteOption) openai.ChatCompletionRequest {
	options := llm.ApplyCompleteOptions(opts)

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
		TopP:        float32(options.TopP),
		Stop:        options.Stop,
	}
}
