package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fennec-ai/fennec/pkg/llm"
)

// Client is an Anthropic Claude chat client.
// It implements the llm.Provider interface against the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Config is the configuration for the Anthropic provider.
// APIKey: Anthropic API key (required)
// Model: Model name to use, defaults to "claude-3-5-haiku-latest"
// BaseURL: API base URL, defaults to "https://api.anthropic.com"
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new Anthropic provider.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type messageRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
	System      string        `json:"system,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete generates a reply from the conversation history.
//
// The Messages API carries the system prompt as a top-level field, so
// system-role turns are folded out of the message list before the call.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	options := llm.ApplyCompleteOptions(opts)

	var systemParts []string
	chatMessages := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == "system" {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		chatMessages = append(chatMessages, chatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	reqBody := messageRequest{
		Model:       c.model,
		MaxTokens:   options.MaxTokens,
		Messages:    chatMessages,
		System:      strings.Join(systemParts, "\n\n"),
		Temperature: options.Temperature,
		TopP:        options.TopP,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result messageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if result.Error != nil {
			return "", fmt.Errorf("anthropic API error (%s): %s", result.Error.Type, result.Error.Message)
		}
		return "", fmt.Errorf("anthropic API returned status %d", resp.StatusCode)
	}

	if len(result.Content) == 0 {
		return "", errors.New("completion failed: empty content returned from Anthropic API")
	}

	return result.Content[0].Text, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
