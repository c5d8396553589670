package ollama

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

// Client is an Ollama chat client for locally hosted models.
type Client struct {
	model      string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config is the configuration for the Ollama provider.
// Model: Model name to use, defaults to "llama3.2"
// BaseURL: Ollama server address, defaults to "http://localhost:11434"
// APIKey: Optional bearer token for proxied deployments
type Config struct {
	Model   string
	BaseURL string
	APIKey  string
}

// NewClient creates a new Ollama provider.
func NewClient(cfg *Config) (*Client, error) {
	model := cfg.Model
	if model == "" {
		model = "llama3.2"
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &Client{
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	TopP        float64 `json:"top_p"`
}

type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

// Complete generates a reply from the conversation history.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	options := llm.ApplyCompleteOptions(opts)

	chatMessages := make([]chatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	// Stream must be disabled explicitly, Ollama streams by default.
	reqBody := chatRequest{
		Model:    c.model,
		Messages: chatMessages,
		Stream:   false,
		Options: chatOptions{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
			TopP:        options.TopP,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if result.Error != "" {
			return "", fmt.Errorf("ollama API error: %s", result.Error)
		}
		return "", fmt.Errorf("ollama API returned status %d", resp.StatusCode)
	}

	if result.Message.Content == "" {
		return "", errors.New("completion failed: empty content returned from Ollama API")
	}

	return result.Message.Content, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
