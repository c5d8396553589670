// Package llm defines the completion-service contract used by the assistant.
//
// A Provider turns an ordered list of role-tagged messages into a reply
// string. Concrete providers (OpenAI, Groq, DeepSeek, Anthropic, Ollama)
// live in subpackages; the assistant treats them as interchangeable
// adapters and carries no provider-specific request fields of its own.
package llm

import "context"

// Provider is the completion-service contract.
//
// All chat backends must implement this interface.
type Provider interface {
	// Complete generates a reply from a conversation history.
	//
	// The caller supplies a context; a deadline on it bounds the upstream
	// call. The history must be in chronological order, ending with the
	// newest user message.
	Complete(ctx context.Context, messages []Message, opts ...CompleteOption) (string, error)

	// Close releases provider resources.
	Close() error
}

// StreamingProvider is implemented by providers that can deliver the reply
// as incremental text chunks.
type StreamingProvider interface {
	Provider

	// CompleteStream generates a reply as a sequence of text chunks.
	// The returned channel is closed when the reply is complete or an
	// error occurs; a chunk with a non-nil Err terminates the stream.
	CompleteStream(ctx context.Context, messages []Message, opts ...CompleteOption) (<-chan Chunk, error)
}

// Message is a single role-tagged message in a conversation.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Chunk is one increment of a streamed reply.
type Chunk struct {
	// Content is the text delta.
	Content string

	// Err is non-nil when the stream failed; no further chunks follow.
	Err error
}

// CompleteOptions contains options for reply generation.
type CompleteOptions struct {
	// Temperature controls randomness (0.0-2.0). Higher = more random.
	Temperature float64

	// MaxTokens limits the maximum number of tokens in the reply.
	MaxTokens int

	// TopP controls nucleus sampling (0.0-1.0).
	TopP float64

	// Stop contains stop sequences that end generation.
	Stop []string
}

// CompleteOption configures reply generation.
type CompleteOption func(*CompleteOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) CompleteOption {
	return func(opts *CompleteOptions) {
		opts.Temperature = temp
	}
}

// WithMaxTokens limits the reply length in tokens.
func WithMaxTokens(max int) CompleteOption {
	return func(opts *CompleteOptions) {
		opts.MaxTokens = max
	}
}

// WithTopP sets the nucleus-sampling parameter.
func WithTopP(topP float64) CompleteOption {
	return func(opts *CompleteOptions) {
		opts.TopP = topP
	}
}

// WithStop sets stop sequences.
func WithStop(stop ...string) CompleteOption {
	return func(opts *CompleteOptions) {
		opts.Stop = stop
	}
}

// ApplyCompleteOptions resolves a slice of CompleteOption against defaults.
//
// Defaults: Temperature=0.7, MaxTokens=1000, TopP=1.0.
func ApplyCompleteOptions(opts []CompleteOption) *CompleteOptions {
	options := &CompleteOptions{
		Temperature: 0.7,
		MaxTokens:   1000,
		TopP:        1.0,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
