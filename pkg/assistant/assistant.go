package assistant

import (
	"context"
	"fmt"

	"github.com/fennec-ai/fennec/pkg/learn"
	"github.com/fennec-ai/fennec/pkg/llm"
	anthropicLLM "github.com/fennec-ai/fennec/pkg/llm/anthropic"
	deepseekLLM "github.com/fennec-ai/fennec/pkg/llm/deepseek"
	groqLLM "github.com/fennec-ai/fennec/pkg/llm/groq"
	ollamaLLM "github.com/fennec-ai/fennec/pkg/llm/ollama"
	openaiLLM "github.com/fennec-ai/fennec/pkg/llm/openai"
	"github.com/fennec-ai/fennec/pkg/persona"
	"github.com/fennec-ai/fennec/pkg/session"
	"github.com/fennec-ai/fennec/pkg/store"
	mysqlStore "github.com/fennec-ai/fennec/pkg/store/mysql"
	postgresStore "github.com/fennec-ai/fennec/pkg/store/postgres"
	sqliteStore "github.com/fennec-ai/fennec/pkg/store/sqlite"
	"github.com/fennec-ai/fennec/pkg/users"
	"github.com/fennec-ai/fennec/pkg/websearch"
)

// Assistant is the top-level conversational assistant.
//
// It owns the storage backend, the LLM provider and the supporting
// services, and assembles them into the reply pipeline:
//
//  1. Taught lessons answer matching messages directly.
//  2. Search-triggering messages pull live web results into context.
//  3. The persona prompt and the memory digest precede the history.
//  4. The model completes the assembled context.
type Assistant struct {
	store    store.Store
	provider llm.Provider

	Sessions *session.Manager
	Users    *users.Directory
	Persona  *persona.System
	Lessons  *learn.Lessons

	search   websearch.Service
	detector *websearch.TriggerDetector
}

// New creates an Assistant from the configuration.
//
// The configuration is validated, the storage backend and LLM provider
// are initialized, and all services are wired together.
//
// Example:
//
//	config, err := assistant.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bot, err := assistant.New(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bot.Close()
func New(cfg *Config) (*Assistant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStorage(cfg.Storage)
	if err != nil {
		return nil, NewAssistantError("New", err)
	}

	provider, err := initLLM(cfg.LLM)
	if err != nil {
		st.Close()
		return nil, NewAssistantError("New", err)
	}

	a := &Assistant{
		store:    st,
		provider: provider,
		Sessions: session.NewManager(st, st),
		Users:    users.NewDirectory(st),
		Persona:  persona.NewSystem(cfg.Persona.Name),
		Lessons:  learn.New(st),
	}

	if cfg.Search.Enabled {
		a.search = websearch.NewDuckDuckGo(&websearch.Config{BaseURL: cfg.Search.BaseURL})
		a.detector = websearch.NewTriggerDetector(cfg.Search.Keywords)
	}

	return a, nil
}

// Respond appends the user's message to the active conversation and
// produces the assistant's reply.
//
// The message is stored before the model is called, so an upstream
// failure never loses input. A taught lesson that matches the message
// short-circuits the pipeline and returns the taught reply without any
// model call.
func (a *Assistant) Respond(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", NewAssistantError("Respond", ErrValidation)
	}

	a.Persona.AnalyzeInput(message)

	if err := a.Sessions.AddMessage(ctx, store.RoleUser, message); err != nil {
		return "", NewAssistantError("Respond", fmt.Errorf("%w: %v", ErrStorage, err))
	}

	if reply, ok, err := a.Lessons.Lookup(ctx, message); err == nil && ok {
		if err := a.Sessions.AddMessage(ctx, store.RoleAssistant, reply); err != nil {
			return "", NewAssistantError("Respond", fmt.Errorf("%w: %v", ErrStorage, err))
		}
		return reply, nil
	}

	if a.search != nil && a.detector.ShouldSearch(message) {
		a.injectSearchResults(ctx, message)
	}

	messages, err := a.assembleContext(ctx)
	if err != nil {
		return "", NewAssistantError("Respond", err)
	}

	reply, err := a.provider.Complete(ctx, messages)
	if err != nil {
		return "", NewAssistantError("Respond", fmt.Errorf("%w: %v", ErrUpstream, err))
	}

	if err := a.Sessions.AddMessage(ctx, store.RoleAssistant, reply); err != nil {
		return "", NewAssistantError("Respond", fmt.Errorf("%w: %v", ErrStorage, err))
	}

	a.recordInteraction(ctx)
	return reply, nil
}

// RespondStream is like Respond but delivers the reply incrementally
// when the provider supports streaming. The full reply is stored once
// the stream completes; with a non-streaming provider the whole reply
// arrives as one chunk.
func (a *Assistant) RespondStream(ctx context.Context, message string) (<-chan llm.Chunk, error) {
	streamer, ok := a.provider.(llm.StreamingProvider)
	if !ok {
		reply, err := a.Respond(ctx, message)
		if err != nil {
			return nil, err
		}
		out := make(chan llm.Chunk, 1)
		out <- llm.Chunk{Content: reply}
		close(out)
		return out, nil
	}

	if message == "" {
		return nil, NewAssistantError("RespondStream", ErrValidation)
	}

	a.Persona.AnalyzeInput(message)

	if err := a.Sessions.AddMessage(ctx, store.RoleUser, message); err != nil {
		return nil, NewAssistantError("RespondStream", fmt.Errorf("%w: %v", ErrStorage, err))
	}

	if reply, ok, err := a.Lessons.Lookup(ctx, message); err == nil && ok {
		if err := a.Sessions.AddMessage(ctx, store.RoleAssistant, reply); err != nil {
			return nil, NewAssistantError("RespondStream", fmt.Errorf("%w: %v", ErrStorage, err))
		}
		out := make(chan llm.Chunk, 1)
		out <- llm.Chunk{Content: reply}
		close(out)
		return out, nil
	}

	if a.search != nil && a.detector.ShouldSearch(message) {
		a.injectSearchResults(ctx, message)
	}

	messages, err := a.assembleContext(ctx)
	if err != nil {
		return nil, NewAssistantError("RespondStream", err)
	}

	chunks, err := streamer.CompleteStream(ctx, messages)
	if err != nil {
		return nil, NewAssistantError("RespondStream", fmt.Errorf("%w: %v", ErrUpstream, err))
	}

	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		var full string
		for chunk := range chunks {
			if chunk.Err == nil {
				full += chunk.Content
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if full != "" {
			_ = a.Sessions.AddMessage(ctx, store.RoleAssistant, full)
			a.recordInteraction(ctx)
		}
	}()
	return out, nil
}

// assembleContext builds the model's message list: persona prompt
// first, then the memory digest, then the conversation history ending
// with the newest user turn.
func (a *Assistant) assembleContext(ctx context.Context) ([]llm.Message, error) {
	messages, err := a.Sessions.EnhancedContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	profile, err := a.Users.Current(ctx)
	if err != nil {
		profile = nil
	}

	prompt := llm.Message{Role: store.RoleSystem, Content: a.Persona.Prompt(profile)}
	return append([]llm.Message{prompt}, messages...), nil
}

// injectSearchResults runs a web search for the message and appends the
// top results to the conversation as a system turn. Search failures are
// dropped, the reply then simply lacks live information.
func (a *Assistant) injectSearchResults(ctx context.Context, query string) {
	results, err := a.search.Search(ctx, query, 3)
	if err != nil || len(results) == 0 {
		return
	}
	digest := websearch.FormatDigest(query, results)
	_ = a.Sessions.AddMessage(ctx, store.RoleSystem, digest)
}

// recordInteraction updates the active user's profile after a completed
// exchange. Missing profile is fine, not every deployment tracks users.
func (a *Assistant) recordInteraction(ctx context.Context) {
	profile, err := a.Users.Current(ctx)
	if err != nil {
		return
	}
	users.RecordInteraction(profile)
	users.AddExperience(profile, 1)
	_ = a.Users.SaveProfile(ctx, profile)
}

// Memories returns stored memories, strongest first. Empty category
// means all categories; limit <= 0 means no limit.
func (a *Assistant) Memories(ctx context.Context, category string, limit int) ([]store.Memory, error) {
	memories, err := a.store.GetMemories(ctx, category, limit)
	if err != nil {
		return nil, NewAssistantError("Memories", fmt.Errorf("%w: %v", ErrStorage, err))
	}
	return memories, nil
}

// SearchWeb runs a direct web search, independent of any conversation.
func (a *Assistant) SearchWeb(ctx context.Context, query string, limit int) ([]websearch.Result, error) {
	if a.search == nil {
		return nil, NewAssistantError("SearchWeb", ErrInvalidConfig)
	}
	results, err := a.search.Search(ctx, query, limit)
	if err != nil {
		return nil, NewAssistantError("SearchWeb", fmt.Errorf("%w: %v", ErrUpstream, err))
	}
	return results, nil
}

// Close releases the storage backend and the LLM provider.
func (a *Assistant) Close() error {
	var errs []error

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}

	return nil
}

// initStorage initializes the storage backend.
func initStorage(cfg StorageConfig) (store.Store, error) {
	switch cfg.Provider {
	case "sqlite":
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath: configString(cfg.Config, "db_path", "./fennec.db"),
		})
	case "mysql":
		return mysqlStore.NewClient(&mysqlStore.Config{
			Host:     configString(cfg.Config, "host", "127.0.0.1"),
			Port:     configInt(cfg.Config, "port", 3306),
			User:     configString(cfg.Config, "user", "root"),
			Password: configString(cfg.Config, "password", ""),
			DBName:   configString(cfg.Config, "db_name", "fennec"),
		})
	case "postgres":
		return postgresStore.NewClient(&postgresStore.Config{
			Host:     configString(cfg.Config, "host", "localhost"),
			Port:     configInt(cfg.Config, "port", 5432),
			User:     configString(cfg.Config, "user", "postgres"),
			Password: configString(cfg.Config, "password", ""),
			DBName:   configString(cfg.Config, "db_name", "fennec"),
			SSLMode:  configString(cfg.Config, "ssl_mode", "disable"),
		})
	default:
		return nil, NewAssistantError("initStorage", ErrInvalidConfig)
	}
}

// initLLM initializes the LLM provider.
func initLLM(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "groq":
		return groqLLM.NewClient(&groqLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "deepseek":
		return deepseekLLM.NewClient(&deepseekLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "ollama":
		return ollamaLLM.NewClient(&ollamaLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "anthropic":
		return anthropicLLM.NewClient(&anthropicLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewAssistantError("initLLM", ErrInvalidConfig)
	}
}

// configString reads a string value from a provider config map.
// JSON decoding delivers every scalar as its JSON type, so only string
// assertions are needed here.
func configString(m map[string]interface{}, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

// configInt reads an int value from a provider config map, accepting
// the float64 that JSON decoding produces for numbers.
func configInt(m map[string]interface{}, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
