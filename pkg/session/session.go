// Package session manages the active conversation and assembles the
// model's context from history and long-term memories.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fennec-ai/fennec/pkg/llm"
	"github.com/fennec-ai/fennec/pkg/store"
)

// ContextWindow is how many recent turns feed the model.
const ContextWindow = 20

// Importance levels for memories extracted from conversation.
const (
	importanceName       = 9
	importancePreference = 8
	importanceLikes      = 6
)

// Manager tracks which conversation is active and builds model context
// from it. Safe for concurrent use; the active conversation is shared
// state guarded by a mutex.
type Manager struct {
	mu      sync.RWMutex
	current string

	conversations store.ConversationStore
	memories      store.MemoryStore
}

// NewManager creates a session manager over the given storage.
func NewManager(conversations store.ConversationStore, memories store.MemoryStore) *Manager {
	return &Manager{
		conversations: conversations,
		memories:      memories,
	}
}

// StartNewSession begins a fresh conversation and makes it active. The
// previous conversation stays in storage untouched.
func (m *Manager) StartNewSession(ctx context.Context) (string, error) {
	id, err := m.conversations.CreateConversation(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}

	m.mu.Lock()
	m.current = id
	m.mu.Unlock()
	return id, nil
}

// SetSession switches to an existing conversation.
func (m *Manager) SetSession(id string) {
	m.mu.Lock()
	m.current = id
	m.mu.Unlock()
}

// CurrentSession returns the active conversation ID, empty when none.
func (m *Manager) CurrentSession() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// AddMessage appends a turn to the active conversation, starting one
// lazily when none is active. User turns also run keyword extraction
// that saves names and stated preferences as memories.
func (m *Manager) AddMessage(ctx context.Context, role, content string) error {
	m.mu.Lock()
	if m.current == "" {
		id, err := m.conversations.CreateConversation(ctx)
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		m.current = id
	}
	id := m.current
	m.mu.Unlock()

	if err := m.conversations.AppendTurn(ctx, id, role, content); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}

	if role == store.RoleUser {
		m.extractUserInfo(ctx, content)
	}
	return nil
}

// ContextMessages returns the last ContextWindow turns of the active
// conversation in chronological order, newest last. With no active or
// unknown conversation it returns an empty slice.
func (m *Manager) ContextMessages(ctx context.Context) ([]llm.Message, error) {
	m.mu.RLock()
	id := m.current
	m.mu.RUnlock()

	if id == "" {
		return []llm.Message{}, nil
	}

	turns, err := m.conversations.GetTurns(ctx, id, ContextWindow)
	if errors.Is(err, store.ErrNotFound) {
		return []llm.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	messages := make([]llm.Message, len(turns))
	for i, t := range turns {
		messages[i] = llm.Message{Role: t.Role, Content: t.Content}
	}
	return messages, nil
}

// EnhancedContext returns the context messages with a memory digest
// prepended as a system message when any memories exist. The digest
// carries at most five memories, strongest first.
func (m *Manager) EnhancedContext(ctx context.Context) ([]llm.Message, error) {
	messages, err := m.ContextMessages(ctx)
	if err != nil {
		return nil, err
	}

	memories, err := m.memories.GetMemories(ctx, "", 5)
	if err != nil {
		return nil, fmt.Errorf("failed to load memories: %w", err)
	}
	if len(memories) == 0 {
		return messages, nil
	}

	var sb strings.Builder
	sb.WriteString("اطلاعات مهم که باید به خاطر داشته باشی:\n")
	for _, mem := range memories {
		sb.WriteString("- " + mem.Key + ": " + mem.Value + "\n")
	}

	digest := llm.Message{Role: store.RoleSystem, Content: sb.String()}
	return append([]llm.Message{digest}, messages...), nil
}

// Conversations lists recent conversations, newest activity first.
func (m *Manager) Conversations(ctx context.Context) ([]store.ConversationSummary, error) {
	return m.conversations.ListRecentConversations(ctx, 50)
}

// SearchHistory finds past turns containing the query across all
// conversations.
func (m *Manager) SearchHistory(ctx context.Context, query string) ([]store.TurnMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is empty")
	}
	return m.conversations.SearchTurns(ctx, query)
}

// SavePreference stores an explicit user preference as a high-importance
// memory.
func (m *Manager) SavePreference(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("preference key is empty")
	}
	return m.memories.UpsertMemory(ctx, key, value, store.CategoryPreference, importancePreference)
}

// extractUserInfo scans a user message for self-disclosed facts and
// saves them as memories. Extraction failures are deliberately dropped,
// a missed memory must not fail the message.
func (m *Manager) extractUserInfo(ctx context.Context, content string) {
	lowered := strings.ToLower(content)

	if strings.Contains(lowered, "اسم من") || strings.Contains(lowered, "نام من") {
		words := strings.Fields(content)
		for i, word := range words {
			if (word == "اسم" || word == "نام") && i+2 < len(words) {
				name := strings.Trim(words[i+2], "،,.!")
				if name != "" {
					_ = m.memories.UpsertMemory(ctx, "user_name", name, store.CategoryPreference, importanceName)
				}
				break
			}
		}
	}

	if strings.Contains(lowered, "دوست دارم") {
		_ = m.memories.UpsertMemory(ctx, "user_likes", content, store.CategoryPreference, importanceLikes)
	}

	if strings.Contains(lowered, "متنفرم") || strings.Contains(lowered, "دوست ندارم") {
		_ = m.memories.UpsertMemory(ctx, "user_dislikes", content, store.CategoryPreference, importanceLikes)
	}
}
