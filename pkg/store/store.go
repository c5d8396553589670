// Package store defines the persistence contracts for the assistant.
//
// It declares the record types (conversations, turns, memories, profiles,
// lessons) and the store interfaces that every backend must satisfy.
// Concrete implementations live in the sqlite, mysql, and postgres
// subpackages; the rest of the system only depends on the interfaces here.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates that a referenced conversation or profile does not exist.
var ErrNotFound = errors.New("not found")

// DefaultTitle is the placeholder title given to a new conversation.
//
// It is replaced exactly once, when the first turn long enough to derive a
// title from arrives.
const DefaultTitle = "مکالمه جدید"

// Message roles. Turns and context messages carry one of these.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is a single role-tagged message inside a conversation.
//
// Turns are immutable once written: they are only ever appended, never
// mutated or deleted.
type Turn struct {
	// ID is the unique row identifier (snowflake).
	ID int64 `json:"id"`

	// ConversationID is the conversation this turn belongs to.
	ConversationID string `json:"conversation_id"`

	// Role is one of RoleUser, RoleAssistant, RoleSystem.
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Timestamp is when the turn was appended.
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a persisted chat session.
type Conversation struct {
	// ID is the opaque unique session token (uuid).
	ID string `json:"id"`

	// Title is derived lazily from the first sufficiently long turn;
	// until then it holds DefaultTitle.
	Title string `json:"title"`

	// CreatedAt is when the conversation was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is bumped on every appended turn. Always >= CreatedAt.
	UpdatedAt time.Time `json:"updated_at"`

	// Active is false once the conversation has been soft-closed.
	// Conversations are never hard-deleted.
	Active bool `json:"active"`
}

// ConversationSummary is a list entry for recent-conversation queries.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	TurnCount int       `json:"turn_count"`
}

// TurnMatch is a single hit from a full-history substring search.
type TurnMatch struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	// Content is the matched turn content, truncated to 200 characters.
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Memory categories.
const (
	CategoryPreference = "preference"
	CategoryFact       = "fact"
	CategoryContext    = "context"
)

// Memory is a durable key/value fact independent of any single conversation.
//
// Keys are unique: writing an existing key overwrites value, category and
// importance and refreshes CreatedAt. No history is retained.
type Memory struct {
	// Key uniquely identifies the memory.
	Key string `json:"key"`

	// Value is the remembered text.
	Value string `json:"value"`

	// Category is one of CategoryPreference, CategoryFact, CategoryContext.
	Category string `json:"category"`

	// Importance ranks the memory for context injection, 1 (lowest) to 10.
	Importance int `json:"importance"`

	// CreatedAt is refreshed on every upsert of the key.
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the per-user relationship and preference state.
//
// A profile is owned by exactly one named user. It is created on first
// contact in the default "stranger" state and never destroyed.
type Profile struct {
	// Name is the user's display name and primary key.
	Name string `json:"name"`

	// Interests is a set of interest strings (no duplicates).
	Interests []string `json:"interests"`

	// PersonalityTraits is a set of trait strings (no duplicates).
	PersonalityTraits []string `json:"personality_traits"`

	// RelationshipLevel is clamped to [0,10] on every update.
	// 0 = stranger, 10 = best friend.
	RelationshipLevel int `json:"relationship_level"`

	// InteractionCount is the number of recorded interactions.
	InteractionCount int `json:"interaction_count"`

	// ArtificialExperience accumulates experience points over the
	// assistant's lifetime with this user.
	ArtificialExperience int `json:"artificial_experience"`

	// CreatedAt is when the profile was first created.
	CreatedAt time.Time `json:"created_at"`

	// LastInteraction is the time of the most recent recorded interaction
	// (zero if none yet). Only the latest value is kept.
	LastInteraction time.Time `json:"last_interaction"`
}

// DirectoryEntry is a row in the user index.
type DirectoryEntry struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// Lesson is a taught trigger/response pair.
//
// When the trigger is a case-insensitive substring of user input, the
// response is returned verbatim and the completion service is bypassed.
type Lesson struct {
	// Trigger is the lowercased trigger phrase (unique).
	Trigger string `json:"trigger"`

	// Response is the taught reply, returned verbatim on match.
	Response string `json:"response"`

	// TaughtAt is when the lesson was taught or last re-taught.
	TaughtAt time.Time `json:"taught_at"`

	// UsageCount is how many times the lesson has fired.
	UsageCount int `json:"usage_count"`
}

// ConversationStore persists conversations and their turns.
//
// AppendTurn must be atomic per call: the turn insert, the updated_at bump
// and the one-time title derivation are committed together, and concurrent
// appends to the same conversation must not interleave.
type ConversationStore interface {
	// CreateConversation allocates a fresh conversation with DefaultTitle
	// and returns its id.
	CreateConversation(ctx context.Context) (string, error)

	// AppendTurn appends a turn with the current timestamp. It returns
	// ErrNotFound if the conversation id is unknown. If the conversation
	// title still holds DefaultTitle, a new title is derived from the
	// first five words of content (kept only when longer than 10
	// characters).
	AppendTurn(ctx context.Context, conversationID, role, content string) error

	// GetTurns returns at most limit most recent turns in chronological
	// order (oldest first). An unknown id yields an empty slice, not an
	// error: no history yet.
	GetTurns(ctx context.Context, conversationID string, limit int) ([]Turn, error)

	// ListRecentConversations returns active conversations ordered by
	// updated_at descending.
	ListRecentConversations(ctx context.Context, limit int) ([]ConversationSummary, error)

	// SearchTurns performs a naive substring search over turn content,
	// most recent matches first.
	SearchTurns(ctx context.Context, query string) ([]TurnMatch, error)

	// CloseConversation soft-closes a conversation (active=false). The
	// conversation remains retrievable via history and search.
	CloseConversation(ctx context.Context, conversationID string) error
}

// MemoryStore persists key/value memories with upsert semantics.
type MemoryStore interface {
	// UpsertMemory writes a memory. An existing key is overwritten and
	// its created_at refreshed.
	UpsertMemory(ctx context.Context, key, value, category string, importance int) error

	// GetMemories returns memories ordered by importance desc then
	// created_at desc. An empty category matches all categories.
	GetMemories(ctx context.Context, category string, limit int) ([]Memory, error)
}

// ProfileStore persists user profiles and the directory index.
type ProfileStore interface {
	// GetProfile returns the profile for name, or ErrNotFound.
	GetProfile(ctx context.Context, name string) (*Profile, error)

	// SaveProfile inserts or overwrites a profile and its directory entry.
	SaveProfile(ctx context.Context, p *Profile) error

	// ListUsers returns all directory entries.
	ListUsers(ctx context.Context) ([]DirectoryEntry, error)

	// TouchUser refreshes last_seen for name.
	TouchUser(ctx context.Context, name string) error

	// CurrentUser returns the persisted current-user name, or "" when no
	// user is active.
	CurrentUser(ctx context.Context) (string, error)

	// SetCurrentUser persists the current-user pointer.
	SetCurrentUser(ctx context.Context, name string) error
}

// LessonStore persists taught trigger/response pairs.
type LessonStore interface {
	// SaveLesson inserts or overwrites a lesson keyed by its lowercased
	// trigger.
	SaveLesson(ctx context.Context, trigger, response string) error

	// ListLessons returns all lessons.
	ListLessons(ctx context.Context) ([]Lesson, error)

	// IncrementLessonUsage bumps the usage counter for trigger.
	IncrementLessonUsage(ctx context.Context, trigger string) error
}

// Store is the combined persistence contract implemented by each backend.
type Store interface {
	ConversationStore
	MemoryStore
	ProfileStore
	LessonStore

	// Close releases the underlying database connection.
	Close() error
}
