// Package postgres provides the PostgreSQL implementation of the assistant
// store.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/fennec-ai/fennec/pkg/store"
)

// Client implements store.Store using PostgreSQL as the backend.
type Client struct {
	db   *sql.DB
	node *snowflake.Node
}

// Config contains PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewClient creates a new PostgreSQL store client and initializes the schema.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	client := &Client{db: db, node: node}

	if err := client.initTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			id BIGINT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(conversation_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS memories (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			category TEXT NOT NULL,
			importance INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			name TEXT PRIMARY KEY,
			interests JSONB,
			personality_traits JSONB,
			relationship_level INT NOT NULL DEFAULT 0,
			interaction_count INT NOT NULL DEFAULT 0,
			artificial_experience INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			last_interaction TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS directory (
			name TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			last_seen TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lessons (
			"trigger" TEXT PRIMARY KEY,
			response TEXT NOT NULL,
			taught_at TIMESTAMPTZ NOT NULL,
			usage_count INT NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}

	return nil
}

// CreateConversation allocates a fresh conversation with the default title.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	id := uuid.NewString()
	now := time.Now()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, created_at, updated_at, active)
		VALUES ($1, $2, $3, $4, TRUE)
	`, id, store.DefaultTitle, now, now)
	if err != nil {
		return "", fmt.Errorf("CreateConversation: %w", err)
	}

	return id, nil
}

// AppendTurn appends a turn to a conversation inside a transaction.
//
// The conversation row is locked with SELECT ... FOR UPDATE so concurrent
// appends to the same conversation serialize.
func (c *Client) AppendTurn(ctx context.Context, conversationID, role, content string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("AppendTurn: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var title string
	err = tx.QueryRowContext(ctx,
		`SELECT title FROM conversations WHERE id = $1 FOR UPDATE`, conversationID,
	).Scan(&title)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("AppendTurn: %w", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO turns (id, conversation_id, role, content, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, c.node.Generate().Int64(), conversationID, role, content, now)
	if err != nil {
		return fmt.Errorf("AppendTurn: %w", err)
	}

	if title == store.DefaultTitle {
		title = store.DeriveTitle(content)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE conversations SET title = $1, updated_at = $2 WHERE id = $3
	`, title, now, conversationID)
	if err != nil {
		return fmt.Errorf("AppendTurn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("AppendTurn: %w", err)
	}

	return nil
}

// GetTurns returns at most limit most recent turns in chronological order.
func (c *Client) GetTurns(ctx context.Context, conversationID string, limit int) ([]store.Turn, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, timestamp
		FROM turns
		WHERE conversation_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("GetTurns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []store.Turn
	for rows.Next() {
		var t store.Turn
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Role, &t.Content, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("GetTurns: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetTurns: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

// ListRecentConversations returns active conversations, most recently
// updated first.
func (c *Client) ListRecentConversations(ctx context.Context, limit int) ([]store.ConversationSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.updated_at,
		       (SELECT COUNT(*) FROM turns t WHERE t.conversation_id = c.id)
		FROM conversations c
		WHERE c.active
		ORDER BY c.updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecentConversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []store.ConversationSummary
	for rows.Next() {
		var s store.ConversationSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.UpdatedAt, &s.TurnCount); err != nil {
			return nil, fmt.Errorf("ListRecentConversations: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRecentConversations: %w", err)
	}

	return summaries, nil
}

// SearchTurns performs a naive substring search over turn content.
func (c *Client) SearchTurns(ctx context.Context, query string) ([]store.TurnMatch, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT t.conversation_id, c.title, t.content, t.timestamp
		FROM turns t
		JOIN conversations c ON c.id = t.conversation_id
		WHERE t.content LIKE $1
		ORDER BY t.timestamp DESC, t.id DESC
		LIMIT 10
	`, "%"+escapeLike(query)+"%")
	if err != nil {
		return nil, fmt.Errorf("SearchTurns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []store.TurnMatch
	for rows.Next() {
		var m store.TurnMatch
		if err := rows.Scan(&m.ConversationID, &m.Title, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("SearchTurns: %w", err)
		}
		m.Content = truncate(m.Content, 200)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SearchTurns: %w", err)
	}

	return matches, nil
}

// CloseConversation soft-closes a conversation.
func (c *Client) CloseConversation(ctx context.Context, conversationID string) error {
	result, err := c.db.ExecContext(ctx,
		`UPDATE conversations SET active = FALSE WHERE id = $1`, conversationID)
	if err != nil {
		return fmt.Errorf("CloseConversation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("CloseConversation: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// UpsertMemory writes a memory, overwriting an existing key and refreshing
// its created_at.
func (c *Client) UpsertMemory(ctx context.Context, key, value, category string, importance int) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO memories (key, value, category, importance, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			category = EXCLUDED.category,
			importance = EXCLUDED.importance,
			created_at = EXCLUDED.created_at
	`, key, value, category, importance, time.Now())
	if err != nil {
		return fmt.Errorf("UpsertMemory: %w", err)
	}

	return nil
}

// GetMemories returns memories ordered by importance desc, created_at desc.
// A limit <= 0 means no limit.
func (c *Client) GetMemories(ctx context.Context, category string, limit int) ([]store.Memory, error) {
	if limit <= 0 {
		limit = 1<<31 - 1
	}
	query := `
		SELECT key, value, category, importance, created_at
		FROM memories
	`
	args := []interface{}{}
	if category != "" {
		query += " WHERE category = $1 ORDER BY importance DESC, created_at DESC LIMIT $2"
		args = append(args, category, limit)
	} else {
		query += " ORDER BY importance DESC, created_at DESC LIMIT $1"
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetMemories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []store.Memory
	for rows.Next() {
		var m store.Memory
		if err := rows.Scan(&m.Key, &m.Value, &m.Category, &m.Importance, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("GetMemories: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetMemories: %w", err)
	}

	return memories, nil
}

// GetProfile returns the profile for name, or store.ErrNotFound.
func (c *Client) GetProfile(ctx context.Context, name string) (*store.Profile, error) {
	var p store.Profile
	var interestsJSON, traitsJSON sql.NullString
	var lastInteraction sql.NullTime

	err := c.db.QueryRowContext(ctx, `
		SELECT name, interests, personality_traits, relationship_level,
		       interaction_count, artificial_experience, created_at, last_interaction
		FROM profiles
		WHERE name = $1
	`, name).Scan(
		&p.Name,
		&interestsJSON,
		&traitsJSON,
		&p.RelationshipLevel,
		&p.InteractionCount,
		&p.ArtificialExperience,
		&p.CreatedAt,
		&lastInteraction,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetProfile: %w", err)
	}

	if err := unmarshalSet(interestsJSON, &p.Interests); err != nil {
		return nil, fmt.Errorf("GetProfile: %w", err)
	}
	if err := unmarshalSet(traitsJSON, &p.PersonalityTraits); err != nil {
		return nil, fmt.Errorf("GetProfile: %w", err)
	}
	if lastInteraction.Valid {
		p.LastInteraction = lastInteraction.Time
	}

	return &p, nil
}

// SaveProfile inserts or overwrites a profile and its directory entry.
func (c *Client) SaveProfile(ctx context.Context, p *store.Profile) error {
	interestsJSON, err := json.Marshal(p.Interests)
	if err != nil {
		return fmt.Errorf("SaveProfile: %w", err)
	}
	traitsJSON, err := json.Marshal(p.PersonalityTraits)
	if err != nil {
		return fmt.Errorf("SaveProfile: %w", err)
	}

	var lastInteraction interface{}
	if !p.LastInteraction.IsZero() {
		lastInteraction = p.LastInteraction
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SaveProfile: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles
			(name, interests, personality_traits, relationship_level,
			 interaction_count, artificial_experience, created_at, last_interaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			interests = EXCLUDED.interests,
			personality_traits = EXCLUDED.personality_traits,
			relationship_level = EXCLUDED.relationship_level,
			interaction_count = EXCLUDED.interaction_count,
			artificial_experience = EXCLUDED.artificial_experience,
			last_interaction = EXCLUDED.last_interaction
	`, p.Name, string(interestsJSON), string(traitsJSON), p.RelationshipLevel,
		p.InteractionCount, p.ArtificialExperience, p.CreatedAt, lastInteraction)
	if err != nil {
		return fmt.Errorf("SaveProfile: %w", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO directory (name, created_at, last_seen)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET last_seen = EXCLUDED.last_seen
	`, p.Name, now, now)
	if err != nil {
		return fmt.Errorf("SaveProfile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("SaveProfile: %w", err)
	}

	return nil
}

// ListUsers returns all directory entries.
func (c *Client) ListUsers(ctx context.Context) ([]store.DirectoryEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name, created_at, last_seen FROM directory ORDER BY last_seen DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []store.DirectoryEntry
	for rows.Next() {
		var e store.DirectoryEntry
		if err := rows.Scan(&e.Name, &e.CreatedAt, &e.LastSeen); err != nil {
			return nil, fmt.Errorf("ListUsers: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}

	return entries, nil
}

// TouchUser refreshes last_seen for name.
func (c *Client) TouchUser(ctx context.Context, name string) error {
	result, err := c.db.ExecContext(ctx,
		`UPDATE directory SET last_seen = $1 WHERE name = $2`, time.Now(), name)
	if err != nil {
		return fmt.Errorf("TouchUser: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("TouchUser: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// CurrentUser returns the persisted current-user name, or "".
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM app_state WHERE key = 'current_user'`).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("CurrentUser: %w", err)
	}

	return name, nil
}

// SetCurrentUser persists the current-user pointer.
func (c *Client) SetCurrentUser(ctx context.Context, name string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value) VALUES ('current_user', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, name)
	if err != nil {
		return fmt.Errorf("SetCurrentUser: %w", err)
	}

	return nil
}

// SaveLesson inserts or overwrites a lesson keyed by its lowercased trigger.
func (c *Client) SaveLesson(ctx context.Context, trigger, response string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO lessons ("trigger", response, taught_at, usage_count)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT ("trigger") DO UPDATE SET
			response = EXCLUDED.response,
			taught_at = EXCLUDED.taught_at
	`, strings.ToLower(trigger), response, time.Now())
	if err != nil {
		return fmt.Errorf("SaveLesson: %w", err)
	}

	return nil
}

// ListLessons returns all lessons.
func (c *Client) ListLessons(ctx context.Context) ([]store.Lesson, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT "trigger", response, taught_at, usage_count FROM lessons ORDER BY taught_at`)
	if err != nil {
		return nil, fmt.Errorf("ListLessons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lessons []store.Lesson
	for rows.Next() {
		var l store.Lesson
		if err := rows.Scan(&l.Trigger, &l.Response, &l.TaughtAt, &l.UsageCount); err != nil {
			return nil, fmt.Errorf("ListLessons: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListLessons: %w", err)
	}

	return lessons, nil
}

// IncrementLessonUsage bumps the usage counter for trigger.
func (c *Client) IncrementLessonUsage(ctx context.Context, trigger string) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE lessons SET usage_count = usage_count + 1 WHERE "trigger" = $1`,
		strings.ToLower(trigger))
	if err != nil {
		return fmt.Errorf("IncrementLessonUsage: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func unmarshalSet(col sql.NullString, dst *[]string) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
