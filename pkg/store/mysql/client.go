// Package mysql provides the MySQL implementation of the assistant store.
//
// Column names that collide with reserved words (`key`, `trigger`) are
// backtick-quoted; otherwise the schema mirrors the SQLite backend.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/fennec-ai/fennec/pkg/store"
)

// Client implements store.Store using MySQL as the backend.
type Client struct {
	db   *sql.DB
	node *snowflake.Node
}

// Config contains MySQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// NewClient creates a new MySQL store client and initializes the schema.
func NewClient(cfg *Config) (*Client, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
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
			id VARCHAR(36) PRIMARY KEY,
			title TEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			active TINYINT(1) NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			id BIGINT PRIMARY KEY,
			conversation_id VARCHAR(36) NOT NULL,
			role VARCHAR(16) NOT NULL,
			content LONGTEXT NOT NULL,
			timestamp DATETIME(6) NOT NULL,
			INDEX idx_turns_conversation (conversation_id, timestamp)
		)`,
		`CREATE TABLE IF NOT EXISTS memories (
			` + "`key`" + ` VARCHAR(128) PRIMARY KEY,
			value TEXT NOT NULL,
			category VARCHAR(32) NOT NULL,
			importance INT NOT NULL,
			created_at DATETIME(6) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			name VARCHAR(128) PRIMARY KEY,
			interests JSON,
			personality_traits JSON,
			relationship_level INT NOT NULL DEFAULT 0,
			interaction_count INT NOT NULL DEFAULT 0,
			artificial_experience INT NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL,
			last_interaction DATETIME(6) NULL
		)`,
		`CREATE TABLE IF NOT EXISTS directory (
			name VARCHAR(128) PRIMARY KEY,
			created_at DATETIME(6) NOT NULL,
			last_seen DATETIME(6) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS app_state (
			` + "`key`" + ` VARCHAR(64) PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lessons (
			` + "`trigger`" + ` VARCHAR(255) PRIMARY KEY,
			response TEXT NOT NULL,
			taught_at DATETIME(6) NOT NULL,
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
		VALUES (?, ?, ?, ?, 1)
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
		`SELECT title FROM conversations WHERE id = ? FOR UPDATE`, conversationID,
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
		VALUES (?, ?, ?, ?, ?)
	`, c.node.Generate().Int64(), conversationID, role, content, now)
	if err != nil {
		return fmt.Errorf("AppendTurn: %w", err)
	}

	if title == store.DefaultTitle {
		title = store.DeriveTitle(content)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?
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
		WHERE conversation_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
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
		WHERE c.active = 1
		ORDER BY c.updated_at DESC
		LIMIT ?
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
		WHERE t.content LIKE ?
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
		`UPDATE conversations SET active = 0 WHERE id = ?`, conversationID)
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
		INSERT INTO memories (`+"`key`"+`, value, category, importance, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			value = VALUES(value),
			category = VALUES(category),
			importance = VALUES(importance),
			created_at = VALUES(created_at)
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
	query := "SELECT `key`, value, category, importance, created_at FROM memories"
	args := []interface{}{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY importance DESC, created_at DESC LIMIT ?"
	args = append(args, limit)

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
		WHERE name = ?
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			interests = VALUES(interests),
			personality_traits = VALUES(personality_traits),
			relationship_level = VALUES(relationship_level),
			interaction_count = VALUES(interaction_count),
			artificial_experience = VALUES(artificial_experience),
			last_interaction = VALUES(last_interaction)
	`, p.Name, string(interestsJSON), string(traitsJSON), p.RelationshipLevel,
		p.InteractionCount, p.ArtificialExperience, p.CreatedAt, lastInteraction)
	if err != nil {
		return fmt.Errorf("SaveProfile: %w", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO directory (name, created_at, last_seen)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE last_seen = VALUES(last_seen)
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
		`UPDATE directory SET last_seen = ? WHERE name = ?`, time.Now(), name)
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
		"SELECT value FROM app_state WHERE `key` = 'current_user'").Scan(&name)
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
		INSERT INTO app_state (`+"`key`"+`, value) VALUES ('current_user', ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)
	`, name)
	if err != nil {
		return fmt.Errorf("SetCurrentUser: %w", err)
	}

	return nil
}

// SaveLesson inserts or overwrites a lesson keyed by its lowercased trigger.
func (c *Client) SaveLesson(ctx context.Context, trigger, response string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO lessons (`+"`trigger`"+`, response, taught_at, usage_count)
		VALUES (?, ?, ?, 0)
		ON DUPLICATE KEY UPDATE
			response = VALUES(response),
			taught_at = VALUES(taught_at)
	`, strings.ToLower(trigger), response, time.Now())
	if err != nil {
		return fmt.Errorf("SaveLesson: %w", err)
	}

	return nil
}

// ListLessons returns all lessons.
func (c *Client) ListLessons(ctx context.Context) ([]store.Lesson, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT `trigger`, response, taught_at, usage_count FROM lessons ORDER BY taught_at")
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
		"UPDATE lessons SET usage_count = usage_count + 1 WHERE `trigger` = ?",
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
