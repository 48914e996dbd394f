// Package store persists characters, conversations, messages, and
// personas in SQLite, and per-conversation world state in Redis.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup for a row that does not exist.
var ErrNotFound = errors.New("not found")

type Character struct {
	ID          int64
	Name        string
	Description string
	PostHistory string
	CardData    []byte
	CreatedAt   time.Time
}

type Conversation struct {
	ID          int64
	CharacterID int64
	UserID      int64
	Title       string
	Scenario    string
	CreatedAt   time.Time
}

type Message struct {
	ID             int64
	ConversationID int64
	Role           string
	Content        string
	SenderName     string
	CreatedAt      time.Time
}

type Persona struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	AvatarRef   string
	Active      bool
}

// DB wraps the SQLite handle.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and
// applies the schema.
func Open(path string) (*DB, error) {
	// busy_timeout covers the api and worker processes sharing one file.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) Close() error {
	return s.db.Close()
}

func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DB) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS characters (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	post_history TEXT NOT NULL DEFAULT '',
	card_data TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS conversations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id INTEGER NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL DEFAULT '',
	scenario TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	sender_name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id);
CREATE TABLE IF NOT EXISTS personas (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	avatar_ref TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_personas_user ON personas(user_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *DB) CreateCharacter(ctx context.Context, c *Character) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO characters (name, description, post_history, card_data) VALUES (?, ?, ?, ?)`,
		c.Name, c.Description, c.PostHistory, string(c.CardData))
	if err != nil {
		return 0, fmt.Errorf("create character: %w", err)
	}
	return res.LastInsertId()
}

func (s *DB) GetCharacter(ctx context.Context, id int64) (*Character, error) {
	var c Character
	var cardData string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, post_history, card_data, created_at FROM characters WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.PostHistory, &cardData, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get character: %w", err)
	}
	c.CardData = []byte(cardData)
	return &c, nil
}

func (s *DB) ListCharacters(ctx context.Context) ([]Character, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, post_history, card_data, created_at FROM characters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var out []Character
	for rows.Next() {
		var c Character
		var cardData string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.PostHistory, &cardData, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		c.CardData = []byte(cardData)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *DB) UpdateCharacter(ctx context.Context, c *Character) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE characters SET name = ?, description = ?, post_history = ?, card_data = ? WHERE id = ?`,
		c.Name, c.Description, c.PostHistory, string(c.CardData), c.ID)
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("character %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (s *DB) DeleteCharacter(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *DB) CreateConversation(ctx context.Context, c *Conversation) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (character_id, user_id, title, scenario) VALUES (?, ?, ?, ?)`,
		c.CharacterID, c.UserID, c.Title, c.Scenario)
	if err != nil {
		return 0, fmt.Errorf("create conversation: %w", err)
	}
	return res.LastInsertId()
}

func (s *DB) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, character_id, user_id, title, scenario, created_at FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.CharacterID, &c.UserID, &c.Title, &c.Scenario, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &c, nil
}

func (s *DB) ListConversations(ctx context.Context, userID int64) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, character_id, user_id, title, scenario, created_at FROM conversations WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.CharacterID, &c.UserID, &c.Title, &c.Scenario, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *DB) UpdateConversationScenario(ctx context.Context, id int64, scenario string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET scenario = ? WHERE id = ?`, scenario, id)
	if err != nil {
		return fmt.Errorf("update conversation scenario: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *DB) DeleteConversation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *DB) AddMessage(ctx context.Context, m *Message) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, sender_name) VALUES (?, ?, ?, ?)`,
		m.ConversationID, m.Role, m.Content, m.SenderName)
	if err != nil {
		return 0, fmt.Errorf("add message: %w", err)
	}
	return res.LastInsertId()
}

func (s *DB) ListMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, sender_name, created_at FROM messages WHERE conversation_id = ? ORDER BY id`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// RecentMessages returns the last limit messages in chronological order.
func (s *DB) RecentMessages(ctx context.Context, conversationID int64, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, sender_name, created_at
		 FROM (SELECT * FROM messages WHERE conversation_id = ? ORDER BY id DESC LIMIT ?)
		 ORDER BY id`,
		conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.SenderName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *DB) DeleteMessage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	return nil
}

// ResetConversation deletes all messages of a conversation but keeps the
// conversation row.
func (s *DB) ResetConversation(ctx context.Context, conversationID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("reset conversation: %w", err)
	}
	return nil
}

func (s *DB) CreatePersona(ctx context.Context, p *Persona) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO personas (user_id, name, description, avatar_ref, active) VALUES (?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Description, p.AvatarRef, p.Active)
	if err != nil {
		return 0, fmt.Errorf("create persona: %w", err)
	}
	return res.LastInsertId()
}

// SetActivePersona marks one persona active for a user and deactivates
// the rest.
func (s *DB) SetActivePersona(ctx context.Context, userID, personaID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set active persona: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE personas SET active = 0 WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deactivate personas: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE personas SET active = 1 WHERE id = ? AND user_id = ?`, personaID, userID)
	if err != nil {
		return fmt.Errorf("activate persona: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("persona %d: %w", personaID, ErrNotFound)
	}
	return tx.Commit()
}

// ActivePersona returns the user's active persona, or ErrNotFound when
// the user has none.
func (s *DB) ActivePersona(ctx context.Context, userID int64) (*Persona, error) {
	var p Persona
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, description, avatar_ref, active FROM personas WHERE user_id = ? AND active = 1 LIMIT 1`,
		userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.AvatarRef, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active persona for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("active persona: %w", err)
	}
	return &p, nil
}

func (s *DB) ListPersonas(ctx context.Context, userID int64) ([]Persona, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, description, avatar_ref, active FROM personas WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	defer rows.Close()

	var out []Persona
	for rows.Next() {
		var p Persona
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.AvatarRef, &p.Active); err != nil {
			return nil, fmt.Errorf("scan persona: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
