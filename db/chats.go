package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Chat is a conversation container. UpdatedAt is bumped on every message
// so the listing can sort by recency without scanning messages twice.
type Chat struct {
	ID        int       `db:"id" json:"id"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ChatPreview is one row of the chat list: the chat plus its most recent
// message, if any.
type ChatPreview struct {
	ID           int       `db:"id"`
	LastMessage  string    `db:"last_message"`
	LastActivity time.Time `db:"last_activity"`
	HasMessages  bool      `db:"has_messages"`
}

// Message is append-only; id order equals creation order.
type Message struct {
	ID        int64     `db:"id" json:"id"`
	ChatID    int       `db:"chat_id" json:"chatId"`
	SenderID  int       `db:"sender_id" json:"senderId"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// IsChatParticipant is the membership predicate gating every chat read
// and write.
func (s *Storage) IsChatParticipant(ctx context.Context, userID, chatID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id = $1 AND user_id = $2)`
	err := s.db.GetContext(ctx, &exists, query, chatID, userID)
	return exists, err
}

// GetUserChats lists every chat the user participates in, annotated with
// the latest message. Chats with at least one message sort above empty
// ones, then by recency, then by id descending for a stable order.
func (s *Storage) GetUserChats(ctx context.Context, userID int) ([]ChatPreview, error) {
	chats := []ChatPreview{}
	query := `
        SELECT ch.id,
               COALESCE(m.text, '') AS last_message,
               COALESCE(m.created_at, ch.updated_at) AS last_activity,
               m.id IS NOT NULL AS has_messages
        FROM chats ch
        JOIN chat_participants cp ON cp.chat_id = ch.id AND cp.user_id = $1
        LEFT JOIN LATERAL (
            SELECT id, text, created_at
            FROM messages
            WHERE chat_id = ch.id
            ORDER BY id DESC
            LIMIT 1
        ) m ON true
        ORDER BY (m.id IS NULL) ASC, last_activity DESC, ch.id DESC`
	err := s.db.SelectContext(ctx, &chats, query, userID)
	return chats, err
}

// CreateOrGetDirectChat returns the two-party chat between userID and
// peerID, creating it (with both memberships) when none exists.
func (s *Storage) CreateOrGetDirectChat(ctx context.Context, userID, peerID int) (int, error) {
	var chatID int
	query := `
        SELECT a.chat_id
        FROM chat_participants a
        JOIN chat_participants b ON a.chat_id = b.chat_id AND b.user_id = $2
        WHERE a.user_id = $1
        GROUP BY a.chat_id
        HAVING (SELECT COUNT(1) FROM chat_participants c WHERE c.chat_id = a.chat_id) = 2
        LIMIT 1`
	err := s.db.GetContext(ctx, &chatID, query, userID, peerID)
	if err == nil {
		return chatID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx,
		`INSERT INTO chats DEFAULT VALUES RETURNING id`).Scan(&chatID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2), ($1, $3)`,
		chatID, userID, peerID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return chatID, nil
}

func (s *Storage) GetChatMessages(ctx context.Context, chatID int) ([]Message, error) {
	messages := []Message{}
	query := `
        SELECT id, chat_id, sender_id, text, created_at
        FROM messages
        WHERE chat_id = $1
        ORDER BY id ASC`
	err := s.db.SelectContext(ctx, &messages, query, chatID)
	return messages, err
}

// SendMessage appends the message and bumps the chat's recency as one
// transaction. A message must never exist without the bump, or the chat
// list ordering goes stale.
func (s *Storage) SendMessage(ctx context.Context, chatID, senderID int, text string) (*Message, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m := &Message{ChatID: chatID, SenderID: senderID, Text: text}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, text) VALUES ($1, $2, $3)
         RETURNING id, created_at`,
		chatID, senderID, text).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE chats SET updated_at = NOW() WHERE id = $1`, chatID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}
