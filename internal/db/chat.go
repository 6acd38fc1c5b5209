package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository handles conversation and chat message database operations.
type ChatRepository struct {
	pool *pgxpool.Pool
}

// GetOrCreateConversation returns the user's conversation, creating it
// on first use. Each user has a single thread with the assistant.
func (r *ChatRepository) GetOrCreateConversation(ctx context.Context, userID uuid.UUID) (*Conversation, error) {
	var conv Conversation
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM conversations WHERE user_id = $1
		 ORDER BY created_at LIMIT 1`, userID,
	).Scan(&conv.ID, &conv.UserID, &conv.CreatedAt)
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	conv = Conversation{ID: uuid.New(), UserID: userID}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO conversations (id, user_id, created_at) VALUES ($1, $2, NOW())
		 RETURNING created_at`,
		conv.ID, conv.UserID,
	).Scan(&conv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return &conv, nil
}

// ListRecentMessages retrieves the last limit messages of a
// conversation in chronological order.
func (r *ChatRepository) ListRecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]ChatMessage, error) {
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM (
			SELECT id, conversation_id, role, content, created_at
			FROM chat_messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// AppendExchange persists a user message and the assistant's reply as
// one transaction, linking the topics used as context to the reply.
func (r *ChatRepository) AppendExchange(ctx context.Context, conversationID uuid.UUID, userMsg, assistantMsg *ChatMessage, topicIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO chat_messages (id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	if err := tx.QueryRow(ctx, insert,
		userMsg.ID, conversationID, RoleUser, userMsg.Content,
	).Scan(&userMsg.CreatedAt); err != nil {
		return fmt.Errorf("inserting user message: %w", err)
	}

	if err := tx.QueryRow(ctx, insert,
		assistantMsg.ID, conversationID, RoleAssistant, assistantMsg.Content,
	).Scan(&assistantMsg.CreatedAt); err != nil {
		return fmt.Errorf("inserting assistant message: %w", err)
	}

	for _, topicID := range topicIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO message_topics (message_id, topic_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			assistantMsg.ID, topicID); err != nil {
			return fmt.Errorf("linking context topic: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing exchange: %w", err)
	}
	return nil
}

// CountUserMessagesSince returns the number of user-role messages a
// user has sent since the given time. Drives the per-user rate limit.
func (r *ChatRepository) CountUserMessagesSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM chat_messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.user_id = $1 AND m.role = 'user' AND m.created_at >= $2
	`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting user messages: %w", err)
	}
	return count, nil
}

// CountAllUserMessagesSince returns the number of user-role messages
// across all users since the given time. Drives the daily budget.
func (r *ChatRepository) CountAllUserMessagesSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE role = 'user' AND created_at >= $1`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting all user messages: %w", err)
	}
	return count, nil
}

// ListMessageTopics retrieves the topics linked to an assistant message.
func (r *ChatRepository) ListMessageTopics(ctx context.Context, messageID uuid.UUID) ([]Topic, error) {
	query := `
		SELECT t.id, t.slug, t.title, t.category, t.difficulty, t.summary, t.body, t.tags
		FROM topics t
		JOIN message_topics mt ON mt.topic_id = t.id
		WHERE mt.message_id = $1
		ORDER BY t.title
	`
	rows, err := r.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("querying message topics: %w", err)
	}
	defer rows.Close()
	return scanTopics(rows)
}
