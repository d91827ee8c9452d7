// chat_repository.go implements ChatRepository, the persistence layer for the
// chat audit trail. Exchanges are append-only rows; the two reply fields are
// independently overwritable by an administrator and nothing is ever deleted.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/psych-platform/chatbot-backend/internal/db/models"
)

// ChatRepository handles chat-exchange database operations
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create persists a new exchange with the provider's reply and an empty admin
// reply, returning the stored record.
func (r *ChatRepository) Create(ctx context.Context, username, providerReply string) (*models.ChatExchange, error) {
	now := time.Now()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_exchanges (username, provider_reply, admin_reply, created_at)
		 VALUES (?, ?, '', ?)`,
		username, providerReply, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat exchange: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange id: %w", err)
	}

	return &models.ChatExchange{
		ID:            id,
		Username:      username,
		ProviderReply: providerReply,
		AdminReply:    "",
		CreatedAt:     now,
	}, nil
}

// List returns all exchanges, newest first
func (r *ChatRepository) List(ctx context.Context) ([]models.ChatExchange, error) {
	exchanges := []models.ChatExchange{}
	err := r.db.SelectContext(ctx, &exchanges,
		`SELECT id, username, provider_reply, admin_reply, created_at
		 FROM chat_exchanges
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat exchanges: %w", err)
	}
	return exchanges, nil
}

// SetProviderReply overwrites the provider side of an exchange. The previous
// value is irrecoverable once overwritten.
func (r *ChatRepository) SetProviderReply(ctx context.Context, id int64, text string) error {
	return r.setField(ctx, "provider_reply", id, text)
}

// SetAdminReply overwrites the administrator's annotation on an exchange,
// never touching the provider side.
func (r *ChatRepository) SetAdminReply(ctx context.Context, id int64, text string) error {
	return r.setField(ctx, "admin_reply", id, text)
}

func (r *ChatRepository) setField(ctx context.Context, column string, id int64, text string) error {
	// column is one of two compile-time constants, never caller input.
	query := fmt.Sprintf(`UPDATE chat_exchanges SET %s = ? WHERE id = ?`, column)

	res, err := r.db.ExecContext(ctx, query, text, id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
