package messages

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts a message or replaces it by id. Messages are immutable
// server-side, so a replace only ever rewrites identical content.
func (r *SQLiteRepository) Upsert(ctx context.Context, m *models.EncryptedMessage) error {
	query := `INSERT INTO messages (id, conversation_id, sender_id, content, ts)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET content = excluded.content, ts = excluded.ts
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.ConversationID, m.SenderID, m.Content, m.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}
	return nil
}

// UpsertBatch stores a page of messages in one transaction, so a merge
// is either fully cached or not at all. Falls back to per-row writes when
// the repository is already bound to a transaction.
func (r *SQLiteRepository) UpsertBatch(ctx context.Context, msgs []models.EncryptedMessage) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		for i := range msgs {
			if err := r.Upsert(ctx, &msgs[i]); err != nil {
				return err
			}
		}
		return nil
	}

	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := NewSQLiteRepository(tx)
		for i := range msgs {
			if err := txRepo.Upsert(ctx, &msgs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByConversation lists up to limit newest cached messages, newest first.
func (r *SQLiteRepository) GetByConversation(ctx context.Context, conversationID string, limit int) ([]models.EncryptedMessage, error) {
	query := `SELECT id, conversation_id, sender_id, content, ts
			FROM messages WHERE conversation_id = ?
			ORDER BY ts DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []models.EncryptedMessage
	for rows.Next() {
		var item models.EncryptedMessage
		if err := rows.Scan(&item.ID, &item.ConversationID, &item.SenderID, &item.Content, &item.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByID removes a cached message. Deleting an id that is not cached
// is not an error.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// PurgeConversation drops all cached messages of a conversation.
func (r *SQLiteRepository) PurgeConversation(ctx context.Context, conversationID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("failed to purge conversation: %w", err)
	}
	return nil
}
