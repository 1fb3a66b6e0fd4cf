package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"sewconnect-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationRepository struct {
	pool *pgxpool.Pool
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// GetOrCreate returns the unique conversation for the pair, inserting it
// seeded with the given messages if absent. The UNIQUE (customer_id,
// seamstress_id) constraint makes concurrent first calls safe: the losing
// insert is a no-op and both callers read the same row. The second return
// value reports whether this call created the row.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, customerID, seamstressID string, seed []model.Message) (*model.Conversation, bool, error) {
	seedJSON, err := json.Marshal(seed)
	if err != nil {
		return nil, false, fmt.Errorf("marshal seed messages: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO conversations (customer_id, seamstress_id, messages)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, seamstress_id) DO NOTHING
	`, customerID, seamstressID, seedJSON)
	if err != nil {
		return nil, false, err
	}
	created := tag.RowsAffected() == 1

	conv := &model.Conversation{}
	var raw []byte
	err = r.pool.QueryRow(ctx, `
		SELECT id, customer_id, seamstress_id, messages, status, created_at, updated_at
		FROM conversations
		WHERE customer_id = $1 AND seamstress_id = $2
	`, customerID, seamstressID).Scan(
		&conv.ID, &conv.CustomerID, &conv.SeamstressID, &raw, &conv.Status, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(raw, &conv.Messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal messages: %w", err)
	}
	return conv, created, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	conv := &model.Conversation{}
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, customer_id, seamstress_id, messages, status, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`, id).Scan(
		&conv.ID, &conv.CustomerID, &conv.SeamstressID, &raw, &conv.Status, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &conv.Messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	return conv, nil
}

// ReplaceMessages overwrites the stored message sequence with the caller's
// full view and refreshes updated_at. Callers always supply previous + new
// entries; the last committed writer's view wins.
func (r *ConversationRepository) ReplaceMessages(ctx context.Context, id string, msgs []model.Message) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE conversations SET messages = $2, updated_at = NOW() WHERE id = $1
	`, id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ConversationRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.Conversation, error) {
	return r.list(ctx, "customer_id", customerID)
}

func (r *ConversationRepository) ListBySeamstress(ctx context.Context, seamstressID string) ([]model.Conversation, error) {
	return r.list(ctx, "seamstress_id", seamstressID)
}

func (r *ConversationRepository) list(ctx context.Context, column, id string) ([]model.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT id, customer_id, seamstress_id, messages, status, created_at, updated_at
		FROM conversations
		WHERE %s = $1
		ORDER BY updated_at DESC
	`, column)

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		var raw []byte
		if err := rows.Scan(
			&conv.ID, &conv.CustomerID, &conv.SeamstressID, &raw, &conv.Status, &conv.CreatedAt, &conv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &conv.Messages); err != nil {
			return nil, fmt.Errorf("unmarshal messages: %w", err)
		}
		convs = append(convs, conv)
	}

	if convs == nil {
		convs = []model.Conversation{}
	}
	return convs, nil
}

func (r *ConversationRepository) CountTotal(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count)
	return count, err
}
