package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"sewconnect-backend/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	snapshot, err := json.Marshal(order.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO orders (order_ref, conversation_id, seamstress_id, customer_id, customer_name, status, measurements, snapshot)
		VALUES ($1, $2, $3, $4, $5, 'queued', $6, $7)
		RETURNING id, created_at, updated_at
	`,
		order.OrderRef, order.ConversationID, order.SeamstressID, order.CustomerID, order.CustomerName,
		order.Measurements, snapshot,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	order.Status = model.OrderQueued
	return order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	o := &model.Order{}
	var snapshot []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, order_ref, conversation_id, seamstress_id, customer_id, customer_name,
		       status, measurements, snapshot, created_at, updated_at
		FROM orders WHERE id = $1
	`, id).Scan(
		&o.ID, &o.OrderRef, &o.ConversationID, &o.SeamstressID, &o.CustomerID, &o.CustomerName,
		&o.Status, &o.Measurements, &snapshot, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &o.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) ListBySeamstress(ctx context.Context, seamstressID string, status string) ([]model.Order, error) {
	query := `
		SELECT id, order_ref, conversation_id, seamstress_id, customer_id, customer_name,
		       status, measurements, snapshot, created_at, updated_at
		FROM orders
		WHERE seamstress_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{seamstressID}
	if status != "" && status != "all" {
		query = `
			SELECT id, order_ref, conversation_id, seamstress_id, customer_id, customer_name,
			       status, measurements, snapshot, created_at, updated_at
			FROM orders
			WHERE seamstress_id = $1 AND status = $2
			ORDER BY created_at DESC
		`
		args = append(args, status)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var snapshot []byte
		if err := rows.Scan(
			&o.ID, &o.OrderRef, &o.ConversationID, &o.SeamstressID, &o.CustomerID, &o.CustomerName,
			&o.Status, &o.Measurements, &snapshot, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &o.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		orders = append(orders, o)
	}

	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// UpdateStatus is the out-of-core status transition used by the seamstress
// dashboard. It never touches the snapshot.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, seamstressID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND seamstress_id = $2
	`, id, seamstressID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found or not owned")
	}
	return nil
}

func (r *OrderRepository) CountTotal(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	return count, err
}
