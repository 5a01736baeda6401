package repository

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"koomia/api/internal/models"
)

const orderColumns = `id, reference, account_id, address_id, items, total, status, created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, order models.Order) error {
	const query = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.Reference,
		order.AccountID,
		order.AddressID,
		nonNil(order.Items),
		order.Total,
		order.Status,
	)
	return translate(err)
}

// reserveVariant takes qty units off one variant, only while enough remain.
// The row lock taken by the UPDATE serialises concurrent reservations.
const reserveVariant = `
	UPDATE products p SET
		variants = (
			SELECT jsonb_agg(
				CASE WHEN v->>'id' = $2
					THEN jsonb_set(v, '{stockQuantity}', to_jsonb((v->>'stockQuantity')::int - $3))
					ELSE v
				END ORDER BY ord)
			FROM jsonb_array_elements(p.variants) WITH ORDINALITY AS t(v, ord)
		),
		updated_at = NOW()
	WHERE p.id = $1 AND EXISTS (
		SELECT 1 FROM jsonb_array_elements(p.variants) AS v
		WHERE v->>'id' = $2 AND (v->>'stockQuantity')::int >= $3
	)
`

// Place reserves stock for every line, inserts the order and empties the
// owner's cart in one transaction. A line that cannot be covered rolls all of
// it back with a *StockError.
func (r *OrderRepository) Place(ctx context.Context, order models.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// A fixed lock order keeps two checkouts over the same products from
	// deadlocking.
	lines := append([]models.OrderItem(nil), order.Items...)
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].VariantID < lines[j].VariantID
	})
	for _, line := range lines {
		tag, err := tx.Exec(ctx, reserveVariant, line.ProductID, line.VariantID, line.Quantity)
		if err != nil {
			return translate(err)
		}
		if tag.RowsAffected() == 0 {
			return &StockError{ProductID: line.ProductID, VariantID: line.VariantID}
		}
	}

	const insert = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	if _, err := tx.Exec(ctx, insert,
		order.ID,
		order.Reference,
		order.AccountID,
		order.AddressID,
		nonNil(order.Items),
		order.Total,
		order.Status,
	); err != nil {
		return translate(err)
	}

	const clearCart = `UPDATE carts SET items = '[]', total = 0, updated_at = NOW() WHERE account_id = $1`
	if _, err := tx.Exec(ctx, clearCart, order.AccountID); err != nil {
		return translate(err)
	}
	return translate(tx.Commit(ctx))
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (models.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	var order models.Order
	if err := r.pool.QueryRow(ctx, query, id).Scan(orderFields(&order)...); err != nil {
		return models.Order{}, translate(err)
	}
	return order, nil
}

func (r *OrderRepository) ListByAccount(ctx context.Context, accountID string) ([]models.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE account_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	orders, _, err := collectOrders(rows, false)
	return orders, err
}

// List pages through all orders, optionally narrowed to one status.
func (r *OrderRepository) List(ctx context.Context, status models.OrderStatus, page, limit int) ([]models.Order, int, error) {
	const query = `
		SELECT ` + orderColumns + `, COUNT(*) OVER ()
		FROM orders
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(status), limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	return collectOrders(rows, true)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	const query = `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1 AND (status = $2 OR status NOT IN ($3, $4))
	`
	return affected(r.pool.Exec(ctx, query, id, status, models.OrderDelivered, models.OrderCancelled))
}

func (r *OrderRepository) CancelStale(ctx context.Context, before time.Time) (int64, error) {
	const query = `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3
	`
	tag, err := r.pool.Exec(ctx, query, models.OrderCancelled, models.OrderPending, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func orderFields(order *models.Order) []any {
	return []any{
		&order.ID,
		&order.Reference,
		&order.AccountID,
		&order.AddressID,
		&order.Items,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	}
}

func collectOrders(rows pgx.Rows, counted bool) ([]models.Order, int, error) {
	defer rows.Close()

	var (
		orders []models.Order
		total  int
	)
	for rows.Next() {
		var order models.Order
		fields := orderFields(&order)
		if counted {
			fields = append(fields, &total)
		}
		if err := rows.Scan(fields...); err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	return orders, total, rows.Err()
}
