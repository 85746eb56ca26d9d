package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, user_id, subtotal, tax, shipping, total, discount_amount, final_total,
	points_earned, delivery_bonus_points, packaging_bonus_points, points_redeemed,
	free_shipping_applied, delivery_option, eco_packaging, shipping_address,
	status, payment_status, idempotency_key, created_at, updated_at`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.Subtotal,
		order.Tax,
		order.Shipping,
		order.Total,
		order.DiscountAmount,
		order.FinalTotal,
		order.PointsEarned,
		order.DeliveryBonusPoints,
		order.PackagingBonusPoints,
		order.PointsRedeemed,
		order.FreeShippingApplied,
		order.DeliveryOption,
		order.EcoPackaging,
		order.ShippingAddress,
		order.Status,
		order.PaymentStatus,
		order.IdempotencyKey,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderLines inserts the frozen lines of an order within the provided transaction.
// Lines keep the position they had in the cart.
func (r *orderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_lines (id, order_id, product_id, display_name, variant, unit_price, points_per_unit, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for i, line := range lines {
		batch.Queue(query,
			line.ID,
			line.OrderID,
			line.ProductID,
			line.DisplayName,
			line.Variant,
			line.UnitPrice,
			line.PointsPerUnit,
			line.Quantity,
			i,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(lines); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", lines[i].OrderID.String()).
				Str("product_id", lines[i].ProductID).
				Msg("failed to create order line")
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(lines)).
		Msg("order lines created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its lines.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.getOne(ctx, r.pool, query, id)
}

// GetByIdempotencyKey finds the order a user placed with the given key.
func (r *orderRepository) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND idempotency_key = $2`
	return r.getOne(ctx, r.pool, query, userID, key)
}

// GetForUpdate retrieves and row-locks an order within the provided transaction.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, tx, query, id)
}

// ListByUser retrieves a user's orders, newest first, with their lines.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	index := map[uuid.UUID]int{}
	ids := []uuid.UUID{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.Items = []model.OrderLine{}
		index[order.ID] = len(orders)
		ids = append(ids, order.ID)
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	lines, err := r.loadLines(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		i := index[line.OrderID]
		orders[i].Items = append(orders[i].Items, line)
	}

	return orders, nil
}

// UpdateStatus sets the status of an order within the provided transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, at time.Time) error {
	tag, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) getOne(ctx context.Context, q querier, query string, args ...any) (*model.Order, error) {
	order, err := scanOrder(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	lines, err := r.loadLines(ctx, q, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = lines

	return order, nil
}

func (r *orderRepository) loadLines(ctx context.Context, q querier, orderIDs []uuid.UUID) ([]model.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, display_name, variant, unit_price, points_per_unit, quantity
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(orderIDs)).Msg("failed to query order lines")
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	lines := []model.OrderLine{}
	for rows.Next() {
		var line model.OrderLine
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.DisplayName,
			&line.Variant,
			&line.UnitPrice,
			&line.PointsPerUnit,
			&line.Quantity,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order line rows")
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return lines, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Subtotal,
		&o.Tax,
		&o.Shipping,
		&o.Total,
		&o.DiscountAmount,
		&o.FinalTotal,
		&o.PointsEarned,
		&o.DeliveryBonusPoints,
		&o.PackagingBonusPoints,
		&o.PointsRedeemed,
		&o.FreeShippingApplied,
		&o.DeliveryOption,
		&o.EcoPackaging,
		&o.ShippingAddress,
		&o.Status,
		&o.PaymentStatus,
		&o.IdempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
