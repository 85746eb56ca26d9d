package repository

import (
	"context"
	"errors"
	"fmt"

	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const redemptionColumns = `id, user_id, reward_id, reward_kind, points_spent, discount_amount, order_id, status, redeemed_at, expires_at`

// redemptionRepository implements the RedemptionRepository interface using PostgreSQL.
type redemptionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRedemptionRepository creates a new PostgreSQL-backed redemption repository.
func NewRedemptionRepository(pool *pgxpool.Pool, logger zerolog.Logger) RedemptionRepository {
	return &redemptionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "redemption").Logger(),
	}
}

// Create inserts a redemption within the provided transaction.
func (r *redemptionRepository) Create(ctx context.Context, tx pgx.Tx, redemption *model.Redemption) error {
	query := `INSERT INTO redemptions (` + redemptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.Exec(ctx, query,
		redemption.ID,
		redemption.UserID,
		redemption.RewardID,
		redemption.RewardKind,
		redemption.PointsSpent,
		redemption.DiscountAmount,
		redemption.OrderID,
		redemption.Status,
		redemption.RedeemedAt,
		redemption.ExpiresAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("redemption_id", redemption.ID.String()).
			Str("reward_id", redemption.RewardID).
			Msg("failed to create redemption")
		return fmt.Errorf("failed to create redemption: %w", err)
	}

	return nil
}

// GetForUpdate retrieves and row-locks a redemption.
func (r *redemptionRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Redemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE id = $1 FOR UPDATE`

	redemption, err := scanRedemption(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("redemption_id", id.String()).Msg("redemption not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("redemption_id", id.String()).Msg("failed to query redemption")
		return nil, fmt.Errorf("failed to query redemption: %w", err)
	}

	return redemption, nil
}

// Update writes the status, order and discount of a redemption.
func (r *redemptionRepository) Update(ctx context.Context, tx pgx.Tx, redemption *model.Redemption) error {
	query := `
		UPDATE redemptions
		SET status = $2, order_id = $3, discount_amount = $4
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, redemption.ID, redemption.Status, redemption.OrderID, redemption.DiscountAmount)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("redemption_id", redemption.ID.String()).
			Msg("failed to update redemption")
		return fmt.Errorf("failed to update redemption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRewardNotFound
	}

	return nil
}

// ListByOrder retrieves and row-locks the redemptions applied to an order.
func (r *redemptionRepository) ListByOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.Redemption, error) {
	query := `SELECT ` + redemptionColumns + `
		FROM redemptions
		WHERE order_id = $1
		ORDER BY redeemed_at, id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order redemptions")
		return nil, fmt.Errorf("failed to query order redemptions: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ListByUser retrieves a user's redemptions, newest first.
func (r *redemptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	query := `SELECT ` + redemptionColumns + `
		FROM redemptions
		WHERE user_id = $1
		ORDER BY redeemed_at DESC, id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query redemptions")
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *redemptionRepository) collect(rows pgx.Rows) ([]model.Redemption, error) {
	redemptions := []model.Redemption{}
	for rows.Next() {
		redemption, err := scanRedemption(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan redemption row")
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		redemptions = append(redemptions, *redemption)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating redemption rows")
		return nil, fmt.Errorf("error iterating redemptions: %w", err)
	}

	return redemptions, nil
}

func scanRedemption(row pgx.Row) (*model.Redemption, error) {
	var rd model.Redemption
	err := row.Scan(
		&rd.ID,
		&rd.UserID,
		&rd.RewardID,
		&rd.RewardKind,
		&rd.PointsSpent,
		&rd.DiscountAmount,
		&rd.OrderID,
		&rd.Status,
		&rd.RedeemedAt,
		&rd.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &rd, nil
}
