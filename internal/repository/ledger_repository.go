package repository

import (
	"context"
	"fmt"
	"time"

	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ledgerRepository implements the LedgerRepository interface using PostgreSQL.
type ledgerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewLedgerRepository creates a new PostgreSQL-backed ledger repository.
func NewLedgerRepository(pool *pgxpool.Pool, logger zerolog.Logger) LedgerRepository {
	return &ledgerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "ledger").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *ledgerRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// LockAccount creates the account row if needed, locks it and returns the cached balance.
func (r *ledgerRepository) LockAccount(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO loyalty_accounts (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to create loyalty account")
		return 0, fmt.Errorf("failed to create loyalty account: %w", err)
	}

	var balance int64
	err = tx.QueryRow(ctx, `SELECT balance FROM loyalty_accounts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to lock loyalty account")
		return 0, fmt.Errorf("failed to lock loyalty account: %w", err)
	}

	return balance, nil
}

// AppendEntry inserts an immutable ledger entry.
func (r *ledgerRepository) AppendEntry(ctx context.Context, tx pgx.Tx, entry *model.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, user_id, delta, reason, order_id, redemption_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Delta,
		entry.Reason,
		entry.OrderID,
		entry.RedemptionID,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", entry.UserID.String()).
			Str("reason", string(entry.Reason)).
			Int64("delta", entry.Delta).
			Msg("failed to append ledger entry")
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

// SetBalance updates the cached running balance of a locked account.
func (r *ledgerRepository) SetBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balance int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE loyalty_accounts SET balance = $2, updated_at = $3 WHERE user_id = $1`,
		userID, balance, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to update balance")
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// Balance returns the cached balance, zero for unknown users.
func (r *ledgerRepository) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE((SELECT balance FROM loyalty_accounts WHERE user_id = $1), 0)`,
		userID,
	).Scan(&balance)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query balance")
		return 0, fmt.Errorf("failed to query balance: %w", err)
	}
	return balance, nil
}

// Entries returns a user's entries, most recent first.
func (r *ledgerRepository) Entries(ctx context.Context, userID uuid.UUID, limit int) ([]model.LedgerEntry, error) {
	query := `
		SELECT id, user_id, delta, reason, order_id, redemption_id, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query ledger entries")
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []model.LedgerEntry{}
	for rows.Next() {
		var e model.LedgerEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.Delta, &e.Reason, &e.OrderID, &e.RedemptionID, &e.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan ledger entry row")
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating ledger entry rows")
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}
