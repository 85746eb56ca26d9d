// Package ledger owns EcoPoints balances as an append-only ledger and
// enforces at-most-once use of redemptions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eco-kart/internal/model"
	"eco-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Ledger defines the loyalty ledger operations.
//
// Every method taking a pgx.Tx must run inside WithUser for the same user.
// WithUser holds a per-user lock for the whole transaction, and the account
// row is locked in the database, so a balance read through BalanceTx stays
// valid for later debits in the same transaction.
type Ledger interface {
	// WithUser runs fn in a transaction serialised against all other ledger
	// work for userID. The transaction commits only if fn returns nil.
	WithUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx) error) error

	// BalanceTx returns the user's balance inside the transaction.
	BalanceTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error)

	// Credit appends an earn or refund entry. amount must be positive.
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, reason model.EntryReason, ref model.EntryRef) (*model.LedgerEntry, error)

	// Debit appends a redeem or clawback entry if the balance covers it,
	// otherwise it fails with ErrInsufficientPoints and appends nothing.
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, reason model.EntryReason, ref model.EntryRef) (*model.LedgerEntry, error)

	// Claim creates an active redemption and debits its points cost.
	Claim(ctx context.Context, tx pgx.Tx, req ClaimRequest) (*model.Redemption, error)

	// MarkRedemptionUsed moves an active redemption to used on behalf of an order.
	MarkRedemptionUsed(ctx context.Context, tx pgx.Tx, redemptionID, orderID uuid.UUID, discount decimal.Decimal) (*model.Redemption, error)

	// Refund credits back a used redemption and marks it refunded.
	Refund(ctx context.Context, tx pgx.Tx, redemptionID uuid.UUID) (*model.Redemption, error)

	// Redemption returns and locks a redemption, or nil if it does not exist.
	Redemption(ctx context.Context, tx pgx.Tx, redemptionID uuid.UUID) (*model.Redemption, error)

	// OrderRedemptions returns and locks the redemptions applied to an order.
	OrderRedemptions(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.Redemption, error)

	// BalanceOf returns the user's current balance.
	BalanceOf(ctx context.Context, userID uuid.UUID) (int64, error)

	// History returns the user's entries, most recent first.
	History(ctx context.Context, userID uuid.UUID, limit int) ([]model.LedgerEntry, error)

	// Redemptions returns the user's redemptions with expiry evaluated now.
	Redemptions(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error)
}

// ClaimRequest describes a reward being paid for with points.
type ClaimRequest struct {
	UserID     uuid.UUID
	Reward     model.Reward
	PointsCost int64
	// OrderID links the debit to the order paying for it, if any.
	OrderID   *uuid.UUID
	ExpiresAt *time.Time
}

var errReasonMismatch = errors.New("ledger: entry reason does not match operation")

// defaultTxTimeout bounds a ledger transaction once it has started.
const defaultTxTimeout = 30 * time.Second

type ledger struct {
	entries     repository.LedgerRepository
	redemptions repository.RedemptionRepository
	locks       *userLocks
	txTimeout   time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLedger creates a ledger backed by the given repositories.
func NewLedger(entries repository.LedgerRepository, redemptions repository.RedemptionRepository, logger zerolog.Logger) Ledger {
	return &ledger{
		entries:     entries,
		redemptions: redemptions,
		locks:       newUserLocks(),
		txTimeout:   defaultTxTimeout,
		logger:      logger.With().Str("component", "ledger").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithUser runs fn under the user's lock inside a single transaction.
// Errors that are not domain errors are reported as persistence failures.
//
// ctx bounds only the wait for the lock. Once the lock is held the
// transaction runs to commit or rollback on a context that ignores ctx
// cancellation and is limited by txTimeout instead.
func (l *ledger) WithUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	unlock, err := l.locks.acquire(ctx, userID)
	if err != nil {
		return model.NewPersistenceFailure(err)
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return model.NewPersistenceFailure(err)
	}

	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.txTimeout)
	defer cancel()

	tx, err := l.entries.BeginTx(txCtx)
	if err != nil {
		return model.NewPersistenceFailure(err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(txCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				l.logger.Error().Err(rbErr).Str("user_id", userID.String()).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = fn(txCtx, tx); err != nil {
		if _, ok := model.AsDomainError(err); !ok {
			err = model.NewPersistenceFailure(err)
		}
		return err
	}

	if err = tx.Commit(txCtx); err != nil {
		l.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to commit transaction")
		err = model.NewPersistenceFailure(err)
		return err
	}

	return nil
}

func (l *ledger) BalanceTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error) {
	return l.entries.LockAccount(ctx, tx, userID)
}

func (l *ledger) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, reason model.EntryReason, ref model.EntryRef) (*model.LedgerEntry, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	if !reason.IsCredit() {
		return nil, errReasonMismatch
	}
	return l.apply(ctx, tx, userID, amount, reason, ref)
}

func (l *ledger) Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, reason model.EntryReason, ref model.EntryRef) (*model.LedgerEntry, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	if !reason.IsDebit() {
		return nil, errReasonMismatch
	}
	return l.apply(ctx, tx, userID, -amount, reason, ref)
}

// apply appends one signed entry and moves the cached balance with it.
func (l *ledger) apply(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta int64, reason model.EntryReason, ref model.EntryRef) (*model.LedgerEntry, error) {
	balance, err := l.entries.LockAccount(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	next := balance + delta
	if next < 0 {
		l.logger.Debug().
			Str("user_id", userID.String()).
			Int64("balance", balance).
			Int64("points", -delta).
			Msg("debit rejected, insufficient points")
		return nil, model.ErrInsufficientPoints
	}

	entry := &model.LedgerEntry{
		ID:           uuid.New(),
		UserID:       userID,
		Delta:        delta,
		Reason:       reason,
		OrderID:      ref.OrderID,
		RedemptionID: ref.RedemptionID,
		CreatedAt:    l.now(),
	}
	if err := l.entries.AppendEntry(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	if err := l.entries.SetBalance(ctx, tx, userID, next); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	l.logger.Info().
		Str("user_id", userID.String()).
		Str("reason", string(reason)).
		Int64("delta", delta).
		Int64("balance", next).
		Msg("ledger entry appended")

	return entry, nil
}

func (l *ledger) Claim(ctx context.Context, tx pgx.Tx, req ClaimRequest) (*model.Redemption, error) {
	redemption := &model.Redemption{
		ID:             uuid.New(),
		UserID:         req.UserID,
		RewardID:       req.Reward.ID,
		RewardKind:     req.Reward.Kind,
		PointsSpent:    req.PointsCost,
		DiscountAmount: decimal.Zero,
		Status:         model.RedemptionActive,
		RedeemedAt:     l.now(),
		ExpiresAt:      req.ExpiresAt,
	}

	if err := l.redemptions.Create(ctx, tx, redemption); err != nil {
		return nil, fmt.Errorf("failed to create redemption: %w", err)
	}

	if req.PointsCost > 0 {
		ref := model.EntryRef{OrderID: req.OrderID, RedemptionID: &redemption.ID}
		if _, err := l.Debit(ctx, tx, req.UserID, req.PointsCost, model.ReasonRedeem, ref); err != nil {
			return nil, err
		}
	}

	return redemption, nil
}

func (l *ledger) MarkRedemptionUsed(ctx context.Context, tx pgx.Tx, redemptionID, orderID uuid.UUID, discount decimal.Decimal) (*model.Redemption, error) {
	redemption, err := l.redemptions.GetForUpdate(ctx, tx, redemptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load redemption: %w", err)
	}
	if redemption == nil {
		return nil, model.ErrRewardNotFound
	}

	switch redemption.EffectiveStatus(l.now()) {
	case model.RedemptionActive:
	case model.RedemptionExpired:
		return nil, model.ErrRewardExpired
	default:
		return nil, model.ErrAlreadyUsed
	}

	redemption.Status = model.RedemptionUsed
	redemption.OrderID = &orderID
	redemption.DiscountAmount = discount
	if err := l.redemptions.Update(ctx, tx, redemption); err != nil {
		return nil, fmt.Errorf("failed to mark redemption used: %w", err)
	}

	return redemption, nil
}

func (l *ledger) Refund(ctx context.Context, tx pgx.Tx, redemptionID uuid.UUID) (*model.Redemption, error) {
	redemption, err := l.redemptions.GetForUpdate(ctx, tx, redemptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load redemption: %w", err)
	}
	if redemption == nil {
		return nil, model.ErrRewardNotFound
	}
	if redemption.Status != model.RedemptionUsed {
		return nil, model.ErrNotRefundable
	}

	if redemption.PointsSpent > 0 {
		ref := model.EntryRef{OrderID: redemption.OrderID, RedemptionID: &redemption.ID}
		if _, err := l.Credit(ctx, tx, redemption.UserID, redemption.PointsSpent, model.ReasonRefund, ref); err != nil {
			return nil, err
		}
	}

	redemption.Status = model.RedemptionRefunded
	if err := l.redemptions.Update(ctx, tx, redemption); err != nil {
		return nil, fmt.Errorf("failed to mark redemption refunded: %w", err)
	}

	return redemption, nil
}

func (l *ledger) Redemption(ctx context.Context, tx pgx.Tx, redemptionID uuid.UUID) (*model.Redemption, error) {
	return l.redemptions.GetForUpdate(ctx, tx, redemptionID)
}

func (l *ledger) OrderRedemptions(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.Redemption, error) {
	return l.redemptions.ListByOrder(ctx, tx, orderID)
}

func (l *ledger) BalanceOf(ctx context.Context, userID uuid.UUID) (int64, error) {
	balance, err := l.entries.Balance(ctx, userID)
	if err != nil {
		return 0, model.NewPersistenceFailure(err)
	}
	return balance, nil
}

func (l *ledger) History(ctx context.Context, userID uuid.UUID, limit int) ([]model.LedgerEntry, error) {
	entries, err := l.entries.Entries(ctx, userID, limit)
	if err != nil {
		return nil, model.NewPersistenceFailure(err)
	}
	return entries, nil
}

func (l *ledger) Redemptions(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	redemptions, err := l.redemptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, model.NewPersistenceFailure(err)
	}
	now := l.now()
	for i := range redemptions {
		redemptions[i].Status = redemptions[i].EffectiveStatus(now)
	}
	return redemptions, nil
}
