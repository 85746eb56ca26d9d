package service

import (
	"context"
	"time"

	"eco-kart/internal/ledger"
	"eco-kart/internal/model"
	"eco-kart/internal/reward"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// loyaltyService implements LoyaltyService.
type loyaltyService struct {
	ledger  ledger.Ledger
	catalog reward.Catalog
	ttl     time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// NewLoyaltyService creates a new loyalty service. Claimed rewards expire after ttl;
// a zero ttl keeps them valid until used.
func NewLoyaltyService(ldg ledger.Ledger, catalog reward.Catalog, ttl time.Duration, logger zerolog.Logger) LoyaltyService {
	return &loyaltyService{
		ledger:  ldg,
		catalog: catalog,
		ttl:     ttl,
		logger:  logger.With().Str("service", "loyalty").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *loyaltyService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.ledger.BalanceOf(ctx, userID)
}

// History returns the user's ledger entries, most recent first.
func (s *loyaltyService) History(ctx context.Context, userID uuid.UUID, limit int) ([]model.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.ledger.History(ctx, userID, limit)
}

// Rewards lists the catalogue rewards that can be used right now.
func (s *loyaltyService) Rewards(ctx context.Context) []model.Reward {
	return s.catalog.Available(s.now())
}

func (s *loyaltyService) ClaimReward(ctx context.Context, userID uuid.UUID, rewardID string) (*model.Redemption, error) {
	if rewardID == "" {
		return nil, model.ErrInvalidRewardRequest
	}

	now := s.now()
	r, ok := s.catalog.Get(rewardID)
	if !ok {
		return nil, model.ErrRewardNotFound
	}
	if err := reward.CheckAvailable(r, now); err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if s.ttl > 0 {
		at := now.Add(s.ttl)
		expiresAt = &at
	}

	var redemption *model.Redemption
	err := s.ledger.WithUser(ctx, userID, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		redemption, err = s.ledger.Claim(ctx, tx, ledger.ClaimRequest{
			UserID:     userID,
			Reward:     r,
			PointsCost: r.PointsCost,
			ExpiresAt:  expiresAt,
		})
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Str("reward_id", rewardID).Msg("reward claim failed")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("reward_id", rewardID).
		Str("redemption_id", redemption.ID.String()).
		Int64("points", redemption.PointsSpent).
		Msg("reward claimed")

	return redemption, nil
}

func (s *loyaltyService) Redemptions(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	return s.ledger.Redemptions(ctx, userID)
}
