// Package cart stores live shopping carts in Redis.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const maxUpdateRetries = 5

// ErrConcurrentUpdate is returned when a cart kept changing under an update.
var ErrConcurrentUpdate = errors.New("cart was modified concurrently")

// Store defines cart persistence operations.
type Store interface {
	// Get returns the live cart, empty if the user has none.
	Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// Snapshot returns an immutable copy of the cart for one checkout attempt.
	Snapshot(ctx context.Context, userID uuid.UUID) (*model.CartSnapshot, error)

	// AddItem adds quantity of a product variant, merging with an existing line.
	AddItem(ctx context.Context, userID uuid.UUID, item model.CartItem) (*model.Cart, error)

	// SetQuantity replaces the quantity of an existing line.
	SetQuantity(ctx context.Context, userID uuid.UUID, item model.CartItem) (*model.Cart, error)

	// RemoveItem drops a line from the cart.
	RemoveItem(ctx context.Context, userID uuid.UUID, productID string, variant model.Variant) (*model.Cart, error)

	// Clear empties the cart.
	Clear(ctx context.Context, userID uuid.UUID) error
}

// RedisStore implements Store with one JSON document per user.
type RedisStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxQuantity int
	logger      zerolog.Logger
}

// NewRedisStore creates a Redis-backed cart store. A zero ttl keeps carts
// forever; a non-positive maxQuantity uses model.DefaultMaxLineQuantity.
func NewRedisStore(client *redis.Client, ttl time.Duration, maxQuantity int, logger zerolog.Logger) *RedisStore {
	if maxQuantity < 1 {
		maxQuantity = model.DefaultMaxLineQuantity
	}
	return &RedisStore{
		client:      client,
		ttl:         ttl,
		maxQuantity: maxQuantity,
		logger:      logger.With().Str("component", "cart-store").Logger(),
	}
}

func cacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", userID)
}

func (s *RedisStore) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return s.read(ctx, s.client, userID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) read(ctx context.Context, c getter, userID uuid.UUID) (*model.Cart, error) {
	data, err := c.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &model.Cart{UserID: userID, Items: []model.CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	return &cart, nil
}

func (s *RedisStore) Snapshot(ctx context.Context, userID uuid.UUID) (*model.CartSnapshot, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]model.CartItem, len(cart.Items))
	copy(lines, cart.Items)

	return &model.CartSnapshot{
		UserID:  userID,
		Lines:   lines,
		TakenAt: time.Now().UTC(),
	}, nil
}

func (s *RedisStore) AddItem(ctx context.Context, userID uuid.UUID, item model.CartItem) (*model.Cart, error) {
	if err := s.validateItem(item); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, func(cart *model.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].ProductID == item.ProductID && cart.Items[i].Variant == item.Variant {
				merged := cart.Items[i].Quantity + item.Quantity
				if !model.ValidQuantity(merged, s.maxQuantity) {
					return model.ErrInvalidQuantity
				}
				cart.Items[i].Quantity = merged
				return nil
			}
		}
		cart.Items = append(cart.Items, item)
		return nil
	})
}

func (s *RedisStore) SetQuantity(ctx context.Context, userID uuid.UUID, item model.CartItem) (*model.Cart, error) {
	if err := s.validateItem(item); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, func(cart *model.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].ProductID == item.ProductID && cart.Items[i].Variant == item.Variant {
				cart.Items[i].Quantity = item.Quantity
				return nil
			}
		}
		return model.ErrProductNotFound
	})
}

func (s *RedisStore) RemoveItem(ctx context.Context, userID uuid.UUID, productID string, variant model.Variant) (*model.Cart, error) {
	return s.update(ctx, userID, func(cart *model.Cart) error {
		kept := cart.Items[:0]
		for _, it := range cart.Items {
			if it.ProductID == productID && it.Variant == variant {
				continue
			}
			kept = append(kept, it)
		}
		cart.Items = kept
		return nil
	})
}

func (s *RedisStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	s.logger.Debug().Str("user_id", userID.String()).Msg("cart cleared")
	return nil
}

// update applies fn under an optimistic WATCH on the cart key, retrying on conflict.
func (s *RedisStore) update(ctx context.Context, userID uuid.UUID, fn func(cart *model.Cart) error) (*model.Cart, error) {
	key := cacheKey(userID)
	var result *model.Cart

	txf := func(tx *redis.Tx) error {
		cart, err := s.read(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		cart.UserID = userID
		cart.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("marshal cart failed: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = cart
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("redis update failed: %w", err)
	}

	s.logger.Warn().Str("user_id", userID.String()).Msg("cart update kept conflicting")
	return nil, ErrConcurrentUpdate
}

func (s *RedisStore) validateItem(item model.CartItem) error {
	if item.ProductID == "" {
		return model.ErrProductNotFound
	}
	if !item.Variant.Valid() {
		return model.ErrInvalidVariant
	}
	if !model.ValidQuantity(item.Quantity, s.maxQuantity) {
		return model.ErrInvalidQuantity
	}
	return nil
}
