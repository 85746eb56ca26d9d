package reward

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eco-kart/internal/model"

	"github.com/rs/zerolog"
)

// mapCatalog implements Catalog using a map for O(1) lookups.
// It is read-only after construction.
type mapCatalog struct {
	rewards map[string]model.Reward
}

// NewMapCatalog creates a catalogue holding the given rewards.
// Later rewards replace earlier ones with the same ID.
func NewMapCatalog(rewards ...model.Reward) Catalog {
	c := &mapCatalog{rewards: make(map[string]model.Reward, len(rewards))}
	for _, r := range rewards {
		c.add(r)
	}
	return c
}

func (c *mapCatalog) add(r model.Reward) {
	c.rewards[r.ID] = r
}

// Get returns the reward with the given ID.
func (c *mapCatalog) Get(id string) (model.Reward, bool) {
	r, ok := c.rewards[id]
	return r, ok
}

// Available returns the grantable rewards ordered by points cost, then ID.
func (c *mapCatalog) Available(now time.Time) []model.Reward {
	out := make([]model.Reward, 0, len(c.rewards))
	for _, r := range c.rewards {
		if CheckAvailable(r, now) == nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PointsCost != out[j].PointsCost {
			return out[i].PointsCost < out[j].PointsCost
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Size returns the number of rewards in the catalogue.
func (c *mapCatalog) Size() int {
	return len(c.rewards)
}

// CatalogConfig holds configuration for building the reward catalogue.
type CatalogConfig struct {
	// FilePaths is the list of reward files to load, in override order.
	FilePaths []string

	// Builtins are always present and cannot be overridden by files.
	Builtins []model.Reward
}

// NewCatalog loads all reward files concurrently and merges them with the builtins.
func NewCatalog(ctx context.Context, cfg CatalogConfig, loader Loader, logger zerolog.Logger) (Catalog, error) {
	logger = logger.With().Str("component", "reward-catalog").Logger()

	logger.Info().
		Int("file_count", len(cfg.FilePaths)).
		Int("builtin_count", len(cfg.Builtins)).
		Msg("initialising reward catalogue")

	type loadResult struct {
		index   int
		rewards []model.Reward
		err     error
	}

	resultChan := make(chan loadResult, len(cfg.FilePaths))
	var wg sync.WaitGroup

	for i, filePath := range cfg.FilePaths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			rewards, err := loader.Load(ctx, path)
			resultChan <- loadResult{index: index, rewards: rewards, err: err}
		}(i, filePath)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(cfg.FilePaths))
	for result := range resultChan {
		results[result.index] = result
	}

	catalog := &mapCatalog{rewards: make(map[string]model.Reward)}
	for i, result := range results {
		if result.err != nil {
			logger.Error().
				Err(result.err).
				Str("file", cfg.FilePaths[i]).
				Msg("failed to load reward file")
			return nil, fmt.Errorf("failed to load reward file %s: %w", cfg.FilePaths[i], result.err)
		}
		for _, r := range result.rewards {
			catalog.add(r)
		}
	}

	for _, r := range cfg.Builtins {
		if _, exists := catalog.rewards[r.ID]; exists {
			logger.Warn().Str("reward_id", r.ID).Msg("reward file entry shadows a builtin, keeping builtin")
		}
		catalog.add(r)
	}

	logger.Info().
		Int("total_rewards", catalog.Size()).
		Msg("reward catalogue initialised")

	return catalog, nil
}
