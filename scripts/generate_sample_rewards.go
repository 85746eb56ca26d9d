//go:build ignore

package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"eco-kart/internal/model"

	"github.com/shopspring/decimal"
)

// generateSampleRewards writes gzipped JSON-lines reward catalogues.
// Later files override earlier ones by reward ID when loaded together:
//
//	REWARD_FILES=data/rewards/base.gz,data/rewards/seasonal.gz
func main() {
	dataDir := "data/rewards"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)
	monthStart := now.AddDate(0, 0, -now.Day()+1)
	monthEnd := monthStart.AddDate(0, 1, 0)
	lastYear := now.AddDate(-1, 0, 0)

	files := map[string][]model.Reward{
		"base.gz": {
			{
				ID:          "five-off",
				Name:        "5% off",
				Description: "Five percent off the subtotal",
				Kind:        model.RewardPercentOff,
				Rate:        decimal.RequireFromString("0.05"),
				Cap:         decimal.NewFromInt(500),
				PointsCost:  40,
				Active:      true,
			},
			{
				ID:          "green-shipping",
				Name:        "Free shipping",
				Description: "Shipping on us",
				Kind:        model.RewardFreeShipping,
				PointsCost:  60,
				Tier:        "silver",
				Active:      true,
			},
			{
				ID:         "retired-deal",
				Name:       "Retired deal",
				Kind:       model.RewardPercentOff,
				Rate:       decimal.RequireFromString("0.25"),
				Cap:        decimal.NewFromInt(1000),
				PointsCost: 10,
				Active:     false,
			},
		},
		"seasonal.gz": {
			{
				ID:          "monthly-fifteen",
				Name:        "15% off this month",
				Description: "Fifteen percent off, capped",
				Kind:        model.RewardPercentOff,
				Rate:        decimal.RequireFromString("0.15"),
				Cap:         decimal.NewFromInt(1500),
				PointsCost:  150,
				Tier:        "gold",
				Active:      true,
				ValidFrom:   &monthStart,
				ValidUntil:  &monthEnd,
			},
			{
				ID:         "last-year-sale",
				Name:       "Last year's sale",
				Kind:       model.RewardPercentOff,
				Rate:       decimal.RequireFromString("0.20"),
				Cap:        decimal.NewFromInt(800),
				PointsCost: 80,
				Active:     true,
				ValidUntil: &lastYear,
			},
		},
	}

	for filename, rewards := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := writeRewardFile(filePath, rewards); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d rewards\n", filePath, len(rewards))
	}

	fmt.Println("\nSample reward files created successfully!")
}

// writeRewardFile writes one JSON reward definition per line, gzipped.
func writeRewardFile(filePath string, rewards []model.Reward) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	enc := json.NewEncoder(gzipWriter)
	for _, r := range rewards {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to write reward %s: %w", r.ID, err)
		}
	}

	return nil
}
