package reward

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"eco-kart/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped reward files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based reward loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "reward-loader").Logger(),
	}
}

// Load reads a gzipped file holding one JSON reward definition per line.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.Reward, error) {
	l.logger.Info().Str("file", filePath).Msg("loading reward file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open reward file")
		return nil, fmt.Errorf("failed to open reward file %s: %w", filePath, err)
	}
	defer file.Close()

	rewards, err := decodeRewards(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read reward file")
		return nil, fmt.Errorf("reward file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("rewards_loaded", len(rewards)).
		Msg("reward file loaded successfully")

	return rewards, nil
}

// decodeRewards reads gzipped JSON lines from r. Blank lines are skipped.
func decodeRewards(ctx context.Context, r io.Reader) ([]model.Reward, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var rewards []model.Reward
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var r model.Reward
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("line %d: invalid reward definition: %w", lineNo, err)
		}
		if err := validate(r); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rewards = append(rewards, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading rewards: %w", err)
	}

	return rewards, nil
}
