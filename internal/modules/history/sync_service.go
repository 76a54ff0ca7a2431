package history

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// PriceSource fetches daily closing prices for one symbol
type PriceSource interface {
	GetDailyCloses(ctx context.Context, symbol string, lookbackDays int) ([]DailyClose, error)
}

// SyncService fills the price store from an external price source
type SyncService struct {
	source PriceSource
	repo   *PriceRepository
	log    zerolog.Logger
}

// NewSyncService creates a new price sync service
func NewSyncService(source PriceSource, repo *PriceRepository, log zerolog.Logger) *SyncService {
	return &SyncService{
		source: source,
		repo:   repo,
		log:    log.With().Str("service", "history_sync").Logger(),
	}
}

// SyncResult summarizes one sync pass
type SyncResult struct {
	Synced []string `json:"synced"`
	Failed []string `json:"failed"`
	Rows   int      `json:"rows"`
}

// Sync fetches and stores history for each symbol. Individual symbol
// failures are logged and collected; the pass only errors when every symbol
// fails.
func (s *SyncService) Sync(ctx context.Context, symbols []string, lookbackDays int) (*SyncResult, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}

	result := &SyncResult{}
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("sync interrupted: %w", err)
		}

		closes, err := s.source.GetDailyCloses(ctx, symbol, lookbackDays)
		if err != nil {
			s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch history")
			result.Failed = append(result.Failed, symbol)
			continue
		}

		if err := s.repo.SaveDailyCloses(closes); err != nil {
			s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to store history")
			result.Failed = append(result.Failed, symbol)
			continue
		}

		result.Synced = append(result.Synced, symbol)
		result.Rows += len(closes)
		s.log.Info().Str("symbol", symbol).Int("rows", len(closes)).Msg("Synced price history")
	}

	if len(result.Synced) == 0 {
		return result, fmt.Errorf("price sync failed for all %d symbols", len(symbols))
	}

	return result, nil
}
