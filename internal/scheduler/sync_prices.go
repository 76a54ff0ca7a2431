package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/history"
)

// syncTimeout bounds one full sync pass across all symbols
const syncTimeout = 5 * time.Minute

// SyncPricesJob refreshes the stored price history for the configured universe
type SyncPricesJob struct {
	sync         *history.SyncService
	symbols      []string
	lookbackDays int
	log          zerolog.Logger
}

// NewSyncPricesJob creates the daily price sync job
func NewSyncPricesJob(sync *history.SyncService, symbols []string, lookbackDays int, log zerolog.Logger) *SyncPricesJob {
	return &SyncPricesJob{
		sync:         sync,
		symbols:      symbols,
		lookbackDays: lookbackDays,
		log:          log.With().Str("job", "sync_prices").Logger(),
	}
}

// Name returns the job name
func (j *SyncPricesJob) Name() string {
	return "sync_prices"
}

// Run executes one sync pass
func (j *SyncPricesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	result, err := j.sync.Sync(ctx, j.symbols, j.lookbackDays)
	if err != nil {
		return err
	}

	j.log.Info().
		Int("synced", len(result.Synced)).
		Int("failed", len(result.Failed)).
		Int("rows", result.Rows).
		Msg("Price sync pass finished")

	return nil
}
