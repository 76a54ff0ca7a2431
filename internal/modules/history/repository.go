package history

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/database"
)

// PriceRepository persists daily closing prices in the history database
type PriceRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *database.DB, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		db:  db,
		log: log.With().Str("repository", "prices").Logger(),
	}
}

// SaveDailyCloses upserts a batch of closing prices in a single transaction.
func (r *PriceRepository) SaveDailyCloses(closes []DailyClose) error {
	if len(closes) == 0 {
		return nil
	}

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range closes {
		if c.Close <= 0 {
			r.log.Warn().Str("symbol", c.Symbol).Str("date", c.Date).Float64("close", c.Close).Msg("Skipping non-positive close")
			continue
		}
		if _, err := stmt.Exec(c.Symbol, c.Date, c.Close); err != nil {
			return fmt.Errorf("failed to upsert close for %s at %s: %w", c.Symbol, c.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit closes: %w", err)
	}

	return nil
}

// GetDailyCloses returns stored closes for a symbol in ascending date order.
// A non-positive limit returns the full history; otherwise the most recent
// limit rows are returned.
func (r *PriceRepository) GetDailyCloses(symbol string, limit int) ([]DailyClose, error) {
	query := `SELECT symbol, date, close FROM daily_prices WHERE symbol = ? ORDER BY date ASC`
	args := []interface{}{symbol}

	if limit > 0 {
		// Take the newest rows, then restore ascending order
		query = `
			SELECT symbol, date, close FROM (
				SELECT symbol, date, close FROM daily_prices
				WHERE symbol = ? ORDER BY date DESC LIMIT ?
			) ORDER BY date ASC
		`
		args = append(args, limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var closes []DailyClose
	for rows.Next() {
		var c DailyClose
		if err := rows.Scan(&c.Symbol, &c.Date, &c.Close); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		closes = append(closes, c)
	}

	return closes, rows.Err()
}

// LatestDate returns the most recent stored date for a symbol, or "" when no
// rows exist.
func (r *PriceRepository) LatestDate(symbol string) (string, error) {
	var date string
	err := r.db.Conn().QueryRow(
		`SELECT date FROM daily_prices WHERE symbol = ? ORDER BY date DESC LIMIT 1`,
		symbol,
	).Scan(&date)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest date for %s: %w", symbol, err)
	}
	return date, nil
}

// GetPriceTable builds an aligned price table for the given symbols over the
// most recent lookbackDays rows. Only dates where every symbol has a close
// are kept, so all columns share one index.
func (r *PriceRepository) GetPriceTable(symbols []string, lookbackDays int) (*PriceTable, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}

	closesBySymbol := make(map[string]map[string]float64, len(symbols))
	for _, symbol := range symbols {
		closes, err := r.GetDailyCloses(symbol, lookbackDays)
		if err != nil {
			return nil, err
		}
		if len(closes) == 0 {
			return nil, fmt.Errorf("no price history for %s", symbol)
		}
		bySymbol := make(map[string]float64, len(closes))
		for _, c := range closes {
			bySymbol[c.Date] = c.Close
		}
		closesBySymbol[symbol] = bySymbol
	}

	// Intersect dates across all symbols
	var common []string
	for date := range closesBySymbol[symbols[0]] {
		shared := true
		for _, symbol := range symbols[1:] {
			if _, ok := closesBySymbol[symbol][date]; !ok {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, date)
		}
	}
	if len(common) == 0 {
		return nil, fmt.Errorf("no overlapping dates across %d symbols", len(symbols))
	}
	sort.Strings(common)

	columns := make([][]float64, len(symbols))
	for i, symbol := range symbols {
		column := make([]float64, len(common))
		for j, date := range common {
			column[j] = closesBySymbol[symbol][date]
		}
		columns[i] = column
	}

	table := &PriceTable{
		Dates:   common,
		Symbols: append([]string(nil), symbols...),
		Columns: columns,
	}

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("assembled price table is invalid: %w", err)
	}

	r.log.Debug().
		Int("symbols", table.AssetCount()).
		Int("rows", table.Rows()).
		Str("from", common[0]).
		Str("to", common[len(common)-1]).
		Msg("Built price table")

	return table, nil
}
