package frontier

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/database"
)

// RunRepository persists engine runs in the history database
type RunRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *database.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Save stores a run record. CreatedAt is assigned by the database.
func (r *RunRepository) Save(run *Run) error {
	_, err := r.db.Conn().Exec(
		`INSERT INTO runs (uuid, kind, symbols, params_json, result_json) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Kind, strings.Join(run.Symbols, ","), run.Params, run.Result,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// Get returns a run by ID, or nil when it does not exist.
func (r *RunRepository) Get(id string) (*Run, error) {
	row := r.db.Conn().QueryRow(
		`SELECT uuid, kind, symbols, params_json, result_json, created_at FROM runs WHERE uuid = ?`,
		id,
	)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Conn().Query(
		`SELECT uuid, kind, symbols, params_json, result_json, created_at
		 FROM runs ORDER BY created_at DESC, uuid LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var symbols string
	if err := row.Scan(&run.ID, &run.Kind, &symbols, &run.Params, &run.Result, &run.CreatedAt); err != nil {
		return nil, err
	}
	if symbols != "" {
		run.Symbols = strings.Split(symbols, ",")
	}
	return &run, nil
}
