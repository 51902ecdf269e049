package clickhouse

import (
	"context"
	"fmt"
	"time"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/storage"
)

// DailyReturnStore implements storage.DailyReturnStore using ClickHouse.
type DailyReturnStore struct {
	conn *Conn
}

// NewDailyReturnStore creates a new DailyReturnStore.
func NewDailyReturnStore(conn *Conn) *DailyReturnStore {
	return &DailyReturnStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DailyReturnStore = (*DailyReturnStore)(nil)

type runKey struct {
	miner string
	run   string
}

const dateLayout = "2006-01-02"

// InsertBulk adds multiple points atomically. Fails entire batch on any duplicate.
func (s *DailyReturnStore) InsertBulk(ctx context.Context, records []*domain.DailyReturnRecord) error {
	if len(records) == 0 {
		return nil
	}

	// Check for invalid input and intra-batch duplicates
	seen := make(map[string]struct{}, len(records))
	runs := make(map[runKey]struct{})
	for _, r := range records {
		if r == nil || r.MinerHotkey == "" || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := r.MinerHotkey + "|" + r.RunID + "|" + r.Date.UTC().Format(dateLayout)
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
		runs[runKey{r.MinerHotkey, r.RunID}] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	// (ReplacingMergeTree would replace, but we want append-only semantics)
	for rk := range runs {
		existing, err := s.GetByRun(ctx, rk.miner, rk.run)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, e := range existing {
			key := e.MinerHotkey + "|" + e.RunID + "|" + e.Date.UTC().Format(dateLayout)
			if _, exists := seen[key]; exists {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_returns (miner_hotkey, run_id, date, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		if err := batch.Append(r.MinerHotkey, r.RunID, r.Date.UTC(), r.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMiner retrieves every point of a miner, ordered by run_id, date ASC.
func (s *DailyReturnStore) GetByMiner(ctx context.Context, minerHotkey string) ([]*domain.DailyReturnRecord, error) {
	query := `
		SELECT miner_hotkey, run_id, date, value
		FROM daily_returns FINAL
		WHERE miner_hotkey = ?
		ORDER BY run_id ASC, date ASC
	`

	rows, err := s.conn.Query(ctx, query, minerHotkey)
	if err != nil {
		return nil, fmt.Errorf("query by miner: %w", err)
	}
	defer rows.Close()

	return scanDailyReturns(rows)
}

// GetByRun retrieves the series of one miner in one run, ordered by date ASC.
func (s *DailyReturnStore) GetByRun(ctx context.Context, minerHotkey, runID string) ([]*domain.DailyReturnRecord, error) {
	query := `
		SELECT miner_hotkey, run_id, date, value
		FROM daily_returns FINAL
		WHERE miner_hotkey = ? AND run_id = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, minerHotkey, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanDailyReturns(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanDailyReturns scans multiple rows into a slice.
func scanDailyReturns(rows chRows) ([]*domain.DailyReturnRecord, error) {
	var result []*domain.DailyReturnRecord

	for rows.Next() {
		var r domain.DailyReturnRecord
		var date time.Time
		if err := rows.Scan(&r.MinerHotkey, &r.RunID, &date, &r.Value); err != nil {
			return nil, fmt.Errorf("scan daily return row: %w", err)
		}
		r.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}
