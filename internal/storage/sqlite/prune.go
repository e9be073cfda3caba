package sqlite

import (
	"context"
	"fmt"
	"time"
)

// PruneRuns deletes runs started before cutoff, then all but the newest
// maxRuns (0 keeps any number). Removals and events go with their run.
// It returns the number of runs deleted.
func (s *Store) PruneRuns(ctx context.Context, cutoff time.Time, maxRuns int) (int, error) {
	if maxRuns < 0 {
		return 0, fmt.Errorf("max runs cannot be negative (got %d)", maxRuns)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}
	byAge, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	var byCount int64
	if maxRuns > 0 {
		res, err = tx.ExecContext(ctx, `
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
			)
		`, maxRuns)
		if err != nil {
			return 0, fmt.Errorf("failed to delete excess runs: %w", err)
		}
		if byCount, err = res.RowsAffected(); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return int(byAge + byCount), nil
}

// Vacuum reclaims space freed by PruneRuns. It locks the database while it
// runs.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum: %w", err)
	}
	return nil
}
