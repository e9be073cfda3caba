package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OliseNS/FinetuneGemma/internal/events"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// RunRecord is the summary row of one cleaning run
type RunRecord struct {
	ID                   string
	StartedAt            time.Time
	CompletedAt          time.Time
	InputPath            string
	OutputPath           string
	ReportPath           string
	SimilarityThreshold  float64
	InstructionThreshold float64
	DryRun               bool

	Total           int
	Removed         int
	LowQuality      int
	ExactDuplicates int
	NearDuplicates  int
	Comparisons     int
	SkippedLines    int
	DurationMs      int64
}

// Remaining is the number of records kept.
func (r *RunRecord) Remaining() int {
	return r.Total - r.Removed
}

// RetentionRate is the kept percentage; an empty run retains 100%.
func (r *RunRecord) RetentionRate() float64 {
	if r.Total == 0 {
		return 100
	}
	return float64(r.Remaining()) / float64(r.Total) * 100
}

// Validate checks the record before it is stored.
func (r *RunRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if r.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if r.Total < 0 || r.Removed < 0 || r.Removed > r.Total {
		return fmt.Errorf("invalid counts: removed %d of %d", r.Removed, r.Total)
	}
	if r.LowQuality+r.ExactDuplicates+r.NearDuplicates != r.Removed {
		return fmt.Errorf("stage counts (%d+%d+%d) do not sum to removed (%d)",
			r.LowQuality, r.ExactDuplicates, r.NearDuplicates, r.Removed)
	}
	return nil
}

// RecordRun stores a run with its removal log and events in one transaction.
func (s *Store) RecordRun(ctx context.Context, run *RunRecord, entries []types.RemovalEntry, evts []*events.Event) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run record: %w", err)
	}
	if len(entries) != run.Removed {
		return fmt.Errorf("run %s: %d removal entries for %d removed records", run.ID, len(entries), run.Removed)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, completed_at, input_path, output_path, report_path,
			similarity_threshold, instruction_threshold, dry_run,
			total, removed, low_quality, exact_duplicates, near_duplicates,
			comparisons, skipped_lines, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, formatTime(run.StartedAt), formatTime(run.CompletedAt),
		run.InputPath, run.OutputPath, run.ReportPath,
		run.SimilarityThreshold, run.InstructionThreshold, run.DryRun,
		run.Total, run.Removed, run.LowQuality, run.ExactDuplicates, run.NearDuplicates,
		run.Comparisons, run.SkippedLines, run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	if err := insertRemovals(ctx, tx, run.ID, entries); err != nil {
		return err
	}
	if err := insertEvents(ctx, tx, run.ID, evts); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

func insertRemovals(ctx context.Context, tx *sql.Tx, runID string, entries []types.RemovalEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO removals (run_id, original_index, reason, related_index, entry)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare removal insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		entryJSON, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal removal %d: %w", entry.OriginalIndex, err)
		}
		var related sql.NullInt64
		switch {
		case entry.Duplicate != nil:
			related = sql.NullInt64{Int64: int64(entry.Duplicate.Of), Valid: true}
		case entry.Similarity != nil:
			related = sql.NullInt64{Int64: int64(entry.Similarity.SimilarTo), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, entry.OriginalIndex, string(entry.Reason), related, string(entryJSON)); err != nil {
			return fmt.Errorf("failed to store removal %d (reason=%s): %w", entry.OriginalIndex, entry.Reason, err)
		}
	}
	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, runID string, evts []*events.Event) error {
	if len(evts) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_events (id, run_id, seq, type, severity, timestamp, message, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for seq, event := range evts {
		data := event.Data
		if data == nil {
			data = map[string]interface{}{}
		}
		dataJSON, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			event.ID, runID, seq, string(event.Type), string(event.Severity),
			formatTime(event.Timestamp), event.Message, string(dataJSON),
		); err != nil {
			return fmt.Errorf("failed to store event (type=%s): %w", event.Type, err)
		}
	}
	return nil
}

const runColumns = `
	id, started_at, completed_at, input_path, output_path, report_path,
	similarity_threshold, instruction_threshold, dry_run,
	total, removed, low_quality, exact_duplicates, near_duplicates,
	comparisons, skipped_lines, duration_ms
`

// GetRun retrieves one run by ID
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id DESC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*RunRecord, error) {
	var run RunRecord
	var started, completed string
	err := row.Scan(
		&run.ID, &started, &completed, &run.InputPath, &run.OutputPath, &run.ReportPath,
		&run.SimilarityThreshold, &run.InstructionThreshold, &run.DryRun,
		&run.Total, &run.Removed, &run.LowQuality, &run.ExactDuplicates, &run.NearDuplicates,
		&run.Comparisons, &run.SkippedLines, &run.DurationMs,
	)
	if err != nil {
		return nil, err
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if run.CompletedAt, err = parseTime(completed); err != nil {
		return nil, err
	}
	return &run, nil
}
