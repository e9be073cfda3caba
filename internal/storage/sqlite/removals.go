package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OliseNS/FinetuneGemma/internal/events"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// ReasonCount is the number of removals stored under one reason.
type ReasonCount struct {
	Reason types.ReasonCode
	Count  int
}

// GetRemovals returns the removal log of a run ordered by original index.
func (s *Store) GetRemovals(ctx context.Context, runID string) ([]types.RemovalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry FROM removals
		WHERE run_id = ?
		ORDER BY original_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query removals for run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []types.RemovalEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan removal: %w", err)
		}
		var entry types.RemovalEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode removal: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ReasonCounts returns removal counts per reason, largest first.
func (s *Store) ReasonCounts(ctx context.Context, runID string) ([]ReasonCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reason, COUNT(*) FROM removals
		WHERE run_id = ?
		GROUP BY reason
		ORDER BY COUNT(*) DESC, reason ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count removals for run %s: %w", runID, err)
	}
	defer rows.Close()

	var counts []ReasonCount
	for rows.Next() {
		var rc ReasonCount
		var reason string
		if err := rows.Scan(&reason, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan reason count: %w", err)
		}
		rc.Reason = types.ReasonCode(reason)
		counts = append(counts, rc)
	}
	return counts, rows.Err()
}

// GetRunEvents returns the stored events of a run in emission order,
// keeping those at or above minSeverity.
func (s *Store) GetRunEvents(ctx context.Context, runID string, minSeverity events.EventSeverity) ([]*events.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, severity, timestamp, message, data
		FROM run_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for run %s: %w", runID, err)
	}
	defer rows.Close()

	var result []*events.Event
	for rows.Next() {
		var event events.Event
		var eventType, severity, timestamp, dataJSON string
		if err := rows.Scan(&event.ID, &eventType, &severity, &timestamp, &event.Message, &dataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Type = events.EventType(eventType)
		event.Severity = events.EventSeverity(severity)
		if event.Severity.Rank() < minSeverity.Rank() {
			continue
		}
		event.RunID = runID
		if event.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(dataJSON), &event.Data); err != nil {
			return nil, fmt.Errorf("failed to decode event data: %w", err)
		}
		result = append(result, &event)
	}
	return result, rows.Err()
}
