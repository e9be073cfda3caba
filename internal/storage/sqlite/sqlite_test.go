package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliseNS/FinetuneGemma/internal/events"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(id string, started time.Time) *RunRecord {
	return &RunRecord{
		ID:                   id,
		StartedAt:            started,
		CompletedAt:          started.Add(1500 * time.Millisecond),
		InputPath:            "/data/train.jsonl",
		OutputPath:           "/data/train_unique.jsonl",
		ReportPath:           "/reports/removal_report.md",
		SimilarityThreshold:  0.5,
		InstructionThreshold: 0.7,
		Total:                5,
		Removed:              3,
		LowQuality:           1,
		ExactDuplicates:      1,
		NearDuplicates:       1,
		Comparisons:          3,
		SkippedLines:         2,
		DurationMs:           1500,
	}
}

func sampleEntries() []types.RemovalEntry {
	return []types.RemovalEntry{
		types.NewLowQualityEntry(1, types.NewRecord("Why", "", "Because."), types.IssueInstructionTooShort),
		types.NewExactDuplicateEntry(2, types.NewRecord("What is CKD?", "", "Kidney disease."), 0,
			types.NewRecord("What is CKD?", "", "Kidney disease.")),
		types.NewSimilarEntry(4, types.NewRecord("How much fluid may I drink?", "", "Limit fluids."), types.SimilarityInfo{
			SimilarTo:             3,
			SimilarToData:         types.NewRecord("How much fluid can I drink?", "", "Limit fluids daily."),
			SimilarityScore:       0.9,
			InstructionSimilarity: 0.85,
			QualityScore:          10,
			KeptQualityScore:      20,
		}),
	}
}

func TestOpenAppliesSchema(t *testing.T) {
	store := openTestStore(t)
	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(schemaMigrations), version)

	// Reopening an existing ledger is fine.
	path := store.Path()
	require.NoError(t, store.Close())
	reopened, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, reopened.Close())
}

func TestRecordAndGetRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	started := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)

	evt, err := events.NewRunCompletedEvent("run-1", "done", events.RunCompletedData{Total: 5, Removed: 3, Remaining: 2})
	require.NoError(t, err)
	debug := events.NewSimpleEvent(events.EventTypeStageStarted, "run-1", events.SeverityDebug, "stage")

	run := sampleRun("run-1", started)
	require.NoError(t, store.RecordRun(ctx, run, sampleEntries(), []*events.Event{debug, evt}))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)
	assert.Equal(t, 2, got.Remaining())
	assert.InDelta(t, 40.0, got.RetentionRate(), 1e-9)

	removals, err := store.GetRemovals(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, removals, 3)
	assert.Equal(t, []int{1, 2, 4}, []int{removals[0].OriginalIndex, removals[1].OriginalIndex, removals[2].OriginalIndex})
	assert.Equal(t, types.IssueInstructionTooShort, removals[0].QualityIssue)
	require.NotNil(t, removals[1].Duplicate)
	assert.Equal(t, 0, removals[1].Duplicate.Of)
	require.NotNil(t, removals[2].Similarity)
	assert.Equal(t, 3, removals[2].Similarity.SimilarTo)
	assert.Equal(t, "How much fluid may I drink?", removals[2].Data.Instruction)

	all, err := store.GetRunEvents(ctx, "run-1", events.SeverityDebug)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, events.EventTypeStageStarted, all[0].Type)

	infoOnly, err := store.GetRunEvents(ctx, "run-1", events.SeverityInfo)
	require.NoError(t, err)
	require.Len(t, infoOnly, 1)
	data, err := infoOnly[0].GetRunCompletedData()
	require.NoError(t, err)
	assert.Equal(t, 3, data.Removed)
}

func TestGetRunNotFound(t *testing.T) {
	_, err := openTestStore(t).GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRecordRunRejectsInconsistentRuns(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	tests := []struct {
		name    string
		mutate  func(r *RunRecord)
		entries []types.RemovalEntry
		wantErr string
	}{
		{name: "missing id", mutate: func(r *RunRecord) { r.ID = "" }, entries: sampleEntries(), wantErr: "run ID"},
		{name: "removed exceeds total", mutate: func(r *RunRecord) { r.Total = 2 }, entries: sampleEntries(), wantErr: "invalid counts"},
		{name: "stage counts", mutate: func(r *RunRecord) { r.LowQuality = 2 }, entries: sampleEntries(), wantErr: "do not sum"},
		{name: "entry count", mutate: func(r *RunRecord) {}, entries: sampleEntries()[:1], wantErr: "removal entries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := sampleRun("run-x", time.Now())
			tt.mutate(run)
			err := store.RecordRun(ctx, run, tt.entries, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs, "nothing is stored on failure")
}

func TestRecordRunDuplicateIDRollsBack(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	run := sampleRun("run-dup", time.Now())
	require.NoError(t, store.RecordRun(ctx, run, sampleEntries(), nil))
	require.Error(t, store.RecordRun(ctx, run, sampleEntries(), nil))

	removals, err := store.GetRemovals(ctx, "run-dup")
	require.NoError(t, err)
	assert.Len(t, removals, 3)
}

func TestListRunsAndReasonCounts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.RecordRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour)), sampleEntries(), nil))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	counts, err := store.ReasonCounts(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []ReasonCount{
		{Reason: types.ReasonExactDuplicate, Count: 1},
		{Reason: "low_quality_instruction_too_short", Count: 1},
		{Reason: types.ReasonVerySimilarItem, Count: 1},
	}, counts)
}

func TestPruneRuns(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new1", "new2"} {
		started := now.AddDate(0, 0, -100+i*30)
		require.NoError(t, store.RecordRun(ctx, sampleRun(id, started), sampleEntries(), nil))
	}

	deleted, err := store.PruneRuns(ctx, now.AddDate(0, 0, -90), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new2", runs[0].ID)

	removals, err := store.GetRemovals(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, removals, "removals cascade with their run")

	_, err = store.PruneRuns(ctx, now, -1)
	assert.Error(t, err)
	require.NoError(t, store.Vacuum(ctx))
}
