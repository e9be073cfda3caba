package sqlite

import "github.com/OliseNS/FinetuneGemma/internal/storage/migrations"

var schemaMigrations = []migrations.Migration{
	{
		Version:     1,
		Description: "Create runs, removals and run_events tables",
		Up: `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    input_path TEXT NOT NULL,
    output_path TEXT NOT NULL DEFAULT '',
    report_path TEXT NOT NULL DEFAULT '',
    similarity_threshold REAL NOT NULL,
    instruction_threshold REAL NOT NULL,
    dry_run INTEGER NOT NULL DEFAULT 0,
    total INTEGER NOT NULL,
    removed INTEGER NOT NULL,
    low_quality INTEGER NOT NULL DEFAULT 0,
    exact_duplicates INTEGER NOT NULL DEFAULT 0,
    near_duplicates INTEGER NOT NULL DEFAULT 0,
    comparisons INTEGER NOT NULL DEFAULT 0,
    skipped_lines INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    CHECK (removed >= 0 AND removed <= total)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS removals (
    run_id TEXT NOT NULL,
    original_index INTEGER NOT NULL,
    reason TEXT NOT NULL,
    related_index INTEGER,
    entry TEXT NOT NULL,
    PRIMARY KEY (run_id, original_index),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_removals_reason ON removals(run_id, reason);

CREATE TABLE IF NOT EXISTS run_events (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    type TEXT NOT NULL,
    severity TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    message TEXT NOT NULL,
    data TEXT NOT NULL DEFAULT '{}',
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id, seq);
`,
		Down: `
DROP TABLE IF EXISTS run_events;
DROP TABLE IF EXISTS removals;
DROP TABLE IF EXISTS runs;
`,
	},
}
