package events

import "time"

// EventType represents the type of event that occurred during a cleaning run.
type EventType string

const (
	// EventTypeRunStarted indicates a cleaning run started
	EventTypeRunStarted EventType = "run_started"
	// EventTypeRunCompleted indicates a cleaning run finished
	EventTypeRunCompleted EventType = "run_completed"
	// EventTypeRunAborted indicates a run stopped before writing anything
	EventTypeRunAborted EventType = "run_aborted"
	// EventTypeLoadCompleted indicates the input corpus was read
	EventTypeLoadCompleted EventType = "load_completed"
	// EventTypeLineSkipped indicates a malformed input line was skipped
	EventTypeLineSkipped EventType = "line_skipped"

	// Engine events
	// EventTypeStageStarted indicates an engine stage started
	EventTypeStageStarted EventType = "stage_started"
	// EventTypeStageCompleted indicates an engine stage finished
	EventTypeStageCompleted EventType = "stage_completed"
	// EventTypeLowQualityRemoved indicates the quality gate rejected a record
	EventTypeLowQualityRemoved EventType = "low_quality_removed"
	// EventTypeExactDuplicateGroup indicates a group of identical records was found
	EventTypeExactDuplicateGroup EventType = "exact_duplicate_group"
	// EventTypeNearDuplicateRemoved indicates one record of a similar pair was removed
	EventTypeNearDuplicateRemoved EventType = "near_duplicate_removed"
	// EventTypeNearDuplicateSummary reports near-duplicate pairs not logged individually
	EventTypeNearDuplicateSummary EventType = "near_duplicate_summary"

	// Output events
	// EventTypeOutputWritten indicates the cleaned corpus was written
	EventTypeOutputWritten EventType = "output_written"
	// EventTypeReportWritten indicates the removal report was written
	EventTypeReportWritten EventType = "report_written"
)

// EventSeverity represents the severity level of an event.
type EventSeverity string

const (
	// SeverityDebug indicates detail only shown in verbose output
	SeverityDebug EventSeverity = "debug"
	// SeverityInfo indicates informational events
	SeverityInfo EventSeverity = "info"
	// SeverityWarning indicates potentially problematic events
	SeverityWarning EventSeverity = "warning"
	// SeverityError indicates error events
	SeverityError EventSeverity = "error"
)

// Rank orders severities from least to most severe. Unknown severities rank
// as info.
func (s EventSeverity) Rank() int {
	switch s {
	case SeverityDebug:
		return 0
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	default:
		return 1
	}
}

// Event is one entry in the structured progress stream of a run.
type Event struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Type is the type of event
	Type EventType `json:"type"`
	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`
	// RunID ties the event to one cleaning run
	RunID string `json:"run_id"`
	// Severity is the severity level of this event
	Severity EventSeverity `json:"severity"`
	// Message is a human-readable description of the event
	Message string `json:"message"`
	// Data contains structured, type-specific data (must be JSON-serializable)
	Data map[string]interface{} `json:"data"`
}

// RunStartedData contains the parameters a run was started with.
type RunStartedData struct {
	InputPath            string  `json:"input_path"`
	OutputPath           string  `json:"output_path"`
	ReportPath           string  `json:"report_path"`
	SimilarityThreshold  float64 `json:"similarity_threshold"`
	InstructionThreshold float64 `json:"instruction_threshold"`
	DryRun               bool    `json:"dry_run"`
}

// RunCompletedData contains the final counts of a run.
type RunCompletedData struct {
	Total     int `json:"total"`
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
	// RetentionRate is the kept fraction as a percentage
	RetentionRate float64 `json:"retention_rate"`
	DurationMs    int64   `json:"duration_ms"`
}

// LoadCompletedData contains the outcome of reading the input corpus.
type LoadCompletedData struct {
	Path         string `json:"path"`
	Records      int    `json:"records"`
	SkippedLines int    `json:"skipped_lines"`
}

// LineSkippedData identifies a malformed input line.
type LineSkippedData struct {
	Path  string `json:"path"`
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// StageStartedData contains the input size of an engine stage.
type StageStartedData struct {
	Stage      string `json:"stage"`
	Candidates int    `json:"candidates"`
	// Threshold is set for the near-duplicate stage only
	Threshold float64 `json:"threshold,omitempty"`
}

// StageCompletedData contains the outcome of an engine stage.
type StageCompletedData struct {
	Stage      string `json:"stage"`
	Candidates int    `json:"candidates"`
	Removed    int    `json:"removed"`
	// Comparisons is the number of pairs scored for similarity
	Comparisons int `json:"comparisons,omitempty"`
	// Groups is the number of exact-duplicate groups found
	Groups int `json:"groups,omitempty"`
}

// LowQualityRemovedData describes a quality gate rejection.
type LowQualityRemovedData struct {
	Index       int    `json:"index"`
	Issue       string `json:"issue"`
	Instruction string `json:"instruction"`
}

// ExactDuplicateGroupData describes one group of identical records.
type ExactDuplicateGroupData struct {
	KeptIndex   int    `json:"kept_index"`
	Indices     []int  `json:"indices"`
	Fingerprint string `json:"fingerprint"`
}

// NearDuplicateRemovedData describes a near-duplicate decision.
type NearDuplicateRemovedData struct {
	RemovedIndex          int     `json:"removed_index"`
	KeptIndex             int     `json:"kept_index"`
	Instruction           string  `json:"instruction"`
	KeptInstruction       string  `json:"kept_instruction"`
	SimilarityScore       float64 `json:"similarity_score"`
	InstructionSimilarity float64 `json:"instruction_similarity"`
	RemovedQualityScore   float64 `json:"removed_quality_score"`
	KeptQualityScore      float64 `json:"kept_quality_score"`
}

// NearDuplicateSummaryData counts near-duplicate pairs beyond the logging cap.
type NearDuplicateSummaryData struct {
	Total    int `json:"total"`
	Unlogged int `json:"unlogged"`
}

// OutputWrittenData describes a file written by the run.
type OutputWrittenData struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
}
