package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/OliseNS/FinetuneGemma/internal/events"
)

// consoleSink prints events in a two-line colored format
type consoleSink struct {
	out io.Writer
}

func newConsoleSink(out io.Writer) *consoleSink {
	return &consoleSink{out: out}
}

// Emit prints one event. Line 1: icon [time] type: message; line 2: key
// data fields when the event carries any.
func (s *consoleSink) Emit(event *events.Event) {
	severityColor := getSeverityColor(event.Severity)
	typeColor := color.New(color.FgMagenta)

	fmt.Fprintf(s.out, "%s [%s] %s: %s\n",
		getEventIcon(event),
		event.Timestamp.Format("15:04:05"),
		typeColor.Sprint(event.Type),
		severityColor.Sprint(event.Message),
	)

	if metadata := extractEventMetadata(event); metadata != "" {
		gray := color.New(color.FgHiBlack)
		fmt.Fprintf(s.out, "  %s\n", gray.Sprint(metadata))
	}
}

// getEventIcon returns the icon for an event type, falling back to severity
func getEventIcon(event *events.Event) string {
	switch event.Type {
	case events.EventTypeRunStarted:
		return "🚀"
	case events.EventTypeRunCompleted:
		return "✅"
	case events.EventTypeLoadCompleted:
		return "📂"
	case events.EventTypeStageStarted, events.EventTypeStageCompleted:
		return "🔀"
	case events.EventTypeLowQualityRemoved:
		return "🚫"
	case events.EventTypeExactDuplicateGroup:
		return "🧬"
	case events.EventTypeNearDuplicateRemoved, events.EventTypeNearDuplicateSummary:
		return "🎯"
	case events.EventTypeOutputWritten, events.EventTypeReportWritten:
		return "📝"
	}

	switch event.Severity {
	case events.SeverityWarning:
		return "⚠️"
	case events.SeverityError:
		return "❌"
	case events.SeverityDebug:
		return "·"
	default:
		return "•"
	}
}

// getSeverityColor returns the appropriate color for a severity level
func getSeverityColor(severity events.EventSeverity) *color.Color {
	switch severity {
	case events.SeverityInfo:
		return color.New(color.FgCyan)
	case events.SeverityWarning:
		return color.New(color.FgYellow)
	case events.SeverityError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}

// extractEventMetadata picks the few data fields worth a second line
func extractEventMetadata(event *events.Event) string {
	var fields []string

	switch event.Type {
	case events.EventTypeLineSkipped:
		// line_skipped: path:line | error
		location := fmt.Sprintf("%s:%d", getStringField(event.Data, "path", "?"), getIntField(event.Data, "line", 0))
		fields = []string{location, truncateString(getStringField(event.Data, "error", ""), 40)}

	case events.EventTypeLoadCompleted:
		fields = []string{
			fmt.Sprintf("%d records", getIntField(event.Data, "records", 0)),
			fmt.Sprintf("%d skipped", getIntField(event.Data, "skipped_lines", 0)),
		}

	case events.EventTypeStageCompleted:
		// stage_completed: stage | removed | comparisons
		fields = []string{
			getStringField(event.Data, "stage", "unknown"),
			fmt.Sprintf("%d of %d removed", getIntField(event.Data, "removed", 0), getIntField(event.Data, "candidates", 0)),
		}
		if comps := getIntField(event.Data, "comparisons", 0); comps > 0 {
			fields = append(fields, fmt.Sprintf("%d comps", comps))
		}
		if groups := getIntField(event.Data, "groups", 0); groups > 0 {
			fields = append(fields, fmt.Sprintf("%d groups", groups))
		}

	case events.EventTypeLowQualityRemoved:
		fields = []string{
			fmt.Sprintf("#%d", getIntField(event.Data, "index", 0)),
			getStringField(event.Data, "issue", "unknown"),
		}

	case events.EventTypeNearDuplicateRemoved:
		// near_duplicate: removed -> kept | similarity | instruction similarity
		fields = []string{
			fmt.Sprintf("#%d -> #%d", getIntField(event.Data, "removed_index", 0), getIntField(event.Data, "kept_index", 0)),
			fmt.Sprintf("sim %.3f", getFloatField(event.Data, "similarity_score", 0)),
			fmt.Sprintf("instr %.3f", getFloatField(event.Data, "instruction_similarity", 0)),
		}

	case events.EventTypeRunCompleted:
		fields = []string{
			fmt.Sprintf("%d kept", getIntField(event.Data, "remaining", 0)),
			fmt.Sprintf("%.1f%% retained", getFloatField(event.Data, "retention_rate", 0)),
			formatDurationMs(getIntField(event.Data, "duration_ms", 0)),
		}
	}

	return truncateString(joinFields(fields), 70)
}

// Helper functions to safely extract typed fields from event data
func getStringField(data map[string]interface{}, key, defaultValue string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return defaultValue
}

func getIntField(data map[string]interface{}, key string, defaultValue int) int {
	switch val := data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	}
	return defaultValue
}

func getFloatField(data map[string]interface{}, key string, defaultValue float64) float64 {
	switch val := data[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	}
	return defaultValue
}

// formatDurationMs formats milliseconds into a human-readable duration
func formatDurationMs(ms int) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%.1fm", float64(ms)/60000)
}

// joinFields joins the non-empty fields with " | "
func joinFields(fields []string) string {
	nonEmpty := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return strings.Join(nonEmpty, " | ")
}

// truncateString truncates a string to maxLen runes, adding "..." if needed
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
