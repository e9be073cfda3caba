package events

import (
	"time"

	"github.com/google/uuid"
)

func newEvent(eventType EventType, runID string, severity EventSeverity, message string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		RunID:     runID,
		Severity:  severity,
		Message:   message,
		Data:      make(map[string]interface{}),
	}
}

// NewSimpleEvent creates a new Event with no structured data.
func NewSimpleEvent(eventType EventType, runID string, severity EventSeverity, message string) *Event {
	return newEvent(eventType, runID, severity, message)
}

// NewDataEvent creates a new Event whose Data is built from a typed data
// struct.
func NewDataEvent(eventType EventType, runID string, severity EventSeverity, message string, data interface{}) (*Event, error) {
	event := newEvent(eventType, runID, severity, message)
	if err := event.setData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewRunStartedEvent creates a new Event for the start of a run with type-safe data.
func NewRunStartedEvent(runID, message string, data RunStartedData) (*Event, error) {
	event := newEvent(EventTypeRunStarted, runID, SeverityInfo, message)
	if err := event.SetRunStartedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewRunCompletedEvent creates a new Event for the end of a run with type-safe data.
func NewRunCompletedEvent(runID, message string, data RunCompletedData) (*Event, error) {
	event := newEvent(EventTypeRunCompleted, runID, SeverityInfo, message)
	if err := event.SetRunCompletedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewLineSkippedEvent creates a warning Event for a malformed input line.
func NewLineSkippedEvent(runID, message string, data LineSkippedData) (*Event, error) {
	event := newEvent(EventTypeLineSkipped, runID, SeverityWarning, message)
	if err := event.SetLineSkippedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewStageCompletedEvent creates a new Event for the end of an engine stage.
func NewStageCompletedEvent(runID, message string, data StageCompletedData) (*Event, error) {
	event := newEvent(EventTypeStageCompleted, runID, SeverityInfo, message)
	if err := event.SetStageCompletedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewNearDuplicateRemovedEvent creates a new Event for a near-duplicate decision.
func NewNearDuplicateRemovedEvent(runID string, severity EventSeverity, message string, data NearDuplicateRemovedData) (*Event, error) {
	event := newEvent(EventTypeNearDuplicateRemoved, runID, severity, message)
	if err := event.SetNearDuplicateRemovedData(data); err != nil {
		return nil, err
	}
	return event, nil
}
