// Package dataset reads and writes newline-delimited JSON instruction
// corpora.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/OliseNS/FinetuneGemma/internal/events"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// ErrInputNotFound is returned when the corpus file does not exist.
var ErrInputNotFound = errors.New("input file not found")

// ErrNoRecords is returned when the corpus exists but has no usable records.
var ErrNoRecords = errors.New("no records loaded")

// maxLineSize bounds a single JSONL line.
const maxLineSize = 16 * 1024 * 1024

// LoadResult is the outcome of reading a corpus.
type LoadResult struct {
	Records      []types.Record
	SkippedLines int
}

// Loader reads JSONL corpora and reports malformed lines to a sink.
type Loader struct {
	Sink  events.Sink
	RunID string
}

// NewLoader returns a loader reporting to sink. A nil sink discards.
func NewLoader(sink events.Sink, runID string) *Loader {
	if sink == nil {
		sink = events.Discard
	}
	return &Loader{Sink: sink, RunID: runID}
}

// Load reads the corpus at path. A missing file yields ErrInputNotFound.
func (l *Loader) Load(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	result, err := l.Read(f, path)
	if err != nil {
		return nil, err
	}

	event, evErr := events.NewDataEvent(events.EventTypeLoadCompleted, l.RunID, events.SeverityInfo,
		fmt.Sprintf("Loaded %d records from %s", len(result.Records), path),
		events.LoadCompletedData{Path: path, Records: len(result.Records), SkippedLines: result.SkippedLines})
	if evErr == nil {
		l.sink().Emit(event)
	}
	return result, nil
}

// Read parses JSONL from r. Blank lines are ignored; lines that are not a
// JSON object with string text fields are skipped and reported. name is
// only used in events and errors.
func (l *Loader) Read(r io.Reader, name string) (*LoadResult, error) {
	result := &LoadResult{Records: make([]types.Record, 0, 1024)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		record, err := decodeLine(line)
		if err != nil {
			result.SkippedLines++
			l.lineSkipped(name, lineNum, err)
			continue
		}
		result.Records = append(result.Records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return result, nil
}

func decodeLine(line []byte) (types.Record, error) {
	var record types.Record
	if line[0] != '{' {
		return record, fmt.Errorf("expected a JSON object")
	}
	if err := json.Unmarshal(line, &record); err != nil {
		return record, err
	}
	return record, nil
}

func (l *Loader) lineSkipped(name string, lineNum int, cause error) {
	event, err := events.NewLineSkippedEvent(l.RunID,
		fmt.Sprintf("Invalid JSON on line %d: %v", lineNum, cause),
		events.LineSkippedData{Path: name, Line: lineNum, Error: cause.Error()})
	if err == nil {
		l.sink().Emit(event)
	}
}

func (l *Loader) sink() events.Sink {
	if l.Sink == nil {
		return events.Discard
	}
	return l.Sink
}

// Load reads path with a loader that discards events.
func Load(path string) (*LoadResult, error) {
	return NewLoader(nil, "").Load(path)
}

// Save writes records to path as JSONL, creating the parent directory.
// Records decoded from JSON are written back with their original encoding.
func Save(path string, records []types.Record) error {
	return WriteJSONL(path, records)
}

// WriteJSONL writes any JSON-encodable items one per line, creating the
// parent directory. HTML characters are not escaped.
func WriteJSONL[T any](path string, items []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := Encode(f, items); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// Encode writes items to w as JSONL.
func Encode[T any](w io.Writer, items []T) error {
	writer := bufio.NewWriter(w)
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	for i := range items {
		if err := encoder.Encode(items[i]); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return writer.Flush()
}
