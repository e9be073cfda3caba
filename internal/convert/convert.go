// Package convert turns the raw CSV dataset into instruction-tuning JSONL
// records: flat prompt/completion pairs and Alpaca instruction/input/output
// triples.
package convert

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// Column names recognized in the CSV header.
const (
	ColumnPrompt       = "prompt"
	ColumnCompletion   = "completion"
	ColumnAgeGroup     = "age_group"
	ColumnAudienceType = "audience_type"
	ColumnTags         = "tags"
)

// DefaultSeed makes shuffles reproducible across runs.
const DefaultSeed = 42

// DefaultValidationFraction is the share of rows held out for validation.
const DefaultValidationFraction = 0.1

// Row is one usable CSV row. Values are trimmed and NFC-normalized.
type Row struct {
	Prompt       string
	Completion   string
	AgeGroup     string
	AudienceType string
	Tags         string
}

// FlatRecord is the prompt/completion format.
type FlatRecord struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// ReadRows parses a CSV with a header row. Rows without both a prompt and
// a completion are dropped. The optional columns may be absent.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	if _, ok := columns[ColumnPrompt]; !ok {
		return nil, fmt.Errorf("CSV header has no %q column", ColumnPrompt)
	}
	if _, ok := columns[ColumnCompletion]; !ok {
		return nil, fmt.Errorf("CSV header has no %q column", ColumnCompletion)
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return clean(record[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		row := Row{
			Prompt:       field(record, ColumnPrompt),
			Completion:   field(record, ColumnCompletion),
			AgeGroup:     field(record, ColumnAgeGroup),
			AudienceType: field(record, ColumnAudienceType),
			Tags:         field(record, ColumnTags),
		}
		if row.Prompt == "" || row.Completion == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadRowsFile opens path and calls ReadRows.
func ReadRowsFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ToFlat builds prompt/completion records. The prompt gets a trailing space
// so completions start on a token boundary.
func ToFlat(rows []Row) []FlatRecord {
	out := make([]FlatRecord, len(rows))
	for i, row := range rows {
		out[i] = FlatRecord{Prompt: row.Prompt + " ", Completion: row.Completion}
	}
	return out
}

// ToAlpaca builds instruction/input/output records with the row metadata
// folded into the input.
func ToAlpaca(rows []Row) []types.Record {
	out := make([]types.Record, len(rows))
	for i, row := range rows {
		out[i] = types.NewRecord(row.Prompt, ContextInput(row), row.Completion)
	}
	return out
}

// ContextInput renders "Age group: X. Audience: Y. Topic areas: Z",
// leaving out empty parts.
func ContextInput(row Row) string {
	var parts []string
	if row.AgeGroup != "" {
		parts = append(parts, "Age group: "+row.AgeGroup)
	}
	if row.AudienceType != "" {
		parts = append(parts, "Audience: "+row.AudienceType)
	}
	if row.Tags != "" {
		parts = append(parts, "Topic areas: "+row.Tags)
	}
	return strings.Join(parts, ". ")
}

// Shuffle permutes items in place, deterministically for a given seed.
func Shuffle[T any](items []T, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// Split holds out the first int(len*fraction) items for validation and
// returns (training, validation).
func Split[T any](items []T, fraction float64) ([]T, []T, error) {
	if fraction < 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("validation fraction must be in [0, 1) (got %.2f)", fraction)
	}
	n := int(float64(len(items)) * fraction)
	return items[n:], items[:n], nil
}

const alpacaTemplate = `Below is an instruction that describes a task, paired with an input that provides further context. Write a response that appropriately completes the request.

### Instruction:
%s

### Input:
%s

### Response:
%s`

// AlpacaPrompt renders a record in the Alpaca training template.
func AlpacaPrompt(r types.Record) string {
	return fmt.Sprintf(alpacaTemplate, r.Instruction, r.Input, r.Output)
}
