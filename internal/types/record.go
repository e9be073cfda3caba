package types

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Record is one instruction-tuning example in Alpaca shape.
//
// Records decoded from JSON keep the original encoded object so that
// writing them back out preserves keys this package does not model.
type Record struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`

	raw json.RawMessage
}

// recordFields mirrors Record without its methods so the JSON codec can be
// reused inside UnmarshalJSON/MarshalJSON without recursing.
type recordFields struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
}

// NewRecord builds a Record with no original encoding attached.
func NewRecord(instruction, input, output string) Record {
	return Record{Instruction: instruction, Input: input, Output: output}
}

// UnmarshalJSON decodes the three text fields and retains the raw object.
// A non-string instruction, input or output is an error.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields recordFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	r.Instruction = fields.Instruction
	r.Input = fields.Input
	r.Output = fields.Output
	r.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}

// MarshalJSON returns the original encoding when the record was decoded
// from JSON, otherwise the three text fields with HTML characters left
// unescaped.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return append([]byte(nil), r.raw...), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(recordFields{
		Instruction: r.Instruction,
		Input:       r.Input,
		Output:      r.Output,
	}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// HasRaw reports whether the record carries its original JSON encoding.
func (r Record) HasRaw() bool {
	return len(r.raw) > 0
}

// FullText joins instruction, input and output with single spaces.
// Fields are used as stored; callers normalize as needed.
func (r Record) FullText() string {
	return r.Instruction + " " + r.Input + " " + r.Output
}

// Trimmed returns a copy with whitespace trimmed from every text field.
// The copy does not carry the original encoding.
func (r Record) Trimmed() Record {
	return Record{
		Instruction: strings.TrimSpace(r.Instruction),
		Input:       strings.TrimSpace(r.Input),
		Output:      strings.TrimSpace(r.Output),
	}
}

// HasInput reports whether the input field has non-whitespace content.
func (r Record) HasInput() bool {
	return strings.TrimSpace(r.Input) != ""
}

// TextLen counts code points, which is how every length rule in this
// module is measured.
func TextLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate cuts s to at most n code points, appending "..." when cut.
func Truncate(s string, n int) string {
	if n < 0 || TextLen(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
