package deduplication

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// Fingerprint hashes the lowercased, trimmed instruction, input and output
// of a record, concatenated without separators. Records with equal
// fingerprints are exact duplicates.
func Fingerprint(r types.Record) string {
	var b strings.Builder
	b.WriteString(normalize(r.Instruction))
	b.WriteString(normalize(r.Input))
	b.WriteString(normalize(r.Output))
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Similarity returns the Ratcliff/Obershelp ratio (2*M/T) of the two
// strings after lowercasing and trimming, compared code point by code
// point. Identical inputs score 1.0; two empty strings also score 1.0.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(codePoints(normalize(a)), codePoints(normalize(b))).Ratio()
}

// OverallSimilarity compares the full text of two records.
func OverallSimilarity(a, b types.Record) float64 {
	return Similarity(a.FullText(), b.FullText())
}

// InstructionSimilarity compares only the instructions of two records.
func InstructionSimilarity(a, b types.Record) float64 {
	return Similarity(a.Instruction, b.Instruction)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func codePoints(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
