package question

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

const fingerprintLen = 12

// Fingerprint computes a short stable digest over a question's normalized
// content. It is the sole drift detector between QC approval and export:
// identical normalized content always yields an identical digest, regardless
// of option-map insertion order or incidental whitespace.
func Fingerprint(prompt string, options map[string]string, correct string) string {
	trimmed := make(map[string]string, len(options))
	for key, value := range options {
		trimmed[key] = strings.TrimSpace(value)
	}
	// encoding/json serializes map keys in sorted order, which makes the
	// payload byte-identical for any input ordering.
	payload, err := json.Marshal(map[string]any{
		"question": strings.TrimSpace(prompt),
		"options":  trimmed,
		"correct":  strings.TrimSpace(correct),
	})
	if err != nil {
		// map[string]string cannot fail to marshal
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// FingerprintRecord fingerprints a decoded record.
func FingerprintRecord(rec Record) string {
	return Fingerprint(rec.Prompt, rec.Options, rec.CorrectAnswer)
}

// FingerprintRow fingerprints a tabular row from its current prompt, option
// and correct-answer columns.
func FingerprintRow(row Row) string {
	return Fingerprint(row[ColPrompt], optionColumns(row, "option_"), row[ColCorrectAnswer])
}
