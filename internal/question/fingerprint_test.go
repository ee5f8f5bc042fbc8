package question

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("Why did the fox cross?", map[string]string{
		"A": "hunger", "B": "curiosity", "C": "fear", "D": "habit",
	}, "B")
	b := Fingerprint("Why did the fox cross?", map[string]string{
		"D": "habit", "C": "fear", "B": "curiosity", "A": "hunger",
	}, "B")
	assert.Equal(t, a, b, "digest must not depend on option insertion order")
}

func TestFingerprintIgnoresIncidentalWhitespace(t *testing.T) {
	a := Fingerprint("  prompt  ", map[string]string{"A": " x ", "B": "y"}, " A ")
	b := Fingerprint("prompt", map[string]string{"A": "x", "B": "y"}, "A")
	assert.Equal(t, a, b)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint("prompt", map[string]string{"A": "x", "B": "y"}, "A")

	changedOption := Fingerprint("prompt", map[string]string{"A": "x", "B": "z"}, "A")
	assert.NotEqual(t, base, changedOption, "changing an option must change the digest")

	changedCorrect := Fingerprint("prompt", map[string]string{"A": "x", "B": "y"}, "B")
	assert.NotEqual(t, base, changedCorrect, "changing the correct marker must change the digest")

	changedPrompt := Fingerprint("other prompt", map[string]string{"A": "x", "B": "y"}, "A")
	assert.NotEqual(t, base, changedPrompt)
}

func TestFingerprintFormat(t *testing.T) {
	digest := Fingerprint("prompt", map[string]string{"A": "x"}, "A")
	assert.Len(t, digest, 12)
	assert.Regexp(t, "^[0-9a-f]{12}$", digest)
}

func TestFingerprintRowMatchesRecord(t *testing.T) {
	rec := Record{
		QuestionID:    "q1",
		ArticleID:     "art_1",
		Prompt:        "prompt",
		Options:       map[string]string{"A": "x", "B": "y", "C": "z", "D": "w"},
		CorrectAnswer: "A",
	}
	assert.Equal(t, FingerprintRecord(rec), FingerprintRow(rec.ToRow()))
}
