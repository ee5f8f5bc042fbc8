package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spolepaka/readventure-sub001/internal/question"
	"github.com/spolepaka/readventure-sub001/pkg/errs"
)

func verifierRow(id string, prompt string) question.Row {
	return question.Row{
		question.ColQuestionID:    id,
		question.ColArticleID:     "art_1",
		question.ColPrompt:        prompt,
		"option_a":                "a",
		"option_b":                "b",
		"option_c":                "c",
		"option_d":                "d",
		question.ColCorrectAnswer: "A",
	}
}

func qcFor(row question.Row, score float64) question.QCResult {
	return question.QCResult{
		QuestionID:   row[question.ColQuestionID],
		OverallScore: score,
		ContentHash:  question.FingerprintRow(row),
	}
}

func TestVerifyAnnotatesMatchingRow(t *testing.T) {
	row := verifierRow("q1", "unchanged prompt")
	qc := QCIndex([]question.QCResult{qcFor(row, 0.9)})

	annotated, violations := Verify([]question.Row{row}, qc)
	require.Len(t, annotated, 1)
	assert.Empty(t, violations)
	assert.Equal(t, "0.9", annotated[0][ColQCScore])
	assert.Equal(t, "true", annotated[0][ColPassed])
	assert.Equal(t, "true", annotated[0][ColHashMatch])
}

func TestVerifyFlagsDrift(t *testing.T) {
	row := verifierRow("q1", "original prompt")
	qc := QCIndex([]question.QCResult{qcFor(row, 0.9)})

	edited := row.Clone()
	edited[question.ColPrompt] = "edited after approval"

	annotated, violations := Verify([]question.Row{edited}, qc)
	require.Len(t, annotated, 1)
	assert.Equal(t, "false", annotated[0][ColHashMatch])
	assert.Equal(t, "true", annotated[0][ColPassed], "drift does not rewrite the pass flag, it flags provenance")
	require.Len(t, violations, 1)
	assert.Equal(t, errs.CodeProvenanceMismatch, violations[0].Code)
	assert.Equal(t, "q1", violations[0].QuestionID)
}

func TestVerifyMissingQCRecord(t *testing.T) {
	row := verifierRow("q_orphan", "prompt")

	annotated, violations := Verify([]question.Row{row}, map[string]question.QCResult{})
	require.Len(t, annotated, 1)
	assert.Equal(t, "N/A", annotated[0][ColQCScore])
	assert.Equal(t, "false", annotated[0][ColPassed])
	assert.Equal(t, "N/A", annotated[0][ColHashMatch])
	require.Len(t, violations, 1)
	assert.Equal(t, errs.CodeNotFound, violations[0].Code)
}

func TestVerifyFailingScore(t *testing.T) {
	row := verifierRow("q1", "prompt")
	qc := QCIndex([]question.QCResult{qcFor(row, 0.6)})

	annotated, _ := Verify([]question.Row{row}, qc)
	assert.Equal(t, "false", annotated[0][ColPassed])
	assert.Equal(t, "true", annotated[0][ColHashMatch])
}

func TestVerifyIdempotent(t *testing.T) {
	rows := []question.Row{
		verifierRow("q1", "prompt one"),
		verifierRow("q2", "prompt two"),
	}
	qc := QCIndex([]question.QCResult{qcFor(rows[0], 0.85)})

	first, firstViolations := Verify(rows, qc)
	second, secondViolations := Verify(rows, qc)
	assert.Equal(t, first, second)
	assert.Equal(t, firstViolations, secondViolations)

	// inputs are untouched
	_, annotated := rows[0][ColHashMatch]
	assert.False(t, annotated, "Verify must not mutate its input rows")
}
