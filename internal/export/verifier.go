package export

import (
	"fmt"
	"strconv"

	"github.com/spolepaka/readventure-sub001/internal/question"
	"github.com/spolepaka/readventure-sub001/pkg/errs"
)

// Annotation columns written by Verify.
const (
	ColQCScore   = "qc_score"
	ColPassed    = "passed"
	ColHashMatch = "hash_match"
)

const notAvailable = "N/A"

// Verify joins working question rows against their QC records by question id,
// recomputes each row's content fingerprint and flags provenance mismatches.
// A mismatch means the row was edited after QC approval and the approval no
// longer applies; it is flagged, never dropped or corrected. Inputs are not
// mutated and the operation is idempotent.
func Verify(rows []question.Row, qcByID map[string]question.QCResult) ([]question.Row, []errs.Violation) {
	out := make([]question.Row, 0, len(rows))
	var violations []errs.Violation

	for _, row := range rows {
		annotated := row.Clone()
		id := row[question.ColQuestionID]

		qc, ok := qcByID[id]
		if !ok {
			annotated[ColQCScore] = notAvailable
			annotated[ColPassed] = "false"
			annotated[ColHashMatch] = notAvailable
			violations = append(violations, errs.NotFound(id, "no qc record for exported row"))
			out = append(out, annotated)
			continue
		}

		annotated[ColQCScore] = strconv.FormatFloat(qc.OverallScore, 'f', -1, 64)
		annotated[ColPassed] = strconv.FormatBool(qc.Passed())

		current := question.FingerprintRow(row)
		if current == qc.ContentHash {
			annotated[ColHashMatch] = "true"
		} else {
			annotated[ColHashMatch] = "false"
			violations = append(violations, errs.ProvenanceMismatch(id,
				fmt.Sprintf("content hash %s disagrees with qc-time hash %s", current, qc.ContentHash)))
		}
		out = append(out, annotated)
	}
	return out, violations
}

// QCIndex builds the question_id -> record map Verify consumes.
func QCIndex(records []question.QCResult) map[string]question.QCResult {
	index := make(map[string]question.QCResult, len(records))
	for _, rec := range records {
		index[rec.QuestionID] = rec
	}
	return index
}
