package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a lookup for a question id with no matching record.
var ErrNotFound = errors.New("not found")

// ErrDataIntegrity marks a record that violates the pipeline's data contract
// (non-binary check score, passed > run, unorderable article id).
var ErrDataIntegrity = errors.New("data integrity violation")

// Violation is a record-level problem accumulated during a batch operation.
// Batch entry points return violations alongside successful results instead
// of aborting on the first bad record.
type Violation struct {
	Code       string `json:"code"`
	QuestionID string `json:"question_id,omitempty"`
	Detail     string `json:"detail"`
}

func (v Violation) String() string {
	if v.QuestionID == "" {
		return fmt.Sprintf("%s: %s", v.Code, v.Detail)
	}
	return fmt.Sprintf("%s: question %s: %s", v.Code, v.QuestionID, v.Detail)
}

// NotFound builds a not_found violation for a question id.
func NotFound(questionID, detail string) Violation {
	return Violation{Code: CodeNotFound, QuestionID: questionID, Detail: detail}
}

// Integrity builds a data_integrity_violation for a question id.
func Integrity(questionID, detail string) Violation {
	return Violation{Code: CodeDataIntegrity, QuestionID: questionID, Detail: detail}
}

// ProvenanceMismatch flags a row whose current content no longer matches the
// fingerprint recorded at QC time.
func ProvenanceMismatch(questionID, detail string) Violation {
	return Violation{Code: CodeProvenanceMismatch, QuestionID: questionID, Detail: detail}
}

// UnresolvedAnswerKey flags a correct-answer marker outside the alias table.
func UnresolvedAnswerKey(questionID, detail string) Violation {
	return Violation{Code: CodeUnresolvedAnswerKey, QuestionID: questionID, Detail: detail}
}

// CountByCode aggregates violations for summary reporting.
func CountByCode(violations []Violation) map[string]int {
	if len(violations) == 0 {
		return map[string]int{}
	}
	counts := make(map[string]int, 4)
	for _, v := range violations {
		counts[v.Code]++
	}
	return counts
}
