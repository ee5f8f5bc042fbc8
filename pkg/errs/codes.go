package errs

// Violation codes reported by batch pipeline operations.
const (
	// Lookup errors
	CodeNotFound = "not_found"

	// Record-level data errors
	CodeDataIntegrity = "data_integrity_violation"

	// Advisory conditions (row is kept, flagged)
	CodeProvenanceMismatch  = "provenance_mismatch"
	CodeUnresolvedAnswerKey = "unresolved_answer_key"
)
