package remediation

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/spolepaka/readventure-sub001/internal/question"
	"github.com/spolepaka/readventure-sub001/pkg/errs"
)

// Remediation strategies.
const (
	StrategyDistractorFix    = "distractor_fix"
	StrategyFullRegeneration = "full_regeneration"
)

// QC check names routed by the classifier.
const (
	CheckSingleCorrectAnswer  = "single_correct_answer"
	CheckPassageReference     = "passage_reference"
	CheckStandardAlignment    = "standard_alignment"
	CheckGrammaticalParallel  = "grammatical_parallel"
	CheckPlausibility         = "plausibility"
	CheckHomogeneity          = "homogeneity"
	CheckSpecificityBalance   = "specificity_balance"
	CheckTooClose             = "too_close"
	CheckLengthCheck          = "length_check"
	CheckClarityPrecision     = "clarity_precision"
	CheckDifficultyAssessment = "difficulty_assessment"
)

// Fixed check categories. A critical failure means the question's premise is
// broken and cannot be patched by swapping distractors.
var (
	criticalChecks = map[string]bool{
		CheckSingleCorrectAnswer: true,
		CheckPassageReference:    true,
		CheckStandardAlignment:   true,
	}
	distractorChecks = map[string]bool{
		CheckGrammaticalParallel: true,
		CheckPlausibility:        true,
		CheckHomogeneity:         true,
		CheckSpecificityBalance:  true,
		CheckTooClose:            true,
		CheckLengthCheck:         true,
	}
	clarityChecks = map[string]bool{
		CheckClarityPrecision:     true,
		CheckDifficultyAssessment: true,
	}
)

// ClassifierConfig holds the remediation-routing constants.
type ClassifierConfig struct {
	PassThreshold          float64 // QC score below which a record is failing
	DistractorFailureLimit int     // distractor failures at/above this force regeneration
	SiblingMarker          string  // question-id substring marking derived questions
}

// DefaultClassifierConfig returns production routing constants.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		PassThreshold:          question.PassThreshold,
		DistractorFailureLimit: 3,
		SiblingMarker:          "_sibling",
	}
}

// FailureAnalysis is the per-question repair routing decision. It is consumed
// immediately by the context/generation step and never persisted.
type FailureAnalysis struct {
	QuestionID      string
	FailedChecks    map[string]string // check name -> reasoning
	Strategy        string
	CriticalCount   int
	DistractorCount int
	ClarityCount    int
}

// Classifier routes failing QC records to a repair strategy.
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a classifier with the provided routing constants.
func NewClassifier(config ClassifierConfig) *Classifier {
	if config.DistractorFailureLimit <= 0 {
		config.DistractorFailureLimit = 3
	}
	if config.PassThreshold <= 0 {
		config.PassThreshold = question.PassThreshold
	}
	if config.SiblingMarker == "" {
		config.SiblingMarker = "_sibling"
	}
	return &Classifier{config: config}
}

// Classify inspects one QC record. It returns (nil, nil) for records that are
// not eligible for remediation: originals, and anything at or above the pass
// threshold. A non-binary check score or passed > run is a data-integrity
// error for the record.
//
// Strategy priority, first match wins:
//  1. any critical check failed        -> full_regeneration
//  2. clarity_precision failed         -> full_regeneration
//  3. distractor failures >= limit     -> full_regeneration
//  4. otherwise                        -> distractor_fix
func (c *Classifier) Classify(rec question.QCResult) (*FailureAnalysis, error) {
	if !strings.Contains(rec.QuestionID, c.config.SiblingMarker) {
		return nil, nil
	}
	if rec.OverallScore >= c.config.PassThreshold {
		return nil, nil
	}
	if rec.TotalChecksPassed > rec.TotalChecksRun {
		return nil, fmt.Errorf("question %s: checks passed %d exceeds checks run %d: %w",
			rec.QuestionID, rec.TotalChecksPassed, rec.TotalChecksRun, errs.ErrDataIntegrity)
	}

	analysis := &FailureAnalysis{
		QuestionID:   rec.QuestionID,
		FailedChecks: make(map[string]string),
	}
	for name, check := range rec.Checks {
		switch check.Score {
		case 1:
			continue
		case 0:
			analysis.FailedChecks[name] = check.Reasoning
		default:
			return nil, fmt.Errorf("question %s: check %q score %v is not binary: %w",
				rec.QuestionID, name, check.Score, errs.ErrDataIntegrity)
		}
	}

	for name := range analysis.FailedChecks {
		switch {
		case criticalChecks[name]:
			analysis.CriticalCount++
		case distractorChecks[name]:
			analysis.DistractorCount++
		case clarityChecks[name]:
			analysis.ClarityCount++
		}
	}

	_, clarityFailed := analysis.FailedChecks[CheckClarityPrecision]
	switch {
	case analysis.CriticalCount > 0:
		analysis.Strategy = StrategyFullRegeneration
	case clarityFailed:
		analysis.Strategy = StrategyFullRegeneration
	case analysis.DistractorCount >= c.config.DistractorFailureLimit:
		analysis.Strategy = StrategyFullRegeneration
	default:
		analysis.Strategy = StrategyDistractorFix
	}
	return analysis, nil
}

// ClassifyBatch classifies every eligible record, aggregating per-strategy
// counts. Record-level integrity errors become violations; the batch never
// aborts on a single bad record.
func (c *Classifier) ClassifyBatch(records []question.QCResult, logger zerolog.Logger) ([]FailureAnalysis, map[string]int, []errs.Violation) {
	var (
		analyses   []FailureAnalysis
		violations []errs.Violation
	)
	counts := map[string]int{}
	for _, rec := range records {
		analysis, err := c.Classify(rec)
		if err != nil {
			logger.Warn().Err(err).Str("question_id", rec.QuestionID).Msg("qc record rejected")
			violations = append(violations, errs.Integrity(rec.QuestionID, err.Error()))
			continue
		}
		if analysis == nil {
			continue
		}
		analyses = append(analyses, *analysis)
		counts[analysis.Strategy]++
	}
	return analyses, counts, violations
}
