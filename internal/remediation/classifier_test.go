package remediation

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spolepaka/readventure-sub001/internal/question"
	"github.com/spolepaka/readventure-sub001/pkg/errs"
)

func qcRecord(id string, score float64, failed ...string) question.QCResult {
	checks := map[string]question.CheckResult{}
	for _, name := range failed {
		checks[name] = question.CheckResult{Score: 0, Reasoning: name + " failed"}
	}
	// pad with a passing check so Checks is never empty
	checks["passage_reference_pad"] = question.CheckResult{Score: 1}
	return question.QCResult{
		QuestionID:        id,
		OverallScore:      score,
		TotalChecksRun:    len(checks),
		TotalChecksPassed: len(checks) - len(failed),
		Checks:            checks,
	}
}

func TestClassifySkipsIneligible(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	// original question, even though failing
	analysis, err := c.Classify(qcRecord("q2", 0.4, CheckPlausibility))
	assert.NoError(t, err)
	assert.Nil(t, analysis)

	// sibling but passing
	analysis, err = c.Classify(qcRecord("q2_sibling_1", 0.9))
	assert.NoError(t, err)
	assert.Nil(t, analysis)

	// exactly at threshold is passing
	analysis, err = c.Classify(qcRecord("q2_sibling_1", 0.8))
	assert.NoError(t, err)
	assert.Nil(t, analysis)
}

func TestClassifyCriticalBeatsDistractorCount(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	analysis, err := c.Classify(qcRecord("q3_sibling_1", 0.5,
		CheckSingleCorrectAnswer, CheckPlausibility, CheckTooClose))
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, StrategyFullRegeneration, analysis.Strategy)
	assert.Equal(t, 1, analysis.CriticalCount)
	assert.Equal(t, 2, analysis.DistractorCount)
}

func TestClassifyClarityForcesRegeneration(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	analysis, err := c.Classify(qcRecord("q3_sibling_2", 0.6, CheckClarityPrecision))
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, StrategyFullRegeneration, analysis.Strategy)
}

func TestClassifyDistractorThreshold(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	two, err := c.Classify(qcRecord("q4_sibling_1", 0.6, CheckPlausibility, CheckTooClose))
	require.NoError(t, err)
	require.NotNil(t, two)
	assert.Equal(t, StrategyDistractorFix, two.Strategy)

	three, err := c.Classify(qcRecord("q4_sibling_2", 0.6,
		CheckPlausibility, CheckTooClose, CheckLengthCheck))
	require.NoError(t, err)
	require.NotNil(t, three)
	assert.Equal(t, StrategyFullRegeneration, three.Strategy)
}

func TestClassifyDifficultyAssessmentAloneIsDistractorFix(t *testing.T) {
	// difficulty_assessment is a clarity-category check, but only
	// clarity_precision forces regeneration.
	c := NewClassifier(DefaultClassifierConfig())
	analysis, err := c.Classify(qcRecord("q5_sibling_1", 0.7, CheckDifficultyAssessment))
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, StrategyDistractorFix, analysis.Strategy)
	assert.Equal(t, 1, analysis.ClarityCount)
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	rec := qcRecord("q6_sibling_1", 0.5, CheckPlausibility, CheckHomogeneity, CheckGrammaticalParallel)
	first, err := c.Classify(rec)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Classify(rec)
		require.NoError(t, err)
		assert.Equal(t, first.Strategy, again.Strategy)
	}
}

func TestClassifyNonBinaryScoreIsIntegrityError(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	rec := qcRecord("q7_sibling_1", 0.5)
	rec.Checks[CheckPlausibility] = question.CheckResult{Score: 0.5, Reasoning: "partial"}

	_, err := c.Classify(rec)
	assert.ErrorIs(t, err, errs.ErrDataIntegrity)
}

func TestClassifyPassedExceedsRunIsIntegrityError(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	rec := qcRecord("q8_sibling_1", 0.5, CheckPlausibility)
	rec.TotalChecksPassed = rec.TotalChecksRun + 1

	_, err := c.Classify(rec)
	assert.ErrorIs(t, err, errs.ErrDataIntegrity)
}

func TestClassifyBatchAggregates(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	logger := zerolog.New(io.Discard)

	bad := qcRecord("q9_sibling_1", 0.5)
	bad.Checks[CheckTooClose] = question.CheckResult{Score: 2}

	records := []question.QCResult{
		qcRecord("q1", 0.9), // ineligible
		qcRecord("q2_sibling_1", 0.6, CheckPlausibility, CheckTooClose, CheckLengthCheck),
		qcRecord("q3_sibling_1", 0.6, CheckPlausibility),
		qcRecord("q4_sibling_1", 0.3, CheckPassageReference),
		bad,
	}

	analyses, counts, violations := c.ClassifyBatch(records, logger)
	assert.Len(t, analyses, 3)
	assert.Equal(t, map[string]int{
		StrategyFullRegeneration: 2,
		StrategyDistractorFix:    1,
	}, counts)
	require.Len(t, violations, 1)
	assert.Equal(t, errs.CodeDataIntegrity, violations[0].Code)
	assert.Equal(t, "q9_sibling_1", violations[0].QuestionID)
}
