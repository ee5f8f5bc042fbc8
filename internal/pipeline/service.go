package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/spolepaka/readventure-sub001/internal/export"
	"github.com/spolepaka/readventure-sub001/internal/question"
	"github.com/spolepaka/readventure-sub001/internal/remediation"
	"github.com/spolepaka/readventure-sub001/pkg/errs"
)

// QuestionSource supplies the tabular question rows and QC records, and
// receives repaired questions. Implemented by the Postgres repository.
type QuestionSource interface {
	LoadQuestionRows(ctx context.Context) ([]question.Row, error)
	LoadQCRecords(ctx context.Context) ([]question.QCResult, error)
	InsertFixedQuestion(ctx context.Context, rec question.Record) error
}

// RepairCache short-circuits regeneration for unchanged failures.
type RepairCache interface {
	Get(ctx context.Context, questionID, fingerprint, strategy string) (*question.Record, error)
	Set(ctx context.Context, questionID, fingerprint, strategy string, rec question.Record) error
}

// PassReport summarizes one remediation pass. Violation counts are always
// populated; nothing is silently filtered.
type PassReport struct {
	RunID          string           `json:"run_id"`
	Questions      int              `json:"questions"`
	QCRecords      int              `json:"qc_records"`
	StrategyCounts map[string]int   `json:"strategy_counts"`
	Repaired       int              `json:"repaired"`
	CacheHits      int              `json:"cache_hits"`
	RepairFailures int              `json:"repair_failures"`
	HashMismatches int              `json:"hash_mismatches"`
	Violations     []errs.Violation `json:"violations,omitempty"`
	Summary        export.Summary   `json:"summary"`
	Rows           []question.Row   `json:"-"`
}

// ServiceOptions configures a pipeline service.
type ServiceOptions struct {
	Classifier remediation.ClassifierConfig
}

// Service orchestrates one remediation pass: load, classify, assemble,
// regenerate, verify, merge.
type Service struct {
	source     QuestionSource
	cache      RepairCache
	generator  remediation.Generator
	classifier *remediation.Classifier
	metrics    *Metrics
	logger     zerolog.Logger
}

// NewService wires a pipeline service. cache and generator may be nil: a nil
// cache disables repair memoization, a nil generator turns repairs into
// logged skips (classification and verification still run).
func NewService(source QuestionSource, cache RepairCache, generator remediation.Generator, metrics *Metrics, opts ServiceOptions, logger zerolog.Logger) *Service {
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	cfg := opts.Classifier
	if cfg == (remediation.ClassifierConfig{}) {
		cfg = remediation.DefaultClassifierConfig()
	}
	return &Service{
		source:     source,
		cache:      cache,
		generator:  generator,
		classifier: remediation.NewClassifier(cfg),
		metrics:    metrics,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// RunPass executes a full remediation pass. Record-level problems accumulate
// as violations and never abort the pass; only a failed load is fatal.
func (s *Service) RunPass(ctx context.Context) (*PassReport, error) {
	report := &PassReport{
		RunID:          uuid.NewString(),
		StrategyCounts: map[string]int{},
	}
	logger := s.logger.With().Str("run_id", report.RunID).Logger()

	rows, err := s.source.LoadQuestionRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question rows: %w", err)
	}
	store, violations := question.LoadRows(rows)
	report.Questions = store.Len()

	qcRecords, err := s.source.LoadQCRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load qc records: %w", err)
	}
	report.QCRecords = len(qcRecords)

	analyses, counts, classifyViolations := s.classifier.ClassifyBatch(qcRecords, logger)
	violations = append(violations, classifyViolations...)
	report.StrategyCounts = counts
	for strategy, n := range counts {
		s.metrics.ClassifiedTotal.WithLabelValues(strategy).Add(float64(n))
	}

	for _, analysis := range analyses {
		violations = append(violations, s.repair(ctx, store, analysis, report, logger)...)
	}

	verified, verifyViolations := export.Verify(store.Rows(), export.QCIndex(qcRecords))
	violations = append(violations, verifyViolations...)
	for _, v := range verifyViolations {
		if v.Code == errs.CodeProvenanceMismatch {
			report.HashMismatches++
			s.metrics.HashMismatches.Inc()
		}
	}

	guiding, quiz := splitByCategory(verified)
	merged, summary, mergeViolations := export.Merge(guiding, quiz)
	violations = append(violations, mergeViolations...)

	report.Rows = merged
	report.Summary = summary
	report.Violations = violations
	// the exported summary counts every violation from the pass, not just
	// the ones raised while merging
	report.Summary.Violations = errs.CountByCode(violations)
	for _, v := range violations {
		s.metrics.ViolationsTotal.WithLabelValues(v.Code).Inc()
	}
	s.metrics.PassesTotal.Inc()

	logger.Info().
		Int("questions", report.Questions).
		Int("qc_records", report.QCRecords).
		Int("repaired", report.Repaired).
		Int("cache_hits", report.CacheHits).
		Int("hash_mismatches", report.HashMismatches).
		Int("violations", len(violations)).
		Interface("strategies", counts).
		Msg("remediation pass complete")
	return report, nil
}

func (s *Service) repair(ctx context.Context, store *question.Store, analysis remediation.FailureAnalysis, report *PassReport, logger zerolog.Logger) []errs.Violation {
	var violations []errs.Violation

	bundle, err := remediation.AssembleContext(store, analysis.QuestionID, true)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			violations = append(violations, errs.NotFound(analysis.QuestionID, "failing qc record has no question"))
			return violations
		}
		logger.Warn().Err(err).Str("question_id", analysis.QuestionID).Msg("context assembly failed")
		report.RepairFailures++
		return violations
	}
	if !bundle.AnswerKeyResolved {
		violations = append(violations, errs.UnresolvedAnswerKey(analysis.QuestionID,
			"correct answer marker "+bundle.CorrectKey+" outside alias table"))
	}

	fingerprint := question.FingerprintRecord(bundle.Question)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, analysis.QuestionID, fingerprint, analysis.Strategy)
		if err != nil {
			logger.Warn().Err(err).Str("question_id", analysis.QuestionID).Msg("repair cache read failed")
		} else if cached != nil {
			report.CacheHits++
			s.metrics.CacheHitsTotal.Inc()
			return violations
		}
	}

	if s.generator == nil {
		logger.Debug().Str("question_id", analysis.QuestionID).Msg("no generator configured, repair skipped")
		return violations
	}

	rec, err := s.generator.Regenerate(ctx, bundle, analysis)
	if err != nil {
		logger.Warn().Err(err).
			Str("question_id", analysis.QuestionID).
			Str("strategy", analysis.Strategy).
			Msg("regeneration failed")
		report.RepairFailures++
		return violations
	}

	rec.Source = question.SourceExtended
	if rec.ParentQuestionID == "" {
		rec.ParentQuestionID = analysis.QuestionID
	}
	rec.FixStrategy = analysis.Strategy
	rec.FixRunID = report.RunID
	rec.FixTimestamp = time.Now().UTC()

	if err := s.source.InsertFixedQuestion(ctx, rec); err != nil {
		logger.Error().Err(err).Str("question_id", rec.QuestionID).Msg("persist repaired question failed")
		report.RepairFailures++
		return violations
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, analysis.QuestionID, fingerprint, analysis.Strategy, rec); err != nil {
			logger.Warn().Err(err).Str("question_id", analysis.QuestionID).Msg("repair cache write failed")
		}
	}
	report.Repaired++
	s.metrics.RepairedTotal.Inc()
	return violations
}

func splitByCategory(rows []question.Row) (guiding, quiz []question.Row) {
	for _, row := range rows {
		if row[question.ColCategory] == question.CategoryGuiding {
			guiding = append(guiding, row)
		} else {
			quiz = append(quiz, row)
		}
	}
	return guiding, quiz
}
