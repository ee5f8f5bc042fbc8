package remediation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/spolepaka/readventure-sub001/internal/question"
)

// Generator produces a replacement question for a failing sibling.
// Implemented by the HTTP client in remediation/ai.
type Generator interface {
	Regenerate(ctx context.Context, bundle *ContextBundle, analysis FailureAnalysis) (question.Record, error)
}

// Sink receives generated replacements (implemented by the repository).
type Sink interface {
	InsertFixedQuestion(ctx context.Context, rec question.Record) error
}

// RepairRequest pairs the routing decision with the assembled context.
type RepairRequest struct {
	Bundle   *ContextBundle
	Analysis FailureAnalysis
}

// Worker drains repair requests asynchronously so a slow generator does not
// stall classification of the rest of the batch.
type Worker struct {
	generator Generator
	sink      Sink
	queue     <-chan RepairRequest
	logger    zerolog.Logger
	timeout   time.Duration
	shutdownC chan struct{}
}

func NewWorker(generator Generator, sink Sink, queue <-chan RepairRequest, logger zerolog.Logger, timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Worker{
		generator: generator,
		sink:      sink,
		queue:     queue,
		logger:    logger.With().Str("component", "repair_worker").Logger(),
		timeout:   timeout,
		shutdownC: make(chan struct{}),
	}
}

func (w *Worker) Run() {
	for {
		select {
		case <-w.shutdownC:
			w.logger.Info().Msg("repair worker stopping")
			return
		case req := <-w.queue:
			w.handle(req)
		}
	}
}

func (w *Worker) handle(req RepairRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	rec, err := w.generator.Regenerate(ctx, req.Bundle, req.Analysis)
	if err != nil {
		w.logger.Warn().Err(err).
			Str("question_id", req.Analysis.QuestionID).
			Str("strategy", req.Analysis.Strategy).
			Msg("repair failed")
		return
	}
	if w.sink != nil {
		if err := w.sink.InsertFixedQuestion(ctx, rec); err != nil {
			w.logger.Error().Err(err).Str("question_id", rec.QuestionID).Msg("persist repaired question failed")
			return
		}
	}
	w.logger.Info().
		Str("question_id", req.Analysis.QuestionID).
		Str("replacement_id", rec.QuestionID).
		Str("strategy", req.Analysis.Strategy).
		Msg("question repaired")
}

func (w *Worker) Stop() {
	close(w.shutdownC)
}
