package remediation

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/spolepaka/readventure-sub001/internal/question"
)

type stubGenerator struct {
	mu    sync.Mutex
	calls int
}

func (s *stubGenerator) Regenerate(ctx context.Context, bundle *ContextBundle, analysis FailureAnalysis) (question.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return question.Record{
		QuestionID:       analysis.QuestionID + "_fix",
		ArticleID:        bundle.Question.ArticleID,
		Source:           question.SourceExtended,
		ParentQuestionID: analysis.QuestionID,
	}, nil
}

func (s *stubGenerator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubSink struct {
	mu       sync.Mutex
	inserted []question.Record
}

func (s *stubSink) InsertFixedQuestion(ctx context.Context, rec question.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, rec)
	return nil
}

func (s *stubSink) Inserted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

func TestWorkerRepairsQueuedRequests(t *testing.T) {
	gen := &stubGenerator{}
	sink := &stubSink{}
	queue := make(chan RepairRequest, 1)

	store, _ := question.NewStore([]question.Record{{
		QuestionID: "q1_sibling_1", ArticleID: "art_1",
		Options:       map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
		CorrectAnswer: "A",
	}})
	bundle, err := AssembleContext(store, "q1_sibling_1", false)
	assert.NoError(t, err)

	queue <- RepairRequest{
		Bundle:   bundle,
		Analysis: FailureAnalysis{QuestionID: "q1_sibling_1", Strategy: StrategyDistractorFix},
	}

	worker := NewWorker(gen, sink, queue, zerolog.New(io.Discard), 50*time.Millisecond)
	go worker.Run()

	assert.Eventually(t, func() bool {
		return gen.Calls() == 1 && sink.Inserted() == 1
	}, time.Second, 5*time.Millisecond)
	worker.Stop()
}
