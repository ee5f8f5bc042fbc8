package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spolepaka/readventure-sub001/internal/question"
	"github.com/spolepaka/readventure-sub001/internal/remediation"
)

// Config holds connection details for the regeneration service.
type Config struct {
	GeneratorURL string
	GeneratorKey string
	Timeout      time.Duration
}

// Generator is the HTTP client for the external question-repair service. It
// ships a context bundle plus the failure analysis and expects one extended
// question back. Retry/backoff is the caller's concern, not the client's.
type Generator struct {
	httpClient    *http.Client
	config        Config
	logger        zerolog.Logger
	regenerateURL string
}

func NewGenerator(cfg Config, logger zerolog.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimSuffix(cfg.GeneratorURL, "/")

	return &Generator{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:        cfg,
		logger:        logger.With().Str("component", "repair_generator").Logger(),
		regenerateURL: base + "/regenerate",
	}
}

// Regenerate requests a replacement question for a failing sibling.
func (g *Generator) Regenerate(ctx context.Context, bundle *remediation.ContextBundle, analysis remediation.FailureAnalysis) (question.Record, error) {
	if g.config.GeneratorURL == "" {
		return question.Record{}, fmt.Errorf("generator endpoint not configured")
	}

	payload := regenerateRequest{
		Strategy:     analysis.Strategy,
		FailedChecks: analysis.FailedChecks,
		Context:      bundle,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return question.Record{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.regenerateURL, bytes.NewReader(body))
	if err != nil {
		return question.Record{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.config.GeneratorKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.GeneratorKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return question.Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return question.Record{}, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var genResp regenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return question.Record{}, fmt.Errorf("decode generator payload: %w", err)
	}
	if genResp.Question == nil {
		return question.Record{}, fmt.Errorf("generator returned no question")
	}

	return normalizeGenerated(*genResp.Question, bundle.Question), nil
}

// normalizeGenerated fills identity and lineage fields the generator is
// allowed to omit.
func normalizeGenerated(rec question.Record, parent question.Record) question.Record {
	if rec.QuestionID == "" {
		rec.QuestionID = parent.QuestionID + "_fix_" + uuid.NewString()[:8]
	}
	if rec.ArticleID == "" {
		rec.ArticleID = parent.ArticleID
	}
	if rec.Category == "" {
		rec.Category = parent.Category
	}
	rec.Source = question.SourceExtended
	if rec.ParentQuestionID == "" {
		rec.ParentQuestionID = parent.QuestionID
	}
	if rec.DifficultyTag == "" {
		rec.DifficultyTag = parent.DifficultyTag
	}
	if rec.StandardTag == "" {
		rec.StandardTag = parent.StandardTag
	}
	if rec.Grade == 0 {
		rec.Grade = parent.Grade
	}
	if rec.SectionSequence == 0 {
		rec.SectionSequence = parent.SectionSequence
	}
	return rec
}

type regenerateRequest struct {
	Strategy     string                     `json:"strategy"`
	FailedChecks map[string]string          `json:"failed_checks"`
	Context      *remediation.ContextBundle `json:"context"`
}

type regenerateResponse struct {
	Question *question.Record `json:"question"`
}
