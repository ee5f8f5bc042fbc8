package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spolepaka/readventure-sub001/internal/question"
)

type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// QuestionRepository loads the tabular question source and QC records from
// Postgres and persists repaired questions. The pipeline core never sees pgx;
// it consumes the plain rows/records returned here.
type QuestionRepository struct {
	db dbtx
}

func NewQuestionRepository(db dbtx) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const loadQuestionsSQL = `
SELECT question_id, article_id, question_category, question_source,
       parent_question_id, prompt_text,
       option_a, option_b, option_c, option_d,
       explanation_a, explanation_b, explanation_c, explanation_d,
       correct_answer, difficulty_tag, standard_tag, grade, section_sequence,
       fix_strategy, fix_run_id, fix_timestamp
FROM questions
ORDER BY article_id, section_sequence, question_id`

// LoadQuestionRows returns every question as a tabular row. Column names
// become row keys; SQL NULLs are omitted keys so the core's
// missing-defaults-to-empty rule applies.
func (r *QuestionRepository) LoadQuestionRows(ctx context.Context) ([]question.Row, error) {
	rows, err := r.db.Query(ctx, loadQuestionsSQL)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []question.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		row := make(question.Row, len(fields))
		for i, field := range fields {
			if values[i] == nil {
				continue
			}
			row[field.Name] = columnString(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const loadQCRecordsSQL = `
SELECT question_id, overall_score, total_checks_run, total_checks_passed,
       checks, content_hash
FROM qc_results`

// LoadQCRecords returns the QC verdicts, with the per-check map decoded from
// its JSONB column.
func (r *QuestionRepository) LoadQCRecords(ctx context.Context) ([]question.QCResult, error) {
	rows, err := r.db.Query(ctx, loadQCRecordsSQL)
	if err != nil {
		return nil, fmt.Errorf("query qc records: %w", err)
	}
	defer rows.Close()

	var out []question.QCResult
	for rows.Next() {
		var (
			rec        question.QCResult
			checksJSON []byte
		)
		if err := rows.Scan(&rec.QuestionID, &rec.OverallScore, &rec.TotalChecksRun,
			&rec.TotalChecksPassed, &checksJSON, &rec.ContentHash); err != nil {
			return nil, fmt.Errorf("scan qc record: %w", err)
		}
		if len(checksJSON) > 0 {
			if err := json.Unmarshal(checksJSON, &rec.Checks); err != nil {
				return nil, fmt.Errorf("decode checks for %s: %w", rec.QuestionID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const insertFixedSQL = `
INSERT INTO questions (
	question_id, article_id, question_category, question_source,
	parent_question_id, prompt_text,
	option_a, option_b, option_c, option_d,
	explanation_a, explanation_b, explanation_c, explanation_d,
	correct_answer, difficulty_tag, standard_tag, grade, section_sequence,
	fix_strategy, fix_run_id, fix_timestamp
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`

// InsertFixedQuestion stores a repaired question. The superseded record is
// retained for audit; supersession is tracked through the fix_* columns.
func (r *QuestionRepository) InsertFixedQuestion(ctx context.Context, rec question.Record) error {
	_, err := r.db.Exec(ctx, insertFixedSQL,
		rec.QuestionID, rec.ArticleID, rec.Category, rec.Source,
		rec.ParentQuestionID, rec.Prompt,
		rec.Options["A"], rec.Options["B"], rec.Options["C"], rec.Options["D"],
		rec.Explanations["A"], rec.Explanations["B"], rec.Explanations["C"], rec.Explanations["D"],
		rec.CorrectAnswer, rec.DifficultyTag, rec.StandardTag, rec.Grade, rec.SectionSequence,
		rec.FixStrategy, rec.FixRunID, rec.FixTimestamp,
	)
	if err != nil {
		return fmt.Errorf("insert fixed question %s: %w", rec.QuestionID, err)
	}
	return nil
}

func columnString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case int16:
		return strconv.Itoa(int(val))
	case int32:
		return strconv.Itoa(int(val))
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
