package question

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category constants.
const (
	CategoryGuiding = "guiding"
	CategoryQuiz    = "quiz"
)

// Source constants.
const (
	SourceOriginal = "original"
	SourceExtended = "extended"
)

// PassThreshold is the system-wide QC pass bar: a QC record passes iff
// overall_score >= PassThreshold.
const PassThreshold = 0.8

// Tabular column names shared by the loader, verifier and merger.
const (
	ColQuestionID      = "question_id"
	ColArticleID       = "article_id"
	ColCategory        = "question_category"
	ColSource          = "question_source"
	ColParentID        = "parent_question_id"
	ColPrompt          = "prompt_text"
	ColCorrectAnswer   = "correct_answer"
	ColDifficulty      = "difficulty_tag"
	ColStandard        = "standard_tag"
	ColGrade           = "grade"
	ColSectionSequence = "section_sequence"
	ColFixStrategy     = "fix_strategy"
	ColFixTimestamp    = "fix_timestamp"
	ColFixRunID        = "fix_run_id"

	ColGlobalSequence          = "global_sequence"
	ColArticleQuestionSequence = "article_question_sequence"
)

// OptionKeys lists the canonical answer option keys in order.
var OptionKeys = []string{"A", "B", "C", "D"}

// answerKeyAliases maps both numbering schemes onto the canonical A-D keys.
// Letter lookups are case-insensitive via ResolveAnswerKey.
var answerKeyAliases = map[string]string{
	"1": "A", "2": "B", "3": "C", "4": "D",
	"A": "A", "B": "B", "C": "C", "D": "D",
}

// ResolveAnswerKey normalizes a correct-answer marker ("2", "b", "B") to its
// canonical option key. The second return is false when the marker is outside
// the alias table; callers pass such markers through unchanged and flag them.
func ResolveAnswerKey(marker string) (string, bool) {
	key, ok := answerKeyAliases[strings.ToUpper(strings.TrimSpace(marker))]
	if !ok {
		return strings.TrimSpace(marker), false
	}
	return key, true
}

// Row is one tabular question row as supplied by the external loader.
// Absent optional fields are simply missing keys; readers treat missing as "".
type Row map[string]string

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Record is a fully decoded question with options normalized onto A-D keys.
// Records are never mutated in place: a fix produces a new record that
// supersedes the old one via fix_timestamp/fix_strategy/fix_run_id.
type Record struct {
	QuestionID       string            `json:"question_id"`
	ArticleID        string            `json:"article_id"`
	Category         string            `json:"question_category"`
	Source           string            `json:"question_source"`
	ParentQuestionID string            `json:"parent_question_id,omitempty"`
	Prompt           string            `json:"prompt_text"`
	Options          map[string]string `json:"options"`
	CorrectAnswer    string            `json:"correct_answer"`
	Explanations     map[string]string `json:"explanations,omitempty"`
	DifficultyTag    string            `json:"difficulty_tag,omitempty"`
	StandardTag      string            `json:"standard_tag,omitempty"`
	Grade            int               `json:"grade,omitempty"`
	SectionSequence  int               `json:"section_sequence,omitempty"`
	FixStrategy      string            `json:"fix_strategy,omitempty"`
	FixRunID         string            `json:"fix_run_id,omitempty"`
	FixTimestamp     time.Time         `json:"fix_timestamp,omitempty"`
}

// RecordFromRow decodes a tabular row into a Record. Missing identity fields
// are a hard error; every other missing field defaults to its zero value.
// Options arriving under either numbering scheme (option_a..option_d or
// option_1..option_4) land on canonical A-D keys.
func RecordFromRow(row Row) (Record, error) {
	id := strings.TrimSpace(row[ColQuestionID])
	if id == "" {
		return Record{}, fmt.Errorf("row missing %s", ColQuestionID)
	}
	articleID := strings.TrimSpace(row[ColArticleID])
	if articleID == "" {
		return Record{}, fmt.Errorf("question %s: row missing %s", id, ColArticleID)
	}

	rec := Record{
		QuestionID:       id,
		ArticleID:        articleID,
		Category:         row[ColCategory],
		Source:           row[ColSource],
		ParentQuestionID: row[ColParentID],
		Prompt:           row[ColPrompt],
		Options:          optionColumns(row, "option_"),
		CorrectAnswer:    row[ColCorrectAnswer],
		Explanations:     optionColumns(row, "explanation_"),
		DifficultyTag:    row[ColDifficulty],
		StandardTag:      row[ColStandard],
		FixStrategy:      row[ColFixStrategy],
		FixRunID:         row[ColFixRunID],
	}
	if g, err := strconv.Atoi(row[ColGrade]); err == nil {
		rec.Grade = g
	}
	if s, err := strconv.Atoi(row[ColSectionSequence]); err == nil {
		rec.SectionSequence = s
	}
	if ts, err := time.Parse(time.RFC3339, row[ColFixTimestamp]); err == nil {
		rec.FixTimestamp = ts
	}
	return rec, nil
}

// ToRow serializes a record back into tabular form with canonical option
// columns (option_a..option_d).
func (rec Record) ToRow() Row {
	row := Row{
		ColQuestionID:    rec.QuestionID,
		ColArticleID:     rec.ArticleID,
		ColCategory:      rec.Category,
		ColSource:        rec.Source,
		ColParentID:      rec.ParentQuestionID,
		ColPrompt:        rec.Prompt,
		ColCorrectAnswer: rec.CorrectAnswer,
		ColDifficulty:    rec.DifficultyTag,
		ColStandard:      rec.StandardTag,
		ColFixStrategy:   rec.FixStrategy,
		ColFixRunID:      rec.FixRunID,
	}
	if rec.Grade != 0 {
		row[ColGrade] = strconv.Itoa(rec.Grade)
	}
	if rec.SectionSequence != 0 {
		row[ColSectionSequence] = strconv.Itoa(rec.SectionSequence)
	}
	if !rec.FixTimestamp.IsZero() {
		row[ColFixTimestamp] = rec.FixTimestamp.UTC().Format(time.RFC3339)
	}
	for _, key := range OptionKeys {
		row["option_"+strings.ToLower(key)] = rec.Options[key]
		if exp, ok := rec.Explanations[key]; ok {
			row["explanation_"+strings.ToLower(key)] = exp
		}
	}
	return row
}

// optionColumns collects per-option columns under a prefix, accepting both
// letter and number suffixes and normalizing onto A-D keys.
func optionColumns(row Row, prefix string) map[string]string {
	out := make(map[string]string, len(OptionKeys))
	for i, key := range OptionKeys {
		if v, ok := row[prefix+strings.ToLower(key)]; ok {
			out[key] = v
			continue
		}
		if v, ok := row[prefix+strconv.Itoa(i+1)]; ok {
			out[key] = v
		}
	}
	return out
}

// CheckResult is one named QC check outcome. Score is binary: 1 pass, 0 fail.
type CheckResult struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// QCResult is the per-question verdict produced by the QC subsystem. The
// pipeline treats overall_score, checks and content_hash as authoritative and
// never re-scores.
type QCResult struct {
	QuestionID        string                 `json:"question_id"`
	OverallScore      float64                `json:"overall_score"`
	TotalChecksRun    int                    `json:"total_checks_run"`
	TotalChecksPassed int                    `json:"total_checks_passed"`
	Checks            map[string]CheckResult `json:"checks"`
	ContentHash       string                 `json:"content_hash"`
}

// Passed reports whether the record clears the system-wide pass threshold.
func (q QCResult) Passed() bool {
	return q.OverallScore >= PassThreshold
}
