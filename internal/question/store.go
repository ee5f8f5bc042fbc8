package question

import (
	"fmt"

	"github.com/spolepaka/readventure-sub001/pkg/errs"
)

// Store is an in-memory question collection indexed by question id and
// grouped by article id. It owns its records for the duration of a pipeline
// run; lookups are O(1) by id and O(k) by article.
type Store struct {
	records   []Record
	byID      map[string]int
	byArticle map[string][]int
}

// FilterQuery selects records conjunctively; zero-value fields are
// unconstrained. ExcludeID removes a record with that exact id after all
// other criteria apply.
type FilterQuery struct {
	ArticleID     string
	ExcludeID     string
	DifficultyTag string
	StandardTag   string
}

// NewStore builds the indexes from decoded records. Records with a duplicate
// question id are reported as integrity violations and skipped (first one
// wins); the store is still usable alongside the returned violations.
func NewStore(records []Record) (*Store, []errs.Violation) {
	s := &Store{
		records:   make([]Record, 0, len(records)),
		byID:      make(map[string]int, len(records)),
		byArticle: make(map[string][]int),
	}
	var violations []errs.Violation
	for _, rec := range records {
		if rec.QuestionID == "" || rec.ArticleID == "" {
			violations = append(violations, errs.Integrity(rec.QuestionID, "record missing question_id or article_id"))
			continue
		}
		if _, exists := s.byID[rec.QuestionID]; exists {
			violations = append(violations, errs.Integrity(rec.QuestionID, "duplicate question id"))
			continue
		}
		idx := len(s.records)
		s.records = append(s.records, rec)
		s.byID[rec.QuestionID] = idx
		s.byArticle[rec.ArticleID] = append(s.byArticle[rec.ArticleID], idx)
	}
	return s, violations
}

// LoadRows decodes tabular rows and builds a store in one step. Rows missing
// identity fields become violations rather than decoded records.
func LoadRows(rows []Row) (*Store, []errs.Violation) {
	records := make([]Record, 0, len(rows))
	var violations []errs.Violation
	for _, row := range rows {
		rec, err := RecordFromRow(row)
		if err != nil {
			violations = append(violations, errs.Integrity(row[ColQuestionID], err.Error()))
			continue
		}
		records = append(records, rec)
	}
	store, more := NewStore(records)
	return store, append(violations, more...)
}

// Get returns the record for a question id, or an error wrapping
// errs.ErrNotFound when the id is unknown.
func (s *Store) Get(questionID string) (Record, error) {
	idx, ok := s.byID[questionID]
	if !ok {
		return Record{}, fmt.Errorf("question %s: %w", questionID, errs.ErrNotFound)
	}
	return s.records[idx], nil
}

// Filter returns records matching every provided criterion, in load order.
func (s *Store) Filter(q FilterQuery) []Record {
	var candidates []int
	if q.ArticleID != "" {
		candidates = s.byArticle[q.ArticleID]
	} else {
		candidates = make([]int, len(s.records))
		for i := range s.records {
			candidates[i] = i
		}
	}

	var out []Record
	for _, idx := range candidates {
		rec := s.records[idx]
		if q.DifficultyTag != "" && rec.DifficultyTag != q.DifficultyTag {
			continue
		}
		if q.StandardTag != "" && rec.StandardTag != q.StandardTag {
			continue
		}
		if q.ExcludeID != "" && rec.QuestionID == q.ExcludeID {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// All returns every record in load order.
func (s *Store) All() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Rows serializes every record back to tabular form, preserving load order.
func (s *Store) Rows() []Row {
	out := make([]Row, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.ToRow())
	}
	return out
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}
