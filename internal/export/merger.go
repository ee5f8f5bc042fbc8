package export

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/spolepaka/readventure-sub001/internal/question"
	"github.com/spolepaka/readventure-sub001/pkg/errs"
)

var articleNumberRe = regexp.MustCompile(`\d+`)

// ArticleSummary is the per-article slice of the merge summary.
type ArticleSummary struct {
	ArticleID  string         `json:"article_id"`
	Questions  int            `json:"questions"`
	ByCategory map[string]int `json:"by_category"`
	Sections   int            `json:"sections"`
}

// Summary aggregates the merged dataset. Violation counts are always
// included so filtered rows are never hidden.
type Summary struct {
	Total      int              `json:"total"`
	ByCategory map[string]int   `json:"by_category"`
	BySource   map[string]int   `json:"by_source"`
	Articles   []ArticleSummary `json:"articles"`
	Violations map[string]int   `json:"violations"`
}

// Merge combines two question subsets into one ordered collection with
// global and per-article sequence numbers.
//
// Columns are reconciled by union: a column present in one subset and absent
// in the other is added with empty-string fill, never dropped. Rows sort by
// the numeric portion of article_id, then section_sequence, then question_id,
// all ascending. An article_id with no numeric component cannot be ordered
// and is a per-row integrity violation; the row is excluded from the ordered
// output and reported.
func Merge(subsetA, subsetB []question.Row) ([]question.Row, Summary, []errs.Violation) {
	columns := columnUnion(subsetA, subsetB)

	type sortableRow struct {
		row        question.Row
		articleNum int
		section    int
		id         string
	}

	var (
		sortable   []sortableRow
		violations []errs.Violation
	)
	for _, row := range append(append([]question.Row{}, subsetA...), subsetB...) {
		filled := fillColumns(row, columns)
		articleID := filled[question.ColArticleID]
		numPart := articleNumberRe.FindString(articleID)
		if numPart == "" {
			violations = append(violations, errs.Integrity(filled[question.ColQuestionID],
				"article_id "+strconv.Quote(articleID)+" has no numeric component"))
			continue
		}
		articleNum, err := strconv.Atoi(numPart)
		if err != nil {
			violations = append(violations, errs.Integrity(filled[question.ColQuestionID],
				"article_id "+strconv.Quote(articleID)+" numeric component overflows"))
			continue
		}
		section, _ := strconv.Atoi(filled[question.ColSectionSequence])
		sortable = append(sortable, sortableRow{
			row:        filled,
			articleNum: articleNum,
			section:    section,
			id:         filled[question.ColQuestionID],
		})
	}

	sort.SliceStable(sortable, func(i, j int) bool {
		a, b := sortable[i], sortable[j]
		if a.articleNum != b.articleNum {
			return a.articleNum < b.articleNum
		}
		if a.section != b.section {
			return a.section < b.section
		}
		return a.id < b.id
	})

	merged := make([]question.Row, 0, len(sortable))
	articleCounts := map[string]int{}
	prevArticle := ""
	articleSeq := 0
	for i, item := range sortable {
		item.row[question.ColGlobalSequence] = strconv.Itoa(i + 1)
		if item.row[question.ColArticleID] != prevArticle {
			prevArticle = item.row[question.ColArticleID]
			articleSeq = 0
		}
		articleSeq++
		item.row[question.ColArticleQuestionSequence] = strconv.Itoa(articleSeq)
		articleCounts[item.row[question.ColArticleID]]++
		merged = append(merged, item.row)
	}

	return merged, summarize(merged, violations), violations
}

func summarize(rows []question.Row, violations []errs.Violation) Summary {
	sum := Summary{
		Total:      len(rows),
		ByCategory: map[string]int{},
		BySource:   map[string]int{},
		Violations: errs.CountByCode(violations),
	}

	type articleAgg struct {
		order      int
		count      int
		byCategory map[string]int
		sections   map[string]bool
	}
	articles := map[string]*articleAgg{}
	order := 0
	for _, row := range rows {
		if cat := row[question.ColCategory]; cat != "" {
			sum.ByCategory[cat]++
		}
		if src := row[question.ColSource]; src != "" {
			sum.BySource[src]++
		}
		articleID := row[question.ColArticleID]
		agg, ok := articles[articleID]
		if !ok {
			agg = &articleAgg{order: order, byCategory: map[string]int{}, sections: map[string]bool{}}
			articles[articleID] = agg
			order++
		}
		agg.count++
		if cat := row[question.ColCategory]; cat != "" {
			agg.byCategory[cat]++
		}
		if sec := row[question.ColSectionSequence]; sec != "" {
			agg.sections[sec] = true
		}
	}

	sum.Articles = make([]ArticleSummary, 0, len(articles))
	for id, agg := range articles {
		sum.Articles = append(sum.Articles, ArticleSummary{
			ArticleID:  id,
			Questions:  agg.count,
			ByCategory: agg.byCategory,
			Sections:   len(agg.sections),
		})
	}
	// Rows arrive already sorted by numeric article id, so first-seen order
	// is ascending numeric order.
	sort.SliceStable(sum.Articles, func(i, j int) bool {
		return articles[sum.Articles[i].ArticleID].order < articles[sum.Articles[j].ArticleID].order
	})
	return sum
}

func columnUnion(subsets ...[]question.Row) []string {
	seen := map[string]bool{}
	var columns []string
	for _, subset := range subsets {
		for _, row := range subset {
			for col := range row {
				if !seen[col] {
					seen[col] = true
					columns = append(columns, col)
				}
			}
		}
	}
	return columns
}

func fillColumns(row question.Row, columns []string) question.Row {
	out := row.Clone()
	for _, col := range columns {
		if _, ok := out[col]; !ok {
			out[col] = ""
		}
	}
	return out
}
