package export

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spolepaka/readventure-sub001/internal/question"
	"github.com/spolepaka/readventure-sub001/pkg/errs"
)

func mergeRow(id, articleID, category, section string) question.Row {
	return question.Row{
		question.ColQuestionID:      id,
		question.ColArticleID:       articleID,
		question.ColCategory:        category,
		question.ColSource:          question.SourceOriginal,
		question.ColSectionSequence: section,
	}
}

func TestMergeOrderingAndSequences(t *testing.T) {
	guiding := []question.Row{
		mergeRow("q9", "art_10", question.CategoryGuiding, "2"),
		mergeRow("q1", "art_2", question.CategoryGuiding, "1"),
	}
	quiz := []question.Row{
		mergeRow("q3", "art_2", question.CategoryQuiz, "2"),
		mergeRow("q2", "art_2", question.CategoryQuiz, "1"),
		mergeRow("q8", "art_10", question.CategoryQuiz, "1"),
	}

	merged, _, violations := Merge(guiding, quiz)
	require.Empty(t, violations)
	require.Len(t, merged, 5)

	var ids []string
	for _, row := range merged {
		ids = append(ids, row[question.ColQuestionID])
	}
	// art_2 sorts before art_10 numerically (2 < 10); within an article,
	// section then question id.
	assert.Equal(t, []string{"q1", "q2", "q3", "q8", "q9"}, ids)

	for i, row := range merged {
		assert.Equal(t, strconv.Itoa(i+1), row[question.ColGlobalSequence])
	}
	var articleSeqs []string
	for _, row := range merged {
		articleSeqs = append(articleSeqs, row[question.ColArticleQuestionSequence])
	}
	assert.Equal(t, []string{"1", "2", "3", "1", "2"}, articleSeqs,
		"per-article sequence restarts at each article boundary")
}

func TestMergeSecondaryAndTertiaryKeys(t *testing.T) {
	a := []question.Row{
		mergeRow("q_b", "art_1", question.CategoryQuiz, "1"),
		mergeRow("q_a", "art_1", question.CategoryQuiz, "1"),
	}
	merged, _, _ := Merge(a, nil)
	require.Len(t, merged, 2)
	assert.Equal(t, "q_a", merged[0][question.ColQuestionID], "ties break lexicographically by question id")
}

func TestMergeColumnUnion(t *testing.T) {
	a := []question.Row{mergeRow("q1", "art_1", question.CategoryGuiding, "1")}
	a[0]["guiding_hint"] = "look at paragraph 2"
	b := []question.Row{mergeRow("q2", "art_1", question.CategoryQuiz, "2")}
	b[0]["quiz_points"] = "5"

	merged, _, _ := Merge(a, b)
	require.Len(t, merged, 2)
	for _, row := range merged {
		_, hasHint := row["guiding_hint"]
		_, hasPoints := row["quiz_points"]
		assert.True(t, hasHint, "columns are unioned, never dropped")
		assert.True(t, hasPoints)
	}
	assert.Equal(t, "", merged[1]["guiding_hint"])
	assert.Equal(t, "", merged[0]["quiz_points"])
}

func TestMergeNonNumericArticleIsViolation(t *testing.T) {
	rows := []question.Row{
		mergeRow("q1", "art_1", question.CategoryQuiz, "1"),
		mergeRow("q_bad", "article_without_number", question.CategoryQuiz, "1"),
	}

	merged, summary, violations := Merge(rows, nil)
	require.Len(t, merged, 1)
	require.Len(t, violations, 1)
	assert.Equal(t, errs.CodeDataIntegrity, violations[0].Code)
	assert.Equal(t, "q_bad", violations[0].QuestionID)
	assert.Equal(t, 1, summary.Violations[errs.CodeDataIntegrity],
		"excluded rows must surface in the summary, never vanish")
}

func TestMergeSummary(t *testing.T) {
	guiding := []question.Row{
		mergeRow("q1", "art_2", question.CategoryGuiding, "1"),
		mergeRow("q2", "art_2", question.CategoryGuiding, "2"),
	}
	quiz := []question.Row{
		mergeRow("q3", "art_2", question.CategoryQuiz, "2"),
		mergeRow("q4", "art_10", question.CategoryQuiz, "1"),
	}
	quiz[1][question.ColSource] = question.SourceExtended

	_, summary, _ := Merge(guiding, quiz)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, map[string]int{question.CategoryGuiding: 2, question.CategoryQuiz: 2}, summary.ByCategory)
	assert.Equal(t, map[string]int{question.SourceOriginal: 3, question.SourceExtended: 1}, summary.BySource)

	require.Len(t, summary.Articles, 2)
	assert.Equal(t, "art_2", summary.Articles[0].ArticleID, "articles listed in ascending numeric order")
	assert.Equal(t, "art_10", summary.Articles[1].ArticleID)
	assert.Equal(t, 3, summary.Articles[0].Questions)
	assert.Equal(t, 2, summary.Articles[0].Sections)
	assert.Equal(t, map[string]int{question.CategoryGuiding: 2, question.CategoryQuiz: 1}, summary.Articles[0].ByCategory)
}

func TestMergeWorkedExample(t *testing.T) {
	q1 := mergeRow("q1", "art_1", question.CategoryQuiz, "1")
	sibling := mergeRow("q2_sibling_1", "art_1", question.CategoryQuiz, "2")
	sibling[question.ColSource] = question.SourceExtended

	merged, _, violations := Merge([]question.Row{q1}, []question.Row{sibling})
	require.Empty(t, violations)
	require.Len(t, merged, 2)
	assert.Equal(t, "1", merged[0][question.ColGlobalSequence])
	assert.Equal(t, "2", merged[1][question.ColGlobalSequence])
	assert.Equal(t, "q1", merged[0][question.ColQuestionID])
}
