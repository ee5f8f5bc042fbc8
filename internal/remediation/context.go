package remediation

import (
	"github.com/spolepaka/readventure-sub001/internal/question"
)

const peerPreviewLimit = 100

// PeerPreview is a display-safe slice of a sibling question, enough for a
// regeneration step to avoid producing a duplicate.
type PeerPreview struct {
	QuestionID string `json:"question_id"`
	Prompt     string `json:"prompt_text"`
}

// ContextBundle aggregates everything a repair step needs: the question's own
// fields, its correct/distractor decomposition, and peer questions from the
// same article.
type ContextBundle struct {
	Question          question.Record   `json:"question"`
	Options           map[string]string `json:"options"`
	CorrectKey        string            `json:"correct_answer"`
	AnswerKeyResolved bool              `json:"answer_key_resolved"`
	Distractors       map[string]string `json:"distractors"`
	Peers             []PeerPreview     `json:"peers,omitempty"`
}

// AssembleContext builds the repair bundle for a question. An unknown id
// propagates the store's not-found error. A correct-answer marker outside the
// alias table passes through unchanged with AnswerKeyResolved=false; the
// caller surfaces that as an advisory, not a failure.
func AssembleContext(store *question.Store, questionID string, includePeers bool) (*ContextBundle, error) {
	rec, err := store.Get(questionID)
	if err != nil {
		return nil, err
	}

	correctKey, resolved := question.ResolveAnswerKey(rec.CorrectAnswer)
	distractors := make(map[string]string, len(rec.Options))
	for key, text := range rec.Options {
		if resolved && key == correctKey {
			continue
		}
		distractors[key] = text
	}

	bundle := &ContextBundle{
		Question:          rec,
		Options:           rec.Options,
		CorrectKey:        correctKey,
		AnswerKeyResolved: resolved,
		Distractors:       distractors,
	}

	if includePeers {
		peers := store.Filter(question.FilterQuery{
			ArticleID: rec.ArticleID,
			ExcludeID: rec.QuestionID,
		})
		bundle.Peers = make([]PeerPreview, 0, len(peers))
		for _, peer := range peers {
			bundle.Peers = append(bundle.Peers, PeerPreview{
				QuestionID: peer.QuestionID,
				Prompt:     truncatePrompt(peer.Prompt, peerPreviewLimit),
			})
		}
	}
	return bundle, nil
}

func truncatePrompt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
