package app

import (
	"fmt"
	"math/rand"
	"strings"

	"wordsprint/internal/domain"
)

// AllQuestions requests every entry of the pool.
const AllQuestions = 0

// ChoiceCount is the number of options shown in multiple-choice mode.
const ChoiceCount = 4

// QuestionSet is an ordered sample of the word pool. It refers to pool
// entries by index; the order is the play order.
type QuestionSet struct {
	pool  []domain.WordEntry
	order []int
}

// NewQuestionSet samples count distinct entries from pool without replacement.
// Identical prompt/answer pairs in the pool count once.
func NewQuestionSet(pool []domain.WordEntry, count int, rnd *rand.Rand) (QuestionSet, error) {
	if count < 0 {
		return QuestionSet{}, &domain.ValidationError{Field: "count", Reason: "must not be negative"}
	}
	unique := uniqueIndexes(pool)
	if len(unique) == 0 {
		return QuestionSet{}, domain.ErrEmptyPool
	}
	if count == AllQuestions {
		count = len(unique)
	}
	if count > len(unique) {
		return QuestionSet{}, fmt.Errorf("%w: requested %d, pool has %d", domain.ErrCountExceedsPool, count, len(unique))
	}

	order := make([]int, count)
	for i, p := range rnd.Perm(len(unique))[:count] {
		order[i] = unique[p]
	}
	return QuestionSet{pool: pool, order: order}, nil
}

func (q QuestionSet) Len() int { return len(q.order) }

func (q QuestionSet) At(i int) domain.WordEntry { return q.pool[q.order[i]] }

// Entries copies the set in play order.
func (q QuestionSet) Entries() []domain.WordEntry {
	out := make([]domain.WordEntry, len(q.order))
	for i := range q.order {
		out[i] = q.At(i)
	}
	return out
}

func uniqueIndexes(pool []domain.WordEntry) []int {
	seen := make(map[domain.WordEntry]struct{}, len(pool))
	out := make([]int, 0, len(pool))
	for i, w := range pool {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, i)
	}
	return out
}

func distinctAnswers(pool []domain.WordEntry) int {
	seen := make(map[string]struct{}, len(pool))
	for _, w := range pool {
		seen[fold(w.Answer)] = struct{}{}
	}
	return len(seen)
}

// buildChoices draws ChoiceCount-1 distinct distractors from pool, excluding
// the correct answer, and inserts the correct answer at a random position.
// Callers must ensure the pool holds at least ChoiceCount distinct answers.
func buildChoices(pool []domain.WordEntry, correct string, rnd *rand.Rand) []string {
	taken := map[string]struct{}{fold(correct): {}}
	distractors := make([]string, 0, ChoiceCount-1)
	for len(distractors) < ChoiceCount-1 {
		candidate := pool[rnd.Intn(len(pool))].Answer
		key := fold(candidate)
		if _, dup := taken[key]; dup {
			continue
		}
		taken[key] = struct{}{}
		distractors = append(distractors, candidate)
	}

	at := rnd.Intn(ChoiceCount)
	choices := make([]string, 0, ChoiceCount)
	choices = append(choices, distractors[:at]...)
	choices = append(choices, correct)
	choices = append(choices, distractors[at:]...)
	return choices
}

// Judge reports whether submitted matches correct under mode. Free text is
// trimmed; both modes compare case-folded strings exactly.
func Judge(submitted string, mode domain.Mode, correct string) bool {
	if mode == domain.ModeFreeText {
		submitted = strings.TrimSpace(submitted)
	}
	return fold(submitted) == fold(correct)
}

func fold(s string) string {
	return strings.ToLower(s)
}
