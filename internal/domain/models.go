package domain

import (
	"fmt"
	"strings"
	"time"
)

// PointsPerCorrect is awarded for every correctly answered question.
const PointsPerCorrect = 10

// MaxScore and MaxElapsedSeconds bound leaderboard results. Every backend
// orders results inside these bounds identically.
const (
	MaxScore          = 100_000_000
	MaxElapsedSeconds = 9_999_999
)

// WordEntry is a prompt/answer pair from the word pool.
type WordEntry struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// Mode selects how answers are given and judged.
type Mode string

const (
	// ModeAny is used as a filter value meaning "every mode".
	ModeAny            Mode = ""
	ModeFreeText       Mode = "text"
	ModeMultipleChoice Mode = "choice"
)

// ParseMode accepts the canonical names plus a few aliases used by older clients.
// An empty string yields fallback.
func ParseMode(raw string, fallback Mode) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return fallback, nil
	case "text", "free", "freetext", "free_text", "input":
		return ModeFreeText, nil
	case "choice", "mc", "multiple", "multiplechoice", "multiple_choice":
		return ModeMultipleChoice, nil
	}
	return "", &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", raw)}
}

// State is the position of a quiz session in its lifecycle.
type State int

const (
	StateAwaitingStart State = iota
	StateQuestionActive
	StateAnswerRevealed
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateQuestionActive:
		return "question_active"
	case StateAnswerRevealed:
		return "answer_revealed"
	case StateFinished:
		return "finished"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AnswerResult is the reveal produced by a submission.
type AnswerResult struct {
	Index         int    `json:"index"`
	Submitted     string `json:"submitted"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
	Awarded       int    `json:"awarded"`
	TotalScore    int    `json:"totalScore"`
	ThinkSeconds  int    `json:"thinkSeconds"`
}

// Summary is what a finished session hands to the leaderboard.
type Summary struct {
	Score          int   `json:"score"`
	ElapsedSeconds int   `json:"elapsedSeconds"`
	Mode           Mode  `json:"mode"`
	Questions      int   `json:"questions"`
	ThinkTimes     []int `json:"thinkTimes"`
}

// Record is one stored leaderboard row.
type Record struct {
	ID             int64     `json:"-"`
	Key            string    `json:"-"`
	Player         string    `json:"name"`
	Score          int       `json:"score"`
	ElapsedSeconds int       `json:"time"`
	Mode           Mode      `json:"mode"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Precedes reports whether r ranks strictly ahead of (score, elapsed):
// higher score first, then lower elapsed time.
func (r Record) Precedes(score, elapsed int) bool {
	return Precedes(r.Score, r.ElapsedSeconds, score, elapsed)
}

// Precedes orders by score descending, then elapsed ascending.
func Precedes(score, elapsed, otherScore, otherElapsed int) bool {
	if score != otherScore {
		return score > otherScore
	}
	return elapsed < otherElapsed
}

// SubmitResult is the outcome of a leaderboard submission. All values are
// successful outcomes; failures are reported as errors.
type SubmitResult string

const (
	ResultOK        SubmitResult = "ok"
	ResultDuplicate SubmitResult = "duplicate"
	ResultNotBetter SubmitResult = "not_better"
	ResultUpdated   SubmitResult = "updated"
)

// Policy controls how the leaderboard treats repeated submissions.
type Policy string

const (
	// PolicyBest keeps one record per player (per scope) and only replaces it with a strictly better one.
	PolicyBest Policy = "best"
	// PolicyHistory appends every submission, suppressing exact duplicates.
	PolicyHistory Policy = "history"
)

// ParsePolicy defaults to PolicyBest.
func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "best", "best_per_player":
		return PolicyBest, nil
	case "history", "append":
		return PolicyHistory, nil
	}
	return "", fmt.Errorf("unknown leaderboard policy %q", raw)
}

// Rank is a 1-based leaderboard position; Ranked is false when the position
// falls outside the ranked range.
type Rank struct {
	Position int  `json:"rank"`
	Ranked   bool `json:"ranked"`
}

// MissCount is how often an answer was missed.
type MissCount struct {
	Answer string `json:"word"`
	Misses int64  `json:"misses"`
}
