package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"wordsprint/internal/domain"
)

// Snapshot is a read-only view of a session for presentation layers.
type Snapshot struct {
	ID             string               `json:"id"`
	State          domain.State         `json:"state"`
	Mode           domain.Mode          `json:"mode"`
	Index          int                  `json:"index"`
	Total          int                  `json:"total"`
	Label          string               `json:"label,omitempty"`
	Prompt         string               `json:"prompt,omitempty"`
	Choices        []string             `json:"choices,omitempty"`
	Score          int                  `json:"score"`
	MaxScore       int                  `json:"maxScore"`
	ElapsedSeconds int                  `json:"elapsedSeconds"`
	DisplaySeconds int                  `json:"displaySeconds"`
	Clock          string               `json:"clock"`
	ThinkTimes     []int                `json:"thinkTimes"`
	Reveal         *domain.AnswerResult `json:"reveal,omitempty"`
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithClock sets the time source.
func WithClock(c Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithRand sets the random source used for sampling and option shuffling.
func WithRand(r *rand.Rand) SessionOption {
	return func(s *Session) { s.rnd = r }
}

// Session is one player's run through a sampled question sequence. Each
// transition runs to completion under the session lock; Snapshot and
// DisplaySeconds are pure reads.
type Session struct {
	id    string
	pool  []domain.WordEntry
	clock Clock
	rnd   *rand.Rand

	mu          sync.RWMutex
	state       domain.State
	mode        domain.Mode
	questions   QuestionSet
	current     int
	score       int
	watch       stopwatch
	thinkTimes  []int
	choices     []string
	reveal      *domain.AnswerResult
	lastActive  time.Time
	closed      bool
	done        chan struct{}
	subscribers map[chan Snapshot]struct{}
}

// NewSession creates a session in the awaiting-start state over pool.
func NewSession(id string, pool []domain.WordEntry, opts ...SessionOption) *Session {
	s := &Session{
		id:          id,
		pool:        pool,
		clock:       SystemClock,
		state:       domain.StateAwaitingStart,
		done:        make(chan struct{}),
		subscribers: make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.lastActive = s.clock.Now()
	return s
}

func (s *Session) ID() string { return s.id }

// Start samples the questions and activates the first one.
func (s *Session) Start(count int, mode domain.Mode) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateAwaitingStart {
		return Snapshot{}, domain.ErrAlreadyStarted
	}
	if mode != domain.ModeFreeText && mode != domain.ModeMultipleChoice {
		return Snapshot{}, &domain.ValidationError{Field: "mode", Reason: fmt.Sprintf("unsupported mode %q", mode)}
	}
	questions, err := NewQuestionSet(s.pool, count, s.rnd)
	if err != nil {
		return Snapshot{}, err
	}
	if mode == domain.ModeMultipleChoice && distinctAnswers(s.pool) < ChoiceCount {
		return Snapshot{}, fmt.Errorf("%w: need %d distinct answers", domain.ErrPoolTooSmall, ChoiceCount)
	}

	s.mode = mode
	s.questions = questions
	s.current = 0
	s.score = 0
	s.watch = stopwatch{}
	s.thinkTimes = make([]int, 0, questions.Len())
	s.activateLocked()
	return s.publishLocked(), nil
}

// Submit judges raw against the current question. Once the answer is
// revealed, further submissions return the existing reveal and report
// applied=false without touching score or time.
func (s *Session) Submit(raw string) (domain.AnswerResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateAwaitingStart:
		return domain.AnswerResult{}, false, domain.ErrNotStarted
	case domain.StateFinished:
		return domain.AnswerResult{}, false, domain.ErrSessionFinished
	case domain.StateAnswerRevealed:
		return *s.reveal, false, nil
	}

	now := s.clock.Now()
	thinkSeconds, _ := s.watch.stop(now)
	s.thinkTimes = append(s.thinkTimes, thinkSeconds)

	question := s.questions.At(s.current)
	correct := Judge(raw, s.mode, question.Answer)
	awarded := 0
	if correct {
		awarded = domain.PointsPerCorrect
		s.score += awarded
	}

	s.reveal = &domain.AnswerResult{
		Index:         s.current,
		Submitted:     raw,
		CorrectAnswer: question.Answer,
		Correct:       correct,
		Awarded:       awarded,
		TotalScore:    s.score,
		ThinkSeconds:  thinkSeconds,
	}
	s.state = domain.StateAnswerRevealed
	s.lastActive = now
	s.publishLocked()
	return *s.reveal, true, nil
}

// Next advances past a revealed answer, finishing the session after the last question.
func (s *Session) Next() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateAwaitingStart:
		return Snapshot{}, domain.ErrNotStarted
	case domain.StateQuestionActive:
		return Snapshot{}, domain.ErrAnswerPending
	case domain.StateFinished:
		return Snapshot{}, domain.ErrSessionFinished
	}

	s.current++
	s.reveal = nil
	s.choices = nil
	if s.current == s.questions.Len() {
		s.finishLocked()
	} else {
		s.activateLocked()
	}
	return s.publishLocked(), nil
}

// Summary is available once the session is finished.
func (s *Session) Summary() (domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != domain.StateFinished {
		return domain.Summary{}, domain.ErrNotFinished
	}
	return domain.Summary{
		Score:          s.score,
		ElapsedSeconds: s.watch.seconds,
		Mode:           s.mode,
		Questions:      s.questions.Len(),
		ThinkTimes:     append([]int(nil), s.thinkTimes...),
	}, nil
}

// RevealedAnswer returns the answer of the question whose result is showing.
func (s *Session) RevealedAnswer() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.state {
	case domain.StateAnswerRevealed:
		return s.reveal.CorrectAnswer, nil
	case domain.StateQuestionActive:
		return "", domain.ErrAnswerPending
	case domain.StateFinished:
		return "", domain.ErrSessionFinished
	}
	return "", domain.ErrNotStarted
}

// Snapshot returns the current view including the live clock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(s.clock.Now())
}

// DisplaySeconds is the live elapsed value: committed time plus the running
// question's interval. It has no side effects.
func (s *Session) DisplaySeconds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watch.read(s.clock.Now())
}

// LastActive is the time of the last transition.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Done is closed when the session is discarded.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close discards the session: the running interval is dropped and every
// subscriber channel is closed. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.watch.running = false
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	close(s.done)
}

// Subscribe returns a channel receiving a snapshot after every transition,
// starting with the current one. The caller must invoke cancel.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked(s.clock.Now())
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) activateLocked() {
	now := s.clock.Now()
	s.state = domain.StateQuestionActive
	if s.mode == domain.ModeMultipleChoice {
		s.choices = buildChoices(s.pool, s.questions.At(s.current).Answer, s.rnd)
	}
	s.watch.start(now)
	s.lastActive = now
}

func (s *Session) finishLocked() {
	now := s.clock.Now()
	s.watch.stop(now)
	s.state = domain.StateFinished
	s.lastActive = now
}

func (s *Session) publishLocked() Snapshot {
	snap := s.snapshotLocked(s.clock.Now())
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the oldest pending snapshot so a slow reader never blocks a transition
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked(now time.Time) Snapshot {
	total := s.questions.Len()
	display := s.watch.read(now)
	snap := Snapshot{
		ID:             s.id,
		State:          s.state,
		Mode:           s.mode,
		Index:          s.current,
		Total:          total,
		Score:          s.score,
		MaxScore:       domain.PointsPerCorrect * total,
		ElapsedSeconds: s.watch.seconds,
		DisplaySeconds: display,
		Clock:          FormatClock(display),
		ThinkTimes:     append([]int(nil), s.thinkTimes...),
	}
	if s.state == domain.StateQuestionActive || s.state == domain.StateAnswerRevealed {
		snap.Label = fmt.Sprintf("(%d/%d)", s.current+1, total)
		snap.Prompt = s.questions.At(s.current).Prompt
		snap.Choices = append([]string(nil), s.choices...)
	}
	if s.reveal != nil {
		r := *s.reveal
		snap.Reveal = &r
	}
	return snap
}
