package quiz

import (
	"math/rand"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
)

// DefaultPassThreshold is used when the document carries no usable threshold.
const DefaultPassThreshold = 0.7

const unanswered = -1

// Session is the authoritative mutable state of one quiz run. All methods are
// safe for the single-writer model this service uses (user events plus the
// countdown tick): each operation runs to completion under the session lock,
// so state is never observed half-updated.
type Session struct {
	mu  sync.Mutex
	doc domain.QuizDocument
	now func() time.Time
	rnd *rand.Rand

	questions []domain.Question
	answers   []int
	analytics []*domain.Analytics
	current   int
	remaining int
	noLimit   bool
	threshold float64
	shownAt   time.Time
	summary   *domain.Summary
}

// NewSession prepares a fresh run from a parsed document: questions built and
// randomized, answers and analytics all unset, timer reset to the configured
// limit. TimeLimitSec absent or non-positive is an explicit no-limit mode;
// the countdown must not be started for such a session.
func NewSession(doc domain.QuizDocument) *Session {
	return NewSessionWithClock(doc, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSessionWithClock allows deterministic timestamps and ordering in tests.
func NewSessionWithClock(doc domain.QuizDocument, now func() time.Time, rnd *rand.Rand) *Session {
	s := &Session{doc: doc, now: now, rnd: rnd}
	s.prepare()
	return s
}

// prepare (re)initializes run state. Caller must hold the lock or own the
// session exclusively.
func (s *Session) prepare() {
	s.questions = BuildQuestions(s.doc, s.rnd)
	n := len(s.questions)
	s.answers = make([]int, n)
	for i := range s.answers {
		s.answers[i] = unanswered
	}
	s.analytics = make([]*domain.Analytics, n)
	s.current = 0
	s.noLimit = s.doc.TimeLimitSec <= 0
	s.remaining = s.doc.TimeLimitSec
	if s.noLimit {
		s.remaining = 0
	}
	s.threshold = s.doc.PassThreshold
	if s.threshold <= 0 || s.threshold > 1 {
		s.threshold = DefaultPassThreshold
	}
	s.summary = nil
	s.shownAt = s.now()
}

// NoLimit reports whether the run has no countdown configured.
func (s *Session) NoLimit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noLimit
}

// Finished reports whether scoring has frozen.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary != nil
}

// Answer records the chosen presentation index for the current question,
// together with its analytics slot: seconds elapsed since the question was
// most recently displayed and whether the chosen option is correct.
// Re-answering overwrites both slots; last answer wins.
func (s *Session) Answer(presentationIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answerLocked(presentationIndex)
}

func (s *Session) answerLocked(presentationIndex int) error {
	if s.summary != nil {
		return domain.ErrSessionFinished
	}
	if len(s.questions) == 0 {
		return domain.ErrNoQuestions
	}
	q := s.questions[s.current]
	if presentationIndex < 0 || presentationIndex >= len(q.Options) {
		return domain.ErrOptionOutOfRange
	}
	s.answers[s.current] = presentationIndex
	s.analytics[s.current] = &domain.Analytics{
		QuestionID:   q.ID,
		TimeSpentSec: int(s.now().Sub(s.shownAt) / time.Second),
		Correct:      q.Options[presentationIndex].Correct,
	}
	return nil
}

// Next commits the pending selection, if any, then advances the current
// position by one, clamped at the last question.
func (s *Session) Next(pending *int) {
	s.move(1, pending)
}

// Prev commits the pending selection, if any, then moves back by one, clamped
// at the first question.
func (s *Session) Prev(pending *int) {
	s.move(-1, pending)
}

func (s *Session) move(delta int, pending *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary != nil {
		return
	}
	if pending != nil {
		_ = s.answerLocked(*pending)
	}
	next := s.current + delta
	if next < 0 || next >= len(s.questions) {
		return
	}
	s.current = next
	s.shownAt = s.now()
}

// Finish commits any pending selection, fills the analytics slot of every
// unanswered question (zero time spent, correctness derived from the unset
// answer), freezes the scoring summary, and returns it. The second return is
// true only on the call that performed the freeze; later calls return the
// same frozen summary, so scoring happens exactly once.
func (s *Session) Finish(pending *int) (domain.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary != nil {
		return *s.summary, false
	}
	if pending != nil {
		_ = s.answerLocked(*pending)
	}
	for i, q := range s.questions {
		if s.analytics[i] != nil {
			continue
		}
		s.analytics[i] = &domain.Analytics{
			QuestionID:   q.ID,
			TimeSpentSec: 0,
			Correct:      answeredCorrectly(q, s.answers[i]),
		}
	}
	summary := Summarize(s.questions, s.answers, s.analytics, s.threshold)
	s.summary = &summary
	return summary, true
}

// Restart re-runs preparation from the document already in hand: fresh
// randomization, empty answers and analytics, timer reset. The source is not
// re-fetched.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepare()
}

// Review returns the read-only review projection for the current state.
func (s *Session) Review() []domain.ReviewQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Review(s.questions, s.answers)
}

// Tick handles one countdown second. When remaining time has already reached
// zero it reports expired instead of going negative; the caller then invokes
// Finish and stops the countdown.
func (s *Session) Tick() (remaining int, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary != nil || s.noLimit {
		return s.remaining, false
	}
	if s.remaining <= 0 {
		return 0, true
	}
	s.remaining--
	return s.remaining, false
}

// View projects the render-ready state for the presentation layer.
func (s *Session) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := domain.View{
		Title:            s.doc.Title,
		Total:            len(s.questions),
		RemainingSeconds: s.remaining,
		NoLimit:          s.noLimit,
		Finished:         s.summary != nil,
	}
	if len(s.questions) == 0 {
		return v
	}
	q := s.questions[s.current]
	v.Position = s.current + 1
	v.QuestionText = q.Text
	v.Options = make([]string, len(q.Options))
	for i, opt := range q.Options {
		v.Options[i] = opt.Text
	}
	if s.answers[s.current] != unanswered {
		selected := s.answers[s.current]
		v.Selected = &selected
	}
	return v
}
