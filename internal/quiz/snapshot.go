package quiz

import "timed-quiz-service/internal/domain"

// Snapshot serializes the resumable projection of the session: position,
// answers, analytics, remaining time, and per-question option order expressed
// as OriginalIndex sequences so restoration is order-stable without
// re-shuffling.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.questions))
	order := make([][]int, len(s.questions))
	for i, q := range s.questions {
		ids[i] = q.ID
		order[i] = make([]int, len(q.Options))
		for j, opt := range q.Options {
			order[i][j] = opt.OriginalIndex
		}
	}
	answers := make([]int, len(s.answers))
	copy(answers, s.answers)
	analytics := make([]*domain.Analytics, len(s.analytics))
	copy(analytics, s.analytics)

	return domain.Snapshot{
		SavedAt:          s.now(),
		CurrentIndex:     s.current,
		QuestionIDs:      ids,
		Answers:          answers,
		Analytics:        analytics,
		RemainingSeconds: s.remaining,
		QuestionsOrder:   order,
	}
}

// Restore applies a previously persisted snapshot on top of a freshly
// prepared session. The stored question sequence must be a permutation of the
// live question set; a count or membership mismatch invalidates the whole
// snapshot and leaves the fresh state untouched. Any per-question option
// ordering that is not a permutation of that question's OriginalIndex set is
// discarded for that question only; its just-shuffled order stands. Position
// is clamped, answers and analytics are sized to exactly the live question
// count, and answer values outside a question's option range are dropped.
// Returns whether the snapshot was applied.
func (s *Session) Restore(snap *domain.Snapshot) bool {
	if snap == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.questions)
	if len(snap.QuestionIDs) != n || len(snap.QuestionsOrder) != n {
		return false
	}
	byID := make(map[string]domain.Question, n)
	for _, q := range s.questions {
		byID[q.ID] = q
	}
	sequenced := make([]domain.Question, 0, n)
	for _, id := range snap.QuestionIDs {
		q, ok := byID[id]
		if !ok {
			return false
		}
		delete(byID, id)
		sequenced = append(sequenced, q)
	}
	s.questions = sequenced

	for i := range s.questions {
		if reordered, ok := applyOrder(s.questions[i].Options, snap.QuestionsOrder[i]); ok {
			s.questions[i].Options = reordered
		}
	}

	s.current = clamp(snap.CurrentIndex, n)

	answers := make([]int, n)
	analytics := make([]*domain.Analytics, n)
	for i := range answers {
		answers[i] = unanswered
	}
	for i := 0; i < n && i < len(snap.Answers); i++ {
		if snap.Answers[i] >= 0 && snap.Answers[i] < len(s.questions[i].Options) {
			answers[i] = snap.Answers[i]
		}
	}
	for i := 0; i < n && i < len(snap.Analytics); i++ {
		analytics[i] = snap.Analytics[i]
	}
	// A recorded answer without its analytics slot breaks the session
	// invariant; drop such answers rather than invent timings.
	for i := range answers {
		if answers[i] != unanswered && analytics[i] == nil {
			answers[i] = unanswered
		}
	}
	s.answers = answers
	s.analytics = analytics

	if !s.noLimit && snap.RemainingSeconds >= 0 {
		s.remaining = snap.RemainingSeconds
	}
	s.shownAt = s.now()
	return true
}

// applyOrder rebuilds the option slice following the stored OriginalIndex
// sequence. It refuses orders that are not an exact permutation of 0..k-1.
func applyOrder(options []domain.Option, order []int) ([]domain.Option, bool) {
	k := len(options)
	if len(order) != k {
		return nil, false
	}
	byOriginal := make(map[int]domain.Option, k)
	for _, opt := range options {
		byOriginal[opt.OriginalIndex] = opt
	}
	seen := make(map[int]bool, k)
	reordered := make([]domain.Option, 0, k)
	for _, original := range order {
		opt, ok := byOriginal[original]
		if !ok || seen[original] {
			return nil, false
		}
		seen[original] = true
		reordered = append(reordered, opt)
	}
	return reordered, true
}

func clamp(index, n int) int {
	if n == 0 || index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}
