package quiz

import "timed-quiz-service/internal/domain"

// Percent is the round-half-up integer percentage of correct over total.
func Percent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// Summarize computes the scoring result from session state. Correctness per
// question is derived from the recorded answer, never from analytics: an
// answer is correct when it is set and the option at that presentation index
// is marked correct. Passed compares the raw fraction against the threshold,
// not the rounded percent.
func Summarize(questions []domain.Question, answers []int, analytics []*domain.Analytics, threshold float64) domain.Summary {
	correct := 0
	for i := range questions {
		if answeredCorrectly(questions[i], answers[i]) {
			correct++
		}
	}
	total := len(questions)
	passed := false
	if total > 0 {
		passed = float64(correct)/float64(total) >= threshold
	}
	return domain.Summary{
		CorrectCount: correct,
		Total:        total,
		Percent:      Percent(correct, total),
		Passed:       passed,
		Analytics:    analytics,
	}
}

// Review builds the read-only projection of a run: for each question, each
// option in its current presentation order flagged with whether it is the
// correct one and whether the user selected it. It never mutates session
// state and may be called repeatedly.
func Review(questions []domain.Question, answers []int) []domain.ReviewQuestion {
	rows := make([]domain.ReviewQuestion, 0, len(questions))
	for i, q := range questions {
		options := make([]domain.ReviewOption, len(q.Options))
		for j, opt := range q.Options {
			options[j] = domain.ReviewOption{
				Text:     opt.Text,
				Correct:  opt.Correct,
				Selected: answers[i] == j,
			}
		}
		rows = append(rows, domain.ReviewQuestion{QuestionID: q.ID, Text: q.Text, Options: options})
	}
	return rows
}

func answeredCorrectly(q domain.Question, answer int) bool {
	if answer < 0 || answer >= len(q.Options) {
		return false
	}
	return q.Options[answer].Correct
}
