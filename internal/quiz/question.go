package quiz

import (
	"math/rand"

	"timed-quiz-service/internal/domain"
)

// BuildQuestion turns an authoring-time record into a Question with fixed
// option records. Exactly the option at CorrectIndex is marked correct; an
// out-of-range CorrectIndex leaves no option marked (a data-quality issue in
// the source document, not validated further here).
func BuildQuestion(src domain.SourceQuestion) domain.Question {
	options := make([]domain.Option, len(src.Options))
	for i, text := range src.Options {
		options[i] = domain.Option{
			Text:          text,
			OriginalIndex: i,
			Correct:       i == src.CorrectIndex,
		}
	}
	return domain.Question{ID: src.ID, Text: src.Text, Options: options}
}

// BuildQuestions prepares the question set for a run: question order is
// shuffled unless the document disables it, and every question's options are
// shuffled unconditionally.
func BuildQuestions(doc domain.QuizDocument, rnd *rand.Rand) []domain.Question {
	questions := make([]domain.Question, 0, len(doc.Questions))
	for _, src := range doc.Questions {
		questions = append(questions, BuildQuestion(src))
	}
	if doc.ShuffleQuestions == nil || *doc.ShuffleQuestions {
		Shuffle(rnd, questions)
	}
	for i := range questions {
		Shuffle(rnd, questions[i].Options)
	}
	return questions
}
