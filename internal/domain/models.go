package domain

import "time"

// Option is one possible answer for a question. OriginalIndex is the option's
// position in the authoring-time list and is the stable identity used across
// shuffles and reloads; the slice order a Question holds its options in is the
// presentation order and carries no identity.
type Option struct {
	Text          string `json:"text"`
	OriginalIndex int    `json:"originalIndex"`
	Correct       bool   `json:"correct"`
}

// Question is an MCQ question. Options is kept in presentation order and is
// re-shuffled on restart; the option records themselves never change.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// SourceQuestion is the authoring-time shape of a question inside a quiz
// document. CorrectIndex marks the correct option; an out-of-range value
// leaves no option marked correct.
type SourceQuestion struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// QuizDocument is the parsed quiz source. ShuffleQuestions defaults to true
// when absent; TimeLimitSec <= 0 means no countdown; PassThreshold outside
// (0,1] falls back to the default.
type QuizDocument struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	ShuffleQuestions *bool            `json:"shuffleQuestions,omitempty"`
	TimeLimitSec     int              `json:"timeLimitSec"`
	PassThreshold    float64          `json:"passThreshold"`
	Questions        []SourceQuestion `json:"questions"`
}

// Analytics records correctness and time spent for one question.
type Analytics struct {
	QuestionID   string `json:"questionId"`
	TimeSpentSec int    `json:"timeSpentSec"`
	Correct      bool   `json:"correct"`
}

// Snapshot is the persisted projection of a session, enough to resume after a
// reload. QuestionIDs records the randomized question sequence so answers
// reattach to the right questions; QuestionsOrder holds, per question in that
// sequence, the OriginalIndex values in the current presentation order.
type Snapshot struct {
	SavedAt          time.Time    `json:"savedAt"`
	CurrentIndex     int          `json:"currentIndex"`
	QuestionIDs      []string     `json:"questionIds"`
	Answers          []int        `json:"answers"`
	Analytics        []*Analytics `json:"analytics"`
	RemainingSeconds int          `json:"remainingSeconds"`
	QuestionsOrder   [][]int      `json:"questionsOrder"`
}

// Summary is the frozen scoring result of a finished session.
type Summary struct {
	CorrectCount int          `json:"correctCount"`
	Total        int          `json:"total"`
	Percent      int          `json:"percent"`
	Passed       bool         `json:"passed"`
	Analytics    []*Analytics `json:"analytics"`
}

// ReviewOption is one row of the read-only review projection: an option in
// presentation order, flagged with whether it is correct and/or was selected.
type ReviewOption struct {
	Text     string `json:"text"`
	Correct  bool   `json:"correct"`
	Selected bool   `json:"selected"`
}

// ReviewQuestion groups the review rows for one question.
type ReviewQuestion struct {
	QuestionID string         `json:"questionId"`
	Text       string         `json:"text"`
	Options    []ReviewOption `json:"options"`
}

// View is the render-ready state pushed to the presentation layer after every
// mutation, including timer ticks.
type View struct {
	Title            string   `json:"title"`
	Position         int      `json:"position"`
	Total            int      `json:"total"`
	QuestionText     string   `json:"questionText"`
	Options          []string `json:"options"`
	Selected         *int     `json:"selected,omitempty"`
	RemainingSeconds int      `json:"remainingSeconds"`
	NoLimit          bool     `json:"noLimit"`
	Finished         bool     `json:"finished"`
}
