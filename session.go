package mcqgen

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrMalformedQuestionSet is returned when a question set fails structural validation
	ErrMalformedQuestionSet = errors.New("malformed question set")
	// ErrInvalidOptionLabel is returned when a selection names an option the question does not have
	ErrInvalidOptionLabel = errors.New("invalid option label")
	// ErrNotYetAnswered is returned when correctness is asked for an unanswered question
	ErrNotYetAnswered = errors.New("question not yet answered")
	// ErrUnknownQuestion is returned for an index outside the loaded question set
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrNoScore is returned when there is nothing to score
	ErrNoScore = errors.New("no score available")
	// ErrQuizIncomplete is returned when a score is asked for before every question is answered
	ErrQuizIncomplete = errors.New("quiz not fully answered")
)

// SessionState is the state of a quiz session
type SessionState string

const (
	StateEmpty  SessionState = "empty"
	StateActive SessionState = "active"
)

// Session owns one quiz set and the user's selections for it.
// Question indexes are 1-based and stable until the next Reset or LoadQuestions.
// A Session is not safe for concurrent use; see SessionStore.
type Session struct {
	questions  []Question
	selections map[int]string
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{selections: make(map[int]string)}
}

// Reset drops the question set and every selection
func (s *Session) Reset() {
	s.questions = nil
	s.selections = make(map[int]string)
}

// LoadQuestions replaces the question set wholesale and starts with no selections.
// On validation failure the session is left untouched.
func (s *Session) LoadQuestions(questions []Question) error {
	if err := CheckQuestions(questions); err != nil {
		return err
	}

	loaded := make([]Question, len(questions))
	for i, q := range questions {
		loaded[i] = copyQuestion(q)
	}

	s.questions = loaded
	s.selections = make(map[int]string)
	return nil
}

// State reports whether a question set is loaded
func (s *Session) State() SessionState {
	if len(s.questions) == 0 {
		return StateEmpty
	}
	return StateActive
}

// Len returns the number of loaded questions
func (s *Session) Len() int {
	return len(s.questions)
}

// Questions returns a copy of the loaded question set
func (s *Session) Questions() []Question {
	out := make([]Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = copyQuestion(q)
	}
	return out
}

// Question returns the question at the 1-based index
func (s *Session) Question(index int) (Question, error) {
	if index < 1 || index > len(s.questions) {
		return Question{}, fmt.Errorf("%w: %d", ErrUnknownQuestion, index)
	}
	return copyQuestion(s.questions[index-1]), nil
}

func copyQuestion(q Question) Question {
	q.Options = append([]Option(nil), q.Options...)
	return q
}

// SelectAnswer records or overwrites the chosen label for a question
func (s *Session) SelectAnswer(index int, label string) error {
	q, err := s.Question(index)
	if err != nil {
		return err
	}
	if !q.HasLabel(label) {
		return fmt.Errorf("%w: %q for question %d", ErrInvalidOptionLabel, label, index)
	}

	s.selections[index] = label
	return nil
}

// Selection returns the label chosen for a question
func (s *Session) Selection(index int) (string, bool) {
	label, ok := s.selections[index]
	return label, ok
}

// IsAnswered reports whether a selection exists for the question
func (s *Session) IsAnswered(index int) bool {
	_, ok := s.selections[index]
	return ok
}

// IsCorrect reports whether the stored selection matches the correct label
func (s *Session) IsCorrect(index int) (bool, error) {
	q, err := s.Question(index)
	if err != nil {
		return false, err
	}
	label, ok := s.selections[index]
	if !ok {
		return false, fmt.Errorf("%w: question %d", ErrNotYetAnswered, index)
	}
	return label == q.CorrectAnswerLabel, nil
}

// Progress returns the running tally of answered and correct questions
func (s *Session) Progress() Progress {
	p := Progress{Total: len(s.questions)}
	for index, label := range s.selections {
		p.Answered++
		if label == s.questions[index-1].CorrectAnswerLabel {
			p.Correct++
		}
	}
	return p
}

// Score returns the final result. It is only defined once every question is answered.
func (s *Session) Score() (Score, error) {
	p := s.Progress()
	if p.Total == 0 {
		return Score{}, ErrNoScore
	}
	if p.Answered != p.Total {
		return Score{}, fmt.Errorf("%w: %d of %d answered", ErrQuizIncomplete, p.Answered, p.Total)
	}

	return Score{
		CorrectCount: p.Correct,
		TotalCount:   p.Total,
		Percentage:   roundTo(float64(p.Correct)/float64(p.Total)*100, 2),
	}, nil
}

// roundTo rounds v to places decimals, with exact halves going to the even digit
func roundTo(v float64, places int) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
