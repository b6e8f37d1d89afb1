package mcqgen

import (
	"errors"
	"testing"
)

func abcd(correct string) Question {
	return Question{
		Text: "ചോദ്യം?",
		Options: []Option{
			{Label: "A", Text: "ഒന്ന്"},
			{Label: "B", Text: "രണ്ട്"},
			{Label: "C", Text: "മൂന്ന്"},
			{Label: "D", Text: "നാല്"},
		},
		CorrectAnswerLabel: correct,
		Hint:               "സൂചന",
		Rationale:          "വിശദീകരണം",
	}
}

func loaded(t *testing.T, correct ...string) *Session {
	t.Helper()
	qs := make([]Question, len(correct))
	for i, c := range correct {
		qs[i] = abcd(c)
	}
	s := NewSession()
	if err := s.LoadQuestions(qs); err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	return s
}

func TestNewSessionIsEmpty(t *testing.T) {
	s := NewSession()
	if s.State() != StateEmpty {
		t.Fatalf("expected empty state, got %s", s.State())
	}
	if _, err := s.Score(); !errors.Is(err, ErrNoScore) {
		t.Fatalf("expected ErrNoScore, got %v", err)
	}
	if s.IsAnswered(1) {
		t.Fatalf("expected no answers on an empty session")
	}
}

func TestEndToEndScore(t *testing.T) {
	s := loaded(t, "B", "A")
	if s.State() != StateActive {
		t.Fatalf("expected active state, got %s", s.State())
	}

	if err := s.SelectAnswer(1, "B"); err != nil {
		t.Fatalf("select q1: %v", err)
	}
	if err := s.SelectAnswer(2, "C"); err != nil {
		t.Fatalf("select q2: %v", err)
	}

	got, err := s.Score()
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := Score{CorrectCount: 1, TotalCount: 2, Percentage: 50.0}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestScoreRequiresEveryAnswer(t *testing.T) {
	s := loaded(t, "A", "B", "C")
	s.SelectAnswer(1, "A")
	s.SelectAnswer(2, "B")

	if _, err := s.Score(); !errors.Is(err, ErrQuizIncomplete) {
		t.Fatalf("expected ErrQuizIncomplete, got %v", err)
	}

	s.SelectAnswer(3, "C")
	if _, err := s.Score(); err != nil {
		t.Fatalf("expected a score once complete, got %v", err)
	}
}

func TestScorePercentageRounding(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		correct int
		want    float64
	}{
		{"seven of ten", 10, 7, 70.0},
		{"one of three", 3, 1, 33.33},
		{"two of three", 3, 2, 66.67},
		{"none", 4, 0, 0},
		{"all", 4, 4, 100},
		{"one of thirty-two", 32, 1, 3.12},
		{"five of thirty-two", 32, 5, 15.62},
		{"three of thirty-two", 32, 3, 9.38},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := make([]string, tt.total)
			for i := range labels {
				labels[i] = "A"
			}
			s := loaded(t, labels...)
			for i := 1; i <= tt.total; i++ {
				label := "B"
				if i <= tt.correct {
					label = "A"
				}
				if err := s.SelectAnswer(i, label); err != nil {
					t.Fatalf("select %d: %v", i, err)
				}
			}
			got, err := s.Score()
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if got.Percentage != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got.Percentage)
			}
			if got.CorrectCount != tt.correct || got.TotalCount != tt.total {
				t.Fatalf("unexpected counts: %+v", got)
			}
		})
	}
}

func TestSelectAnswerIsIdempotent(t *testing.T) {
	s := loaded(t, "B")
	s.SelectAnswer(1, "B")
	first, _ := s.Score()

	if err := s.SelectAnswer(1, "B"); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	second, _ := s.Score()
	if first != second {
		t.Fatalf("expected unchanged score, got %+v then %+v", first, second)
	}
	ok, err := s.IsCorrect(1)
	if err != nil || !ok {
		t.Fatalf("expected correct, got %v %v", ok, err)
	}
}

func TestSelectAnswerOverwrites(t *testing.T) {
	s := loaded(t, "B")
	s.SelectAnswer(1, "A")
	if sc, _ := s.Score(); sc.CorrectCount != 0 {
		t.Fatalf("expected 0 correct, got %d", sc.CorrectCount)
	}

	s.SelectAnswer(1, "B")
	if sc, _ := s.Score(); sc.CorrectCount != 1 {
		t.Fatalf("expected overwritten answer to count, got %d", sc.CorrectCount)
	}
	if label, _ := s.Selection(1); label != "B" {
		t.Fatalf("expected selection B, got %q", label)
	}
}

func TestSelectAnswerRejectsUnknownLabel(t *testing.T) {
	s := loaded(t, "B")
	s.SelectAnswer(1, "C")

	err := s.SelectAnswer(1, "E")
	if !errors.Is(err, ErrInvalidOptionLabel) {
		t.Fatalf("expected ErrInvalidOptionLabel, got %v", err)
	}
	if label, _ := s.Selection(1); label != "C" {
		t.Fatalf("expected prior selection to survive, got %q", label)
	}

	// A formatted display string is not a label.
	if err := s.SelectAnswer(1, "B. രണ്ട്"); !errors.Is(err, ErrInvalidOptionLabel) {
		t.Fatalf("expected ErrInvalidOptionLabel for display text, got %v", err)
	}
}

func TestSelectAnswerRejectsUnknownQuestion(t *testing.T) {
	s := loaded(t, "A")
	for _, idx := range []int{0, 2, -1} {
		if err := s.SelectAnswer(idx, "A"); !errors.Is(err, ErrUnknownQuestion) {
			t.Fatalf("index %d: expected ErrUnknownQuestion, got %v", idx, err)
		}
	}
}

func TestIsCorrectBeforeAnswer(t *testing.T) {
	s := loaded(t, "A")
	if s.IsAnswered(1) {
		t.Fatalf("expected unanswered")
	}
	if _, err := s.IsCorrect(1); !errors.Is(err, ErrNotYetAnswered) {
		t.Fatalf("expected ErrNotYetAnswered, got %v", err)
	}
}

func TestLoadQuestionsRejectsMissingCorrectLabel(t *testing.T) {
	s := loaded(t, "A", "B")
	s.SelectAnswer(1, "A")

	bad := abcd("Z")
	err := s.LoadQuestions([]Question{abcd("C"), bad})
	if !errors.Is(err, ErrMalformedQuestionSet) {
		t.Fatalf("expected ErrMalformedQuestionSet, got %v", err)
	}

	if s.Len() != 2 {
		t.Fatalf("expected prior set to persist, got %d questions", s.Len())
	}
	if !s.IsAnswered(1) {
		t.Fatalf("expected prior selection to persist")
	}
	if q, _ := s.Question(2); q.CorrectAnswerLabel != "B" {
		t.Fatalf("expected prior question 2, got correct label %q", q.CorrectAnswerLabel)
	}
}

func TestLoadQuestionsRejectsEmptySet(t *testing.T) {
	s := NewSession()
	if err := s.LoadQuestions(nil); !errors.Is(err, ErrMalformedQuestionSet) {
		t.Fatalf("expected ErrMalformedQuestionSet, got %v", err)
	}
	if s.State() != StateEmpty {
		t.Fatalf("expected session to stay empty")
	}
}

func TestLoadQuestionsReplacesWholesale(t *testing.T) {
	s := loaded(t, "A", "B", "C")
	s.SelectAnswer(1, "A")
	s.SelectAnswer(2, "B")

	if err := s.LoadQuestions([]Question{abcd("D")}); err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 question, got %d", s.Len())
	}
	if s.IsAnswered(1) || s.IsAnswered(2) {
		t.Fatalf("expected selections from the previous set to be gone")
	}
}

func TestLoadQuestionsCopiesInput(t *testing.T) {
	qs := []Question{abcd("A")}
	s := NewSession()
	if err := s.LoadQuestions(qs); err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	qs[0].Options[0].Label = "X"
	qs[0].CorrectAnswerLabel = "X"

	if err := s.SelectAnswer(1, "A"); err != nil {
		t.Fatalf("expected session to keep its own copy: %v", err)
	}
}

func TestQuestionGettersReturnCopies(t *testing.T) {
	s := loaded(t, "A", "B")

	q, err := s.Question(1)
	if err != nil {
		t.Fatalf("Question: %v", err)
	}
	q.Options[0].Label = "X"
	s.Questions()[1].Options[1].Label = "Y"

	if err := s.SelectAnswer(1, "A"); err != nil {
		t.Fatalf("expected label A to survive a changed copy: %v", err)
	}
	if err := s.SelectAnswer(2, "B"); err != nil {
		t.Fatalf("expected label B to survive a changed copy: %v", err)
	}
	if err := s.SelectAnswer(1, "X"); !errors.Is(err, ErrInvalidOptionLabel) {
		t.Fatalf("expected ErrInvalidOptionLabel, got %v", err)
	}
}

func TestResetReturnsToEmpty(t *testing.T) {
	s := loaded(t, "A", "B")
	s.SelectAnswer(1, "A")
	s.SelectAnswer(2, "A")

	s.Reset()

	if s.State() != StateEmpty {
		t.Fatalf("expected empty state after reset")
	}
	for _, idx := range []int{1, 2} {
		if s.IsAnswered(idx) {
			t.Fatalf("expected question %d unanswered after reset", idx)
		}
	}

	if err := s.LoadQuestions([]Question{abcd("A"), abcd("B")}); err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	if p := s.Progress(); p.Answered != 0 {
		t.Fatalf("expected clean selections after reload, got %+v", p)
	}
}

func TestProgress(t *testing.T) {
	s := loaded(t, "A", "B", "C")
	s.SelectAnswer(1, "A")
	s.SelectAnswer(3, "A")

	p := s.Progress()
	want := Progress{Answered: 2, Correct: 1, Total: 3}
	if p != want {
		t.Fatalf("expected %+v, got %+v", want, p)
	}
	if p.Complete() {
		t.Fatalf("expected incomplete progress")
	}
}
