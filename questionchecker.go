package mcqgen

import (
	"fmt"
	"strings"
)

// ValidationError lists every structural problem found in a question set
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedQuestionSet, strings.Join(e.Issues, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrMalformedQuestionSet
}

// CheckQuestions validates a whole question set. The returned error, if any,
// is a *ValidationError wrapping ErrMalformedQuestionSet.
func CheckQuestions(questions []Question) error {
	if len(questions) == 0 {
		return &ValidationError{Issues: []string{"no questions"}}
	}

	var issues []string
	for i, q := range questions {
		issues = append(issues, CheckQuestion(i+1, q)...)
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// CheckQuestion returns the problems with a single question, numbered by its 1-based index.
// Four options are expected but not required.
func CheckQuestion(index int, q Question) []string {
	var issues []string

	if strings.TrimSpace(q.Text) == "" {
		issues = append(issues, fmt.Sprintf("question %d: empty question text", index))
	}
	if len(q.Options) == 0 {
		issues = append(issues, fmt.Sprintf("question %d: no options", index))
	}

	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt.Label == "" {
			issues = append(issues, fmt.Sprintf("question %d: option with empty label", index))
			continue
		}
		if seen[opt.Label] {
			issues = append(issues, fmt.Sprintf("question %d: duplicate option label %q", index, opt.Label))
		}
		seen[opt.Label] = true
	}

	if q.CorrectAnswerLabel == "" {
		issues = append(issues, fmt.Sprintf("question %d: missing correct_answer_label", index))
	} else if !seen[q.CorrectAnswerLabel] {
		issues = append(issues, fmt.Sprintf("question %d: correct_answer_label %q is not among the options", index, q.CorrectAnswerLabel))
	}

	return issues
}
