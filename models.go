package mcqgen

import "time"

// Option is a single labelled answer choice
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question represents a single multiple choice question as produced by the model
type Question struct {
	Text               string   `json:"question_text"`
	Options            []Option `json:"options"`
	CorrectAnswerLabel string   `json:"correct_answer_label"`
	Hint               string   `json:"hint"`
	Rationale          string   `json:"rationale"`
}

// HasLabel reports whether label names one of the question's options
func (q Question) HasLabel(label string) bool {
	for _, opt := range q.Options {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// Option returns the option carrying label, if any
func (q Question) Option(label string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Label == label {
			return opt, true
		}
	}
	return Option{}, false
}

// Score is the aggregate result of a fully answered quiz
type Score struct {
	CorrectCount int     `json:"correct_count"`
	TotalCount   int     `json:"total_count"`
	Percentage   float64 `json:"percentage"`
}

// Progress is the running tally while a quiz is being answered
type Progress struct {
	Answered int `json:"answered"`
	Correct  int `json:"correct"`
	Total    int `json:"total"`
}

// Complete reports whether every question has an answer
func (p Progress) Complete() bool {
	return p.Total > 0 && p.Answered == p.Total
}

const (
	DefaultNumQuestions = 10
	MaxNumQuestions     = 100
)

// GenerationRequest represents a request to generate questions from a passage
type GenerationRequest struct {
	TextContent  string `json:"text_content"`
	NumQuestions int    `json:"num_questions,omitempty"`
}

// GenerationResult is a successful generation
type GenerationResult struct {
	ID        string        `json:"id"`
	Provider  string        `json:"provider"`
	Questions []Question    `json:"questions"`
	Elapsed   time.Duration `json:"elapsed"`
}
