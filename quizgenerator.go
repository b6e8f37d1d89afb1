package mcqgen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerationError is a failed generation, classified by HTTP status:
// 400 for bad input, 500 for model or parse failures.
type GenerationError struct {
	Status  int
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// QuizGenerator validates requests, calls the model and validates what comes back
type QuizGenerator struct {
	maker         *QuestionMaker
	provider      string
	journal       *DB
	transcriptDir string
	timeout       time.Duration
}

// NewQuizGenerator creates a new quiz generator on top of model
func NewQuizGenerator(model Model) *QuizGenerator {
	return &QuizGenerator{
		maker:    NewQuestionMaker(model),
		provider: model.Name(),
	}
}

// SetJournal makes the generator record every run in db
func (qg *QuizGenerator) SetJournal(db *DB) {
	qg.journal = db
}

// SetTranscriptDir makes the generator write an LLMLogger transcript per run into dir
func (qg *QuizGenerator) SetTranscriptDir(dir string) {
	qg.transcriptDir = dir
}

// SetTimeout bounds each model call; zero means the caller's context alone applies
func (qg *QuizGenerator) SetTimeout(d time.Duration) {
	qg.timeout = d
}

// Provider names the backing model
func (qg *QuizGenerator) Provider() string {
	return qg.provider
}

// Generate turns a passage into a validated question set. Errors are *GenerationError.
// There is no retry.
func (qg *QuizGenerator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	id := uuid.NewString()
	start := time.Now()

	if req.NumQuestions == 0 {
		req.NumQuestions = DefaultNumQuestions
	}

	genErr := validateRequest(req)

	var logger *LLMLogger
	if genErr == nil && qg.transcriptDir != "" {
		l, err := NewLLMLogger(qg.transcriptDir, id, qg.provider, req)
		if err != nil {
			log.Printf("Failed to create transcript for generation %s: %v", id, err)
		} else {
			logger = l
			defer logger.Close()
		}
	}

	var result *GenerationResult
	if genErr == nil {
		result, genErr = qg.generate(ctx, id, req, logger)
	}
	elapsed := time.Since(start)

	rec := GenerationRecord{
		ID:           id,
		CreatedAt:    start,
		Provider:     qg.provider,
		NumQuestions: req.NumQuestions,
		TextChars:    len([]rune(req.TextContent)),
		Status:       http.StatusOK,
		ElapsedMS:    elapsed.Milliseconds(),
	}
	if genErr != nil {
		rec.Status = genErr.Status
		rec.Error = genErr.Message
		log.Printf("Generation %s failed with status %d after %s: %v", id, genErr.Status, elapsed, genErr.Err)
	} else {
		rec.QuestionCount = len(result.Questions)
		result.Elapsed = elapsed
		log.Printf("Generation %s complete: %d questions in %s", id, len(result.Questions), elapsed)
	}

	if logger != nil {
		logger.LogOutcome(rec.Status, rec.QuestionCount, elapsed, rec.Error)
	}
	if qg.journal != nil {
		if err := qg.journal.RecordGeneration(context.WithoutCancel(ctx), rec); err != nil {
			log.Printf("Failed to journal generation %s: %v", id, err)
		}
	}

	if genErr != nil {
		return nil, genErr
	}
	return result, nil
}

// validateRequest reports the 400 cases before any model or transcript work starts
func validateRequest(req GenerationRequest) *GenerationError {
	if strings.TrimSpace(req.TextContent) == "" {
		return &GenerationError{
			Status:  http.StatusBadRequest,
			Message: "No text content provided to generate MCQs.",
			Err:     errors.New("empty text_content"),
		}
	}
	if req.NumQuestions < 1 || req.NumQuestions > MaxNumQuestions {
		return &GenerationError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("num_questions must be between 1 and %d.", MaxNumQuestions),
			Err:     fmt.Errorf("num_questions out of range: %d", req.NumQuestions),
		}
	}
	return nil
}

func (qg *QuizGenerator) generate(ctx context.Context, id string, req GenerationRequest, logger *LLMLogger) (*GenerationResult, *GenerationError) {
	log.Printf("Starting generation %s: %d questions from %d characters via %s", id, req.NumQuestions, len([]rune(req.TextContent)), qg.provider)

	if qg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, qg.timeout)
		defer cancel()
	}

	questions, raw, err := qg.maker.GenerateQuestions(ctx, req, logger)
	switch {
	case errors.Is(err, ErrUnparsableResponse):
		return nil, &GenerationError{
			Status:  http.StatusInternalServerError,
			Message: "Failed to parse JSON response from AI. Raw response: " + raw,
			Err:     err,
		}
	case errors.Is(err, ErrUnexpectedShape):
		return nil, &GenerationError{
			Status:  http.StatusInternalServerError,
			Message: "AI returned unexpected JSON structure. Please try again.",
			Err:     err,
		}
	case err != nil:
		return nil, &GenerationError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("An error occurred: %v", err),
			Err:     err,
		}
	}

	if err := CheckQuestions(questions); err != nil {
		return nil, &GenerationError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("AI returned malformed questions: %v", err),
			Err:     err,
		}
	}

	return &GenerationResult{
		ID:        id,
		Provider:  qg.provider,
		Questions: questions,
	}, nil
}
