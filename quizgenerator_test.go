package mcqgen

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func generationError(t *testing.T, err error) *GenerationError {
	t.Helper()
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %T (%v)", err, err)
	}
	return genErr
}

func TestGenerateSuccess(t *testing.T) {
	model := &fakeModel{reply: "```json\n" + sampleReply + "\n```"}
	qg := NewQuizGenerator(model)

	res, err := qg.Generate(context.Background(), GenerationRequest{TextContent: "പാഠം", NumQuestions: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Questions) != 1 || res.Provider != "fake/model" || res.ID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	s := NewSession()
	if err := s.LoadQuestions(res.Questions); err != nil {
		t.Fatalf("generated questions should load: %v", err)
	}
}

func TestGenerateDefaultsQuestionCount(t *testing.T) {
	model := &fakeModel{reply: sampleReply}
	if _, err := NewQuizGenerator(model).Generate(context.Background(), GenerationRequest{TextContent: "പാഠം"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(model.prompts[0], "generate 10 Multiple Choice Questions") {
		t.Fatalf("expected default of 10 questions in prompt")
	}
}

func TestGenerateBadRequest(t *testing.T) {
	tests := []struct {
		name string
		req  GenerationRequest
		want string
	}{
		{"empty text", GenerationRequest{TextContent: ""}, "No text content provided"},
		{"blank text", GenerationRequest{TextContent: " \n\t"}, "No text content provided"},
		{"too many", GenerationRequest{TextContent: "x", NumQuestions: 101}, "between 1 and 100"},
		{"negative", GenerationRequest{TextContent: "x", NumQuestions: -1}, "between 1 and 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{reply: sampleReply}
			_, err := NewQuizGenerator(model).Generate(context.Background(), tt.req)
			genErr := generationError(t, err)
			if genErr.Status != http.StatusBadRequest || !strings.Contains(genErr.Message, tt.want) {
				t.Fatalf("unexpected error: %d %q", genErr.Status, genErr.Message)
			}
			if len(model.prompts) != 0 {
				t.Fatalf("expected no model call for a bad request")
			}
		})
	}
}

func TestGenerateServerErrors(t *testing.T) {
	malformed := strings.Replace(sampleReply, `"correct_answer_label": "B"`, `"correct_answer_label": "E"`, 1)

	tests := []struct {
		name  string
		model *fakeModel
		want  string
	}{
		{"model failure", &fakeModel{err: errors.New("quota exceeded")}, "An error occurred: quota exceeded"},
		{"not json", &fakeModel{reply: "not json"}, "Failed to parse JSON response from AI. Raw response: not json"},
		{"wrong shape", &fakeModel{reply: `{"a": 1}`}, "AI returned unexpected JSON structure. Please try again."},
		{"bad correct label", &fakeModel{reply: malformed}, "AI returned malformed questions"},
		{"empty array", &fakeModel{reply: "[]"}, "AI returned malformed questions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuizGenerator(tt.model).Generate(context.Background(), GenerationRequest{TextContent: "പാഠം", NumQuestions: 1})
			genErr := generationError(t, err)
			if genErr.Status != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", genErr.Status)
			}
			if !strings.Contains(genErr.Message, tt.want) {
				t.Fatalf("expected %q in %q", tt.want, genErr.Message)
			}
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	qg := NewQuizGenerator(&slowModel{})
	qg.SetTimeout(10 * time.Millisecond)

	_, err := qg.Generate(context.Background(), GenerationRequest{TextContent: "പാഠം", NumQuestions: 1})
	genErr := generationError(t, err)
	if genErr.Status != http.StatusInternalServerError || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %d %v", genErr.Status, err)
	}
}

type slowModel struct{}

func (slowModel) Name() string { return "slow/model" }

func (slowModel) Complete(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerateJournalAndTranscript(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t)

	qg := NewQuizGenerator(&fakeModel{reply: sampleReply})
	qg.SetJournal(db)
	qg.SetTranscriptDir(filepath.Join(dir, "log"))

	res, err := qg.Generate(context.Background(), GenerationRequest{TextContent: "പാഠം", NumQuestions: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := qg.Generate(context.Background(), GenerationRequest{}); err == nil {
		t.Fatalf("expected bad request")
	}

	rec, err := db.GetGeneration(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("GetGeneration: %v", err)
	}
	if rec.Status != http.StatusOK || rec.QuestionCount != 1 || rec.Provider != "fake/model" || rec.TextChars != 4 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	recent, err := db.RecentGenerations(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentGenerations: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected both runs journaled, got %d", len(recent))
	}

	data, err := os.ReadFile(filepath.Join(dir, "log", res.ID+".log"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if !strings.Contains(string(data), "LLM RESPONSE (fake/model)") {
		t.Fatalf("expected response in transcript:\n%s", data)
	}
}

func TestGenerateBadRequestWritesNoTranscript(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	model := &fakeModel{reply: sampleReply}
	qg := NewQuizGenerator(model)
	qg.SetTranscriptDir(dir)

	for _, req := range []GenerationRequest{{}, {TextContent: "x", NumQuestions: 500}} {
		if _, err := qg.Generate(context.Background(), req); err == nil {
			t.Fatalf("expected bad request for %+v", req)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("read transcript dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no transcripts for rejected requests, got %d", len(entries))
	}
	if len(model.prompts) != 0 {
		t.Fatalf("expected no model calls, got %d", len(model.prompts))
	}
}
