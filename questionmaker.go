package mcqgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnparsableResponse is returned when the model's reply is not JSON
	ErrUnparsableResponse = errors.New("failed to parse JSON response")
	// ErrUnexpectedShape is returned when the reply is JSON but not an array of question objects
	ErrUnexpectedShape = errors.New("unexpected JSON structure")
)

// QuestionMaker turns a passage into questions using a Model
type QuestionMaker struct {
	model Model
}

// NewQuestionMaker creates a new question maker on top of model
func NewQuestionMaker(model Model) *QuestionMaker {
	return &QuestionMaker{model: model}
}

// GenerateQuestions prompts the model and parses its reply. The raw reply is
// returned alongside parse errors so callers can surface it.
func (qm *QuestionMaker) GenerateQuestions(ctx context.Context, req GenerationRequest, logger *LLMLogger) ([]Question, string, error) {
	VerboseLog("Generating %d questions from %d characters of text", req.NumQuestions, len(req.TextContent))

	prompt := BuildPrompt(req.NumQuestions, req.TextContent)

	if logger != nil {
		logger.LogLLMRequest(qm.model.Name(), prompt)
	}

	raw, err := qm.model.Complete(ctx, prompt)
	if err != nil {
		return nil, "", err
	}

	if logger != nil {
		logger.LogLLMResponse(qm.model.Name(), raw)
	}

	questions, err := ParseQuestions(raw)
	if err != nil {
		return nil, raw, err
	}

	VerboseLog("Parsed %d questions from %s", len(questions), qm.model.Name())
	return questions, raw, nil
}

// BuildPrompt renders the Malayalam MCQ instruction for numQuestions questions over text
func BuildPrompt(numQuestions int, text string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Given the following text, generate %d Multiple Choice Questions (MCQs) in Malayalam.\n", numQuestions))
	sb.WriteString("Each question should have 4 answer options (A, B, C, D) with only one correct answer.\n")
	sb.WriteString("For each question, also provide a hint in Malayalam that helps to guess the answer but does not directly reveal it.\n")
	sb.WriteString("Additionally, provide a rationale for the correct answer, explaining why it is correct, in Malayalam.\n\n")

	sb.WriteString("Provide the output in a strict JSON format. The structure should be an array of question objects,\n")
	sb.WriteString("where each object has:\n")
	sb.WriteString("- \"question_text\": The question itself.\n")
	sb.WriteString("- \"options\": An array of objects, each with \"label\" (A, B, C, D) and \"text\" (the option text).\n")
	sb.WriteString("- \"correct_answer_label\": The label of the correct option (e.g., \"A\", \"B\").\n")
	sb.WriteString("- \"hint\": A hint for the question.\n")
	sb.WriteString("- \"rationale\": An explanation for the correct answer.\n\n")

	sb.WriteString("Example of expected JSON structure for one question:\n")
	sb.WriteString(promptExample)
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Now, generate %d MCQs from the following text:\n\n", numQuestions))
	sb.WriteString("---\n")
	sb.WriteString(text)
	sb.WriteString("\n---\n")

	return sb.String()
}

const promptExample = `{
    "question_text": "ഒരു ഉദാഹരണ ചോദ്യം?",
    "options": [
        {"label": "A", "text": "ഓപ്ഷൻ എ"},
        {"label": "B", "text": "ഓപ്ഷൻ ബി"},
        {"label": "C", "text": "ഓപ്ഷൻ സി"},
        {"label": "D", "text": "ഓപ്ഷൻ ഡി"}
    ],
    "correct_answer_label": "C",
    "hint": "ഈ ചോദ്യത്തിനുള്ള സൂചന.",
    "rationale": "ശരിയായ ഉത്തരത്തിന്റെ വിശദീകരണം."
}`

// StripCodeFence removes a surrounding markdown code fence, if any.
// Models sometimes wrap JSON in ```json ... ``` despite being asked not to.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseQuestions decodes a model reply into questions. It checks the JSON shape
// only; use CheckQuestions for the per-question invariants.
func ParseQuestions(raw string) ([]Question, error) {
	data := []byte(StripCodeFence(raw))

	if !json.Valid(data) {
		return nil, ErrUnparsableResponse
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: top level is not an array", ErrUnexpectedShape)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: top level is null", ErrUnexpectedShape)
	}

	questions := make([]Question, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("%w: item %d is not an object", ErrUnexpectedShape, i+1)
		}
		var q Question
		if err := json.Unmarshal(item, &q); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrUnexpectedShape, i+1, err)
		}
		questions = append(questions, q)
	}

	return questions, nil
}
