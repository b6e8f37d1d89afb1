package mcqgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// Model is a hosted language model that turns a prompt into text
type Model interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewModel builds the backend selected by cfg.Provider
func NewModel(ctx context.Context, cfg Config) (Model, error) {
	switch cfg.Provider {
	case ProviderGemini:
		m, err := NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return m, nil
	case ProviderOpenAI:
		return NewOpenAIModel(cfg.OpenAIAPIKey, cfg.Model), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

const systemPrompt = "You are an expert Malayalam quiz question generator. Reply with JSON only."

// OpenAIModel talks to the OpenAI chat completion API
type OpenAIModel struct {
	client *openai.Client
	model  string
}

// NewOpenAIModel creates a new OpenAI backend
func NewOpenAIModel(apiKey, model string) *OpenAIModel {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIModel{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (m *OpenAIModel) Name() string {
	return ProviderOpenAI + "/" + m.model
}

// Complete sends the prompt as a single user message and returns the first choice
func (m *OpenAIModel) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: m.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to call %s: %w", m.Name(), err)
	}

	VerboseLog("Received response from %s with %d choices", m.Name(), len(resp.Choices))

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", m.Name())
	}
	return resp.Choices[0].Message.Content, nil
}

// GeminiModel talks to the Gemini API and asks for a JSON response body
type GeminiModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGeminiModel creates a new Gemini backend. Close releases the client.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	gm := client.GenerativeModel(model)
	gm.ResponseMIMEType = "application/json"

	return &GeminiModel{
		client: client,
		model:  gm,
		name:   model,
	}, nil
}

func (m *GeminiModel) Name() string {
	return ProviderGemini + "/" + m.name
}

// Complete generates content for the prompt and joins the text parts of the first candidate
func (m *GeminiModel) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := m.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to call %s: %w", m.Name(), err)
	}

	if resp.UsageMetadata != nil {
		VerboseLog("%s token usage: prompt=%d candidates=%d total=%d", m.Name(),
			resp.UsageMetadata.PromptTokenCount, resp.UsageMetadata.CandidatesTokenCount, resp.UsageMetadata.TotalTokenCount)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from %s", m.Name())
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from %s", m.Name())
	}
	return sb.String(), nil
}

// Close closes the underlying Gemini client
func (m *GeminiModel) Close() error {
	return m.client.Close()
}
