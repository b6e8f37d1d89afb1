package mcqgen

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes the transcript of one generation run to its own file
type LLMLogger struct {
	file         *os.File
	mu           sync.Mutex
	generationID string
}

// NewLLMLogger creates <dir>/<generationID>.log and writes the request header
func NewLLMLogger(dir, generationID, provider string, req GenerationRequest) (*LLMLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", generationID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:         file,
		generationID: generationID,
	}

	logger.Logf("=== MCQ Generation Log ===\n")
	logger.Logf("Generation ID: %s\n", generationID)
	logger.Logf("Provider: %s\n", provider)
	logger.Logf("Number of Questions: %d\n", req.NumQuestions)
	logger.Logf("Text Length: %d characters\n", len([]rune(req.TextContent)))
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("==========================\n\n")

	return logger, nil
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.logf(format, args...)
}

func (ll *LLMLogger) logf(format string, args ...interface{}) {
	if ll.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(ll.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	ll.file.Sync()
}

// LogLLMRequest logs the prompt sent to a model
func (ll *LLMLogger) LogLLMRequest(model, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", model)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs the raw reply of a model
func (ll *LLMLogger) LogLLMResponse(model, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", model)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogOutcome logs how the generation ended
func (ll *LLMLogger) LogOutcome(status, questionCount int, elapsed time.Duration, message string) {
	if message == "" {
		ll.Logf("Outcome: status=%d questions=%d elapsed=%s\n", status, questionCount, elapsed)
		return
	}
	ll.Logf("Outcome: status=%d questions=%d elapsed=%s error=%s\n", status, questionCount, elapsed, message)
}

// Close writes the footer and closes the log file
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file == nil {
		return nil
	}
	ll.logf("=== MCQ Generation Complete ===\n")
	ll.logf("Completed: %s\n", time.Now().Format(time.RFC3339))
	ll.logf("===============================\n")
	err := ll.file.Close()
	ll.file = nil
	return err
}
