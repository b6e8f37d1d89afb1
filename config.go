package mcqgen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o"

	DefaultMaxSessions = 1000
)

// Config holds everything the web server and the CLI need
type Config struct {
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	GeminiAPIKey    string        `yaml:"gemini_api_key"`
	OpenAIAPIKey    string        `yaml:"openai_api_key"`
	HTTPAddr        string        `yaml:"http_addr"`
	SessionSecret   string        `yaml:"session_secret"`
	JournalPath     string        `yaml:"journal_path"`   // empty disables the generation journal
	TranscriptDir   string        `yaml:"transcript_dir"` // empty disables transcript logs
	CORSOrigins     []string      `yaml:"cors_origins"`
	MaxSessions     int           `yaml:"max_sessions"` // 0 keeps sessions without limit
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
	Verbose         bool          `yaml:"verbose"`
}

// LoadConfig reads the optional YAML file at path, applies environment
// overrides and fills in defaults. It does not validate; call Validate.
func LoadConfig(path string) (Config, error) {
	// 0 is a valid max_sessions, so its default is applied before the file and env.
	cfg := Config{MaxSessions: DefaultMaxSessions}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := parseConfig(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func parseConfig(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("MCQ_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("MCQ_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTPAddr = ":" + v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("MCQ_JOURNAL_PATH"); v != "" {
		cfg.JournalPath = v
	}
	if v := os.Getenv("MCQ_TRANSCRIPT_DIR"); v != "" {
		cfg.TranscriptDir = v
	}
	if v := os.Getenv("MCQ_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}
	if v := os.Getenv("MCQ_MAX_SESSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MCQ_MAX_SESSIONS %q: %w", v, err)
		}
		cfg.MaxSessions = n
	}
	if v := os.Getenv("MCQ_GENERATE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MCQ_GENERATE_TIMEOUT %q: %w", v, err)
		}
		cfg.GenerateTimeout = d
	}
	switch strings.ToLower(os.Getenv("MCQ_VERBOSE")) {
	case "1", "true", "yes":
		cfg.Verbose = true
	case "0", "false", "no":
		cfg.Verbose = false
	}
	return nil
}

func applyDefaults(cfg *Config) {
	cfg.Provider = strings.ToLower(cfg.Provider)
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Provider)
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8180"
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.GenerateTimeout == 0 {
		cfg.GenerateTimeout = 2 * time.Minute
	}
}

// DefaultModel returns the model used for provider when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return DefaultGeminiModel
	case ProviderOpenAI:
		return DefaultOpenAIModel
	}
	return ""
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// APIKey returns the key for the configured provider
func (c Config) APIKey() string {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	}
	return ""
}

// Validate checks that the configuration is usable for talking to a model
func (c Config) Validate() error {
	var issues []string
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			issues = append(issues, "GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			issues = append(issues, "OPENAI_API_KEY is required for the openai provider")
		}
	default:
		issues = append(issues, fmt.Sprintf("unknown provider %q", c.Provider))
	}
	if c.MaxSessions < 0 {
		issues = append(issues, "max_sessions must not be negative")
	}
	if c.GenerateTimeout < 0 {
		issues = append(issues, "generate_timeout must not be negative")
	}
	if len(issues) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(issues, "; "))
	}
	return nil
}
