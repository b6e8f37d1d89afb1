package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"mcqgen"
)

func main() {
	var (
		text         = flag.String("text", "", "Malayalam passage to generate questions from")
		textFile     = flag.String("file", "", "Read the passage from this file (- for stdin)")
		numQuestions = flag.Int("questions", mcqgen.DefaultNumQuestions, "Number of questions to generate")
		provider     = flag.String("provider", "", "Model provider: gemini or openai (overrides config)")
		model        = flag.String("model", "", "Model name (overrides config)")
		outputFile   = flag.String("output", "", "Output file for the questions JSON (default: stdout)")
		playMode     = flag.Bool("play", false, "Play the generated quiz interactively")
		noColor      = flag.Bool("no-color", false, "Disable colored output in play mode")
		configPath   = flag.String("config", "", "Path to a YAML config file")
		verbose      = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	cfg, err := mcqgen.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *provider != "" && !strings.EqualFold(*provider, cfg.Provider) {
		cfg.Provider = strings.ToLower(*provider)
		cfg.Model = mcqgen.DefaultModel(cfg.Provider)
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *verbose {
		cfg.Verbose = true
	}
	mcqgen.SetVerbose(cfg.Verbose)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if *playMode && *textFile == "-" {
		log.Fatal("Cannot read the passage from stdin in play mode; use -text or a file.")
	}
	passage, err := readPassage(*text, *textFile, os.Stdin)
	if err != nil {
		log.Fatal(err)
	}

	m, err := mcqgen.NewModel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to create model: %v", err)
	}
	if closer, ok := m.(io.Closer); ok {
		defer closer.Close()
	}

	generator := mcqgen.NewQuizGenerator(m)
	generator.SetTimeout(cfg.GenerateTimeout)
	generator.SetTranscriptDir(cfg.TranscriptDir)

	if cfg.JournalPath != "" {
		journal, err := mcqgen.OpenDB(cfg.JournalPath)
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		defer journal.CloseDB()
		generator.SetJournal(journal)
	}

	req := mcqgen.GenerationRequest{
		TextContent:  passage,
		NumQuestions: *numQuestions,
	}

	if *playMode {
		fmt.Printf("⏳ Generating %d questions with %s... (this may take a moment)\n\n", *numQuestions, generator.Provider())
	}

	res, err := generator.Generate(context.Background(), req)
	if err != nil {
		log.Fatalf("Failed to generate questions: %v", err)
	}
	mcqgen.VerboseLog("Generation %s took %s", res.ID, res.Elapsed)

	if *playMode {
		quiz := mcqgen.NewSession()
		if err := quiz.LoadQuestions(res.Questions); err != nil {
			log.Fatalf("Failed to load questions: %v", err)
		}
		if err := playQuiz(os.Stdin, os.Stdout, quiz, newStyles(*noColor)); err != nil {
			log.Fatal(err)
		}
		return
	}

	output, err := json.MarshalIndent(res.Questions, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal questions: %v", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Questions saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}

// readPassage picks the passage from -text or -file, in that order
func readPassage(text, path string, stdin io.Reader) (string, error) {
	if text != "" && path != "" {
		return "", errors.New("use either -text or -file, not both")
	}
	if text != "" {
		return text, nil
	}

	var data []byte
	var err error
	switch path {
	case "":
		return "", errors.New("a passage is required; use -text or -file")
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read passage: %w", err)
	}
	return string(data), nil
}
