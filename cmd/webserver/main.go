package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"time"

	"mcqgen"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	cfg, err := mcqgen.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	mcqgen.SetVerbose(cfg.Verbose)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	model, err := mcqgen.NewModel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to create model: %v", err)
	}
	if closer, ok := model.(io.Closer); ok {
		defer closer.Close()
	}

	generator := mcqgen.NewQuizGenerator(model)
	generator.SetTimeout(cfg.GenerateTimeout)
	generator.SetTranscriptDir(cfg.TranscriptDir)

	var journal *mcqgen.DB
	if cfg.JournalPath != "" {
		journal, err = mcqgen.OpenDB(cfg.JournalPath)
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		defer journal.CloseDB()
		generator.SetJournal(journal)
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		log.Printf("SESSION_SECRET not set, using a random key; sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	server, err := NewServer(generator, mcqgen.NewSessionStore(cfg.MaxSessions), store, journal, cfg.CORSOrigins)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("Starting server on %s using %s", cfg.HTTPAddr, generator.Provider())
	log.Fatal(srv.ListenAndServe())
}
