package main

import (
	"context"
	"embed"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mcqgen"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

const cookieName = "mcq-session"

// Generator is the part of mcqgen.QuizGenerator the server needs
type Generator interface {
	Generate(ctx context.Context, req mcqgen.GenerationRequest) (*mcqgen.GenerationResult, error)
	Provider() string
}

type Server struct {
	generator   Generator
	sessions    *mcqgen.SessionStore
	store       *sessions.CookieStore
	journal     *mcqgen.DB
	corsOrigins []string
	templates   map[string]*template.Template
}

// Notice is a one-shot message shown above the form
type Notice struct {
	Kind string // success, warning, error
	Text string
	Code string // raw details, rendered preformatted
}

func init() {
	gob.Register(Notice{})
}

func NewServer(generator Generator, quizSessions *mcqgen.SessionStore, store *sessions.CookieStore, journal *mcqgen.DB, corsOrigins []string) (*Server, error) {
	funcMap := template.FuncMap{
		"counts": func(max int) []int {
			out := make([]int, max)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
	}

	templates := make(map[string]*template.Template)
	for _, name := range []string{"index"} {
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	return &Server{
		generator:   generator,
		sessions:    quizSessions,
		store:       store,
		journal:     journal,
		corsOrigins: corsOrigins,
		templates:   templates,
	}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/generate", s.handleGenerate)
	r.Post("/answer", s.handleAnswer)
	r.Post("/reset", s.handleReset)

	r.Route("/api", func(ar chi.Router) {
		ar.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
		ar.Post("/mcq", s.handleAPIGenerate)
		ar.Get("/generations", s.handleAPIGenerations)
	})

	return r
}

// sessionID returns the browser's quiz session id, issuing one if needed
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (*sessions.Session, string) {
	sess, err := s.store.Get(r, cookieName)
	if err != nil {
		// Undecodable cookie, e.g. after a secret change; start over.
		log.Printf("Discarding session cookie: %v", err)
	}
	if id, ok := sess.Values["id"].(string); ok && id != "" {
		return sess, id
	}

	id := mcqgen.NewSessionID()
	sess.Values["id"] = id
	if err := sess.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
	return sess, id
}

type optionView struct {
	Label    string
	Text     string
	Selected bool
}

type questionView struct {
	Index        int
	Text         string
	Options      []optionView
	Hint         string
	Answered     bool
	Selected     string
	Correct      bool
	CorrectLabel string
	Rationale    string
}

type pageView struct {
	Notices      []Notice
	TextContent  string
	NumQuestions int
	MaxQuestions int
	Questions    []questionView
	Progress     mcqgen.Progress
	Score        *mcqgen.Score
	Provider     string
}

// buildView renders the session into template data. Callers hold the session.
func buildView(quiz *mcqgen.Session) pageView {
	view := pageView{
		NumQuestions: mcqgen.DefaultNumQuestions,
		MaxQuestions: mcqgen.MaxNumQuestions,
		Progress:     quiz.Progress(),
	}

	for i, q := range quiz.Questions() {
		index := i + 1
		qv := questionView{
			Index:        index,
			Text:         q.Text,
			Hint:         q.Hint,
			CorrectLabel: q.CorrectAnswerLabel,
			Rationale:    q.Rationale,
		}
		qv.Selected, qv.Answered = quiz.Selection(index)
		if qv.Answered {
			qv.Correct, _ = quiz.IsCorrect(index)
		}
		for _, opt := range q.Options {
			qv.Options = append(qv.Options, optionView{
				Label:    opt.Label,
				Text:     opt.Text,
				Selected: qv.Answered && opt.Label == qv.Selected,
			})
		}
		view.Questions = append(view.Questions, qv)
	}

	if score, err := quiz.Score(); err == nil {
		view.Score = &score
	}
	return view
}

func (s *Server) render(w http.ResponseWriter, name string, view pageView) {
	view.Provider = s.generator.Provider()
	err := s.templates[name].ExecuteTemplate(w, "base.html", view)
	if err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func popNotices(sess *sessions.Session) []Notice {
	var notices []Notice
	for _, f := range sess.Flashes() {
		if n, ok := f.(Notice); ok {
			notices = append(notices, n)
		}
	}
	return notices
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, id := s.sessionID(w, r)
	notices := popNotices(sess)
	if len(notices) > 0 {
		if err := sess.Save(r, w); err != nil {
			log.Printf("Session save error: %v", err)
		}
	}

	var view pageView
	s.sessions.With(id, func(quiz *mcqgen.Session) error {
		view = buildView(quiz)
		return nil
	})
	view.Notices = notices
	s.render(w, "index", view)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	_, id := s.sessionID(w, r)

	text := r.FormValue("text_content")
	numQuestions, err := strconv.Atoi(r.FormValue("num_questions"))
	if err != nil || numQuestions < 1 || numQuestions > mcqgen.MaxNumQuestions {
		numQuestions = mcqgen.DefaultNumQuestions
	}

	var view pageView
	s.sessions.With(id, func(quiz *mcqgen.Session) error {
		// A new request always clears the previous quiz, even if generation then fails.
		quiz.Reset()

		notice := s.generateInto(r.Context(), quiz, text, numQuestions)
		view = buildView(quiz)
		view.Notices = []Notice{notice}
		return nil
	})

	view.TextContent = text
	view.NumQuestions = numQuestions
	s.render(w, "index", view)
}

func (s *Server) generateInto(ctx context.Context, quiz *mcqgen.Session, text string, numQuestions int) Notice {
	if strings.TrimSpace(text) == "" {
		return Notice{Kind: "warning", Text: "Please enter some text to generate MCQs."}
	}

	res, err := s.generator.Generate(ctx, mcqgen.GenerationRequest{TextContent: text, NumQuestions: numQuestions})
	if err != nil {
		var genErr *mcqgen.GenerationError
		if errors.As(err, &genErr) {
			return Notice{Kind: "error", Text: "Failed to generate questions.", Code: genErr.Message}
		}
		return Notice{Kind: "error", Text: "Error during MCQ generation: " + err.Error()}
	}

	if err := quiz.LoadQuestions(res.Questions); err != nil {
		log.Printf("Generated questions failed to load: %v", err)
		return Notice{Kind: "error", Text: "Failed to generate questions.", Code: err.Error()}
	}

	return Notice{
		Kind: "success",
		Text: fmt.Sprintf("MCQs generated successfully! Time taken: %.2f seconds", res.Elapsed.Seconds()),
	}
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	sess, id := s.sessionID(w, r)

	index, err := strconv.Atoi(r.FormValue("q"))
	if err != nil {
		http.Error(w, "Invalid question number", http.StatusBadRequest)
		return
	}
	label := r.FormValue("label")

	err = s.sessions.With(id, func(quiz *mcqgen.Session) error {
		return quiz.SelectAnswer(index, label)
	})
	if err != nil {
		mcqgen.VerboseLog("Rejected selection for session %s: %v", id, err)
		sess.AddFlash(Notice{Kind: "error", Text: answerErrorText(err)})
		if err := sess.Save(r, w); err != nil {
			log.Printf("Session save error: %v", err)
		}
	}

	http.Redirect(w, r, fmt.Sprintf("/#q%d", index), http.StatusSeeOther)
}

func answerErrorText(err error) string {
	switch {
	case errors.Is(err, mcqgen.ErrUnknownQuestion):
		return "That question is no longer part of the quiz. Generate a new set to continue."
	case errors.Is(err, mcqgen.ErrInvalidOptionLabel):
		return "Please choose one of the listed options."
	}
	return "Could not record your answer: " + err.Error()
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_, id := s.sessionID(w, r)
	s.sessions.With(id, func(quiz *mcqgen.Session) error {
		quiz.Reset()
		return nil
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// POST /api/mcq
func (s *Server) handleAPIGenerate(w http.ResponseWriter, r *http.Request) {
	var req mcqgen.GenerationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}

	start := time.Now()
	res, err := s.generator.Generate(r.Context(), req)
	if err != nil {
		var genErr *mcqgen.GenerationError
		if errors.As(err, &genErr) {
			writeError(w, genErr.Status, genErr.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "An error occurred: "+err.Error())
		return
	}

	w.Header().Set("X-Generation-Id", res.ID)
	w.Header().Set("X-Generation-Seconds", strconv.FormatFloat(time.Since(start).Seconds(), 'f', 2, 64))
	writeJSON(w, http.StatusOK, res.Questions)
}

// GET /api/generations
func (s *Server) handleAPIGenerations(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "generation journal is disabled")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := s.journal.RecentGenerations(r.Context(), limit)
	if err != nil {
		log.Printf("Failed to read generations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read generations")
		return
	}
	if records == nil {
		records = []mcqgen.GenerationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
