package mcqgen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the generation journal. It records metadata about generation runs;
// quiz content and user selections are never written to it.
type DB struct {
	db *sql.DB
}

// GenerationRecord is one journal row
type GenerationRecord struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Provider      string    `json:"provider"`
	NumQuestions  int       `json:"num_questions"`
	TextChars     int       `json:"text_chars"`
	Status        int       `json:"status"`
	QuestionCount int       `json:"question_count"`
	ElapsedMS     int64     `json:"elapsed_ms"`
	Error         string    `json:"error,omitempty"`
}

// ErrGenerationNotFound is returned by GetGeneration for an unknown id
var ErrGenerationNotFound = errors.New("generation not found")

// OpenDB opens the journal at dbPath and creates its tables
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	journal := &DB{db: db}
	if err := journal.CreateTables(); err != nil {
		db.Close()
		return nil, err
	}
	return journal, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS generations (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			provider TEXT NOT NULL,
			num_questions INTEGER NOT NULL,
			text_chars INTEGER NOT NULL,
			status INTEGER NOT NULL,
			question_count INTEGER NOT NULL DEFAULT 0,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS generations_created_at ON generations(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// RecordGeneration inserts one journal row
func (db *DB) RecordGeneration(ctx context.Context, rec GenerationRecord) error {
	_, err := db.db.ExecContext(ctx,
		"INSERT INTO generations (id, created_at, provider, num_questions, text_chars, status, question_count, elapsed_ms, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.CreatedAt.UTC(), rec.Provider, rec.NumQuestions, rec.TextChars, rec.Status, rec.QuestionCount, rec.ElapsedMS, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

const generationColumns = "id, created_at, provider, num_questions, text_chars, status, question_count, elapsed_ms, error"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (GenerationRecord, error) {
	var rec GenerationRecord
	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.Provider, &rec.NumQuestions, &rec.TextChars,
		&rec.Status, &rec.QuestionCount, &rec.ElapsedMS, &rec.Error)
	return rec, err
}

// GetGeneration retrieves a journal row by id
func (db *DB) GetGeneration(ctx context.Context, id string) (*GenerationRecord, error) {
	row := db.db.QueryRowContext(ctx, "SELECT "+generationColumns+" FROM generations WHERE id = ?", id)
	rec, err := scanGeneration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrGenerationNotFound, id)
		}
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return &rec, nil
}

// RecentGenerations returns the newest rows first; limit <= 0 returns all
func (db *DB) RecentGenerations(ctx context.Context, limit int) ([]GenerationRecord, error) {
	query := "SELECT " + generationColumns + " FROM generations ORDER BY created_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get generations: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generations: %w", err)
	}

	return records, nil
}
