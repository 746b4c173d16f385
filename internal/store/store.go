// Package store persists enriched applicant records in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sumithkumar123/resume-analysis-app/internal/applicant"
)

// ErrIncomplete is returned by SaveApplicant when name or email is missing.
var ErrIncomplete = errors.New("store: applicant requires name and email")

const schema = `
CREATE TABLE IF NOT EXISTS applicants (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	education  TEXT NOT NULL DEFAULT '{}',
	experience TEXT NOT NULL DEFAULT '{}',
	skills     TEXT NOT NULL DEFAULT '[]',
	summary    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_applicants_name ON applicants(name);
`

// Store wraps the applicants database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveApplicant inserts a record and returns its generated ID.
func (s *Store) SaveApplicant(ctx context.Context, rec applicant.Record) (string, error) {
	if strings.TrimSpace(rec.Name) == "" || strings.TrimSpace(rec.Email) == "" {
		return "", ErrIncomplete
	}

	education, err := json.Marshal(rec.Education)
	if err != nil {
		return "", fmt.Errorf("store: marshal education: %w", err)
	}
	experience, err := json.Marshal(rec.Experience)
	if err != nil {
		return "", fmt.Errorf("store: marshal experience: %w", err)
	}
	skills := rec.Skills
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return "", fmt.Errorf("store: marshal skills: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applicants (id, name, email, education, experience, skills, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Name, rec.Email, string(education), string(experience), string(skillsJSON), rec.Summary,
	)
	if err != nil {
		return "", fmt.Errorf("store: insert applicant: %w", err)
	}
	return id, nil
}

// StoredApplicant is a persisted record with its ID.
type StoredApplicant struct {
	ID string `json:"id"`
	applicant.Record
}

// SearchByName returns applicants whose name contains the given substring,
// case-insensitively.
func (s *Store) SearchByName(ctx context.Context, name string) ([]StoredApplicant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, education, experience, skills, summary
		 FROM applicants
		 WHERE instr(lower(name), lower(?)) > 0
		 ORDER BY created_at`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []StoredApplicant
	for rows.Next() {
		var (
			sa                            StoredApplicant
			education, experience, skills string
		)
		if err := rows.Scan(&sa.ID, &sa.Name, &sa.Email, &education, &experience, &skills, &sa.Summary); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(education), &sa.Education); err != nil {
			return nil, fmt.Errorf("store: education for %s: %w", sa.ID, err)
		}
		if err := json.Unmarshal([]byte(experience), &sa.Experience); err != nil {
			return nil, fmt.Errorf("store: experience for %s: %w", sa.ID, err)
		}
		if err := json.Unmarshal([]byte(skills), &sa.Skills); err != nil {
			return nil, fmt.Errorf("store: skills for %s: %w", sa.ID, err)
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}
