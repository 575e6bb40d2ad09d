// Package session persists the signed-in user between runs.
package session

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Profile is the locally remembered account.
type Profile struct {
	UserID string
	Name   string
	Email  string
}

// Store keeps a single profile row in a SQLite file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the profile database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createProfileTable := `
	CREATE TABLE IF NOT EXISTS profile (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		user_id TEXT NOT NULL,
		name TEXT,
		email TEXT
	);`

	if _, err := db.Exec(createProfileTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create profile table: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Load returns the stored profile, or nil when none is usable. A row
// without a user id is invalid state; it is cleared so the next run
// starts clean instead of looping on garbage.
func (s *Store) Load() *Profile {
	var p Profile
	row := s.db.QueryRow(`SELECT user_id, name, email FROM profile WHERE id = 1`)
	if err := row.Scan(&p.UserID, &p.Name, &p.Email); err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn("failed to read stored profile, clearing", "error", err)
			s.Clear()
		}
		return nil
	}
	if strings.TrimSpace(p.UserID) == "" {
		s.logger.Warn("stored profile has no user id, clearing")
		s.Clear()
		return nil
	}
	return &p
}

// Save replaces the stored profile.
func (s *Store) Save(p Profile) error {
	_, err := s.db.Exec(
		`INSERT INTO profile (id, user_id, name, email) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, name = excluded.name, email = excluded.email`,
		p.UserID, p.Name, p.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Clear removes the stored profile.
func (s *Store) Clear() {
	if _, err := s.db.Exec(`DELETE FROM profile WHERE id = 1`); err != nil {
		s.logger.Warn("failed to clear profile", "error", err)
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
