// Package storage persists finished match results locally.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for match persistence.
type Store struct {
	db *sql.DB
}

// MatchRecord is one finished two-player match from the local player's
// perspective.
type MatchRecord struct {
	ID            int64
	Opponent      string
	Seed          uint64
	MyScore       int
	MyLines       int
	OpponentScore int
	OpponentLines int
	Won           bool
	EndReason     string // "topped_out", "opponent_topped_out", "disconnect"
	DurationSecs  int
	CreatedAt     time.Time
}

// PlayerStats aggregates the local match history.
type PlayerStats struct {
	MatchesPlayed int
	MatchesWon    int
	BestScore     int
	TotalLines    int64
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			opponent TEXT NOT NULL,
			seed INTEGER NOT NULL,
			my_score INTEGER NOT NULL DEFAULT 0,
			my_lines INTEGER NOT NULL DEFAULT 0,
			opponent_score INTEGER NOT NULL DEFAULT 0,
			opponent_lines INTEGER NOT NULL DEFAULT 0,
			won INTEGER NOT NULL DEFAULT 0,
			end_reason TEXT NOT NULL,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_matches_created_at ON matches(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_matches_opponent ON matches(opponent);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveMatch records a finished match.
// Returns the ID of the inserted record.
func (s *Store) SaveMatch(rec MatchRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO matches
		 (opponent, seed, my_score, my_lines, opponent_score, opponent_lines, won, end_reason, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Opponent,
		int64(rec.Seed),
		rec.MyScore,
		rec.MyLines,
		rec.OpponentScore,
		rec.OpponentLines,
		rec.Won,
		rec.EndReason,
		rec.DurationSecs,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save match: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentMatches retrieves the most recent matches, newest first.
func (s *Store) RecentMatches(limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, opponent, seed, my_score, my_lines, opponent_score, opponent_lines,
		        won, end_reason, duration_secs, created_at
		 FROM matches
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// MatchesAgainst retrieves the match history against one opponent.
func (s *Store) MatchesAgainst(opponent string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, opponent, seed, my_score, my_lines, opponent_score, opponent_lines,
		        won, end_reason, duration_secs, created_at
		 FROM matches
		 WHERE opponent = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		opponent, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// Stats returns aggregated statistics over the whole match history.
func (s *Store) Stats() (PlayerStats, error) {
	var stats PlayerStats
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(won), 0),
		        COALESCE(MAX(my_score), 0),
		        COALESCE(SUM(my_lines), 0)
		 FROM matches`,
	).Scan(&stats.MatchesPlayed, &stats.MatchesWon, &stats.BestScore, &stats.TotalLines)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	return stats, nil
}

// ClearHistory deletes all stored matches.
func (s *Store) ClearHistory() error {
	_, err := s.db.Exec("DELETE FROM matches")
	if err != nil {
		return fmt.Errorf("storage: cannot clear history: %w", err)
	}
	return nil
}

func scanMatch(rows *sql.Rows) (MatchRecord, error) {
	var rec MatchRecord
	var seed int64
	var createdAt any
	if err := rows.Scan(
		&rec.ID,
		&rec.Opponent,
		&seed,
		&rec.MyScore,
		&rec.MyLines,
		&rec.OpponentScore,
		&rec.OpponentLines,
		&rec.Won,
		&rec.EndReason,
		&rec.DurationSecs,
		&createdAt,
	); err != nil {
		return MatchRecord{}, fmt.Errorf("storage: cannot scan row: %w", err)
	}
	rec.Seed = uint64(seed)

	// Parse the datetime - handle both time.Time and string
	switch v := createdAt.(type) {
	case time.Time:
		rec.CreatedAt = v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			rec.CreatedAt = parsed
		}
	}

	return rec, nil
}
