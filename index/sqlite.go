package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS completed (
	address      TEXT PRIMARY KEY,
	completed_at TEXT NOT NULL
)`

// SQLite keeps the index in a database table instead of a text file. Like
// File, the table is read once on open so that lookups cannot fail.
type SQLite struct {
	db *sql.DB

	mu   sync.Mutex
	seen map[string]struct{}
}

func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	// one writer; sqlite serializes anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=FULL", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize index database: %w", err)
		}
	}

	seen, err := loadTable(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, seen: seen}, nil
}

func loadTable(db *sql.DB) (map[string]struct{}, error) {
	rows, err := db.Query(`SELECT address FROM completed`)
	if err != nil {
		return nil, fmt.Errorf("failed to read index database: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, fmt.Errorf("failed to read index database: %w", err)
		}
		seen[address] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index database: %w", err)
	}
	return seen, nil
}

func (s *SQLite) Contains(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[address]
	return ok
}

func (s *SQLite) Record(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("empty address")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[address]; ok {
		return nil
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO completed (address, completed_at) VALUES (?, ?)`,
		address, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", address, err)
	}
	s.seen[address] = struct{}{}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func ValidBackend(backend string) error {
	switch strings.ToLower(backend) {
	case "", "file", "sqlite":
		return nil
	default:
		return fmt.Errorf("unknown index backend %q", backend)
	}
}

// OpenBackend opens the index for the configured backend: "file" or "sqlite".
func OpenBackend(backend, path string) (Index, error) {
	if err := ValidBackend(backend); err != nil {
		return nil, err
	}
	if strings.ToLower(backend) == "sqlite" {
		return OpenSQLite(path)
	}
	return Open(path)
}
