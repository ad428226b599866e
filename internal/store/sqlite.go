package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteSink writes each collection to its own table in a SQLite database.
// Tables are created on first insert.
type SQLiteSink struct {
	db     *sql.DB
	dbPath string

	mu     sync.Mutex
	tables map[string]bool
}

// NewSQLiteSink opens (or creates) the database at dbPath
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	if dbPath == "" {
		return nil, &ValidationError{Sink: "sqlite", Field: "db", Reason: "database path is required"}
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &SinkError{Sink: "sqlite", Op: "create directory", Err: err}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &SinkError{Sink: "sqlite", Op: "open", Err: err}
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &SinkError{Sink: "sqlite", Op: "connect", Err: err}
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	return &SQLiteSink{
		db:     db,
		dbPath: dbPath,
		tables: make(map[string]bool),
	}, nil
}

// Name returns the sink type
func (s *SQLiteSink) Name() string { return "sqlite" }

// Path returns the database file path
func (s *SQLiteSink) Path() string { return s.dbPath }

// Insert stores doc as a JSON row in the collection's table
func (s *SQLiteSink) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	if err := checkCollection(s.Name(), collection); err != nil {
		return "", err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "encode", Err: err}
	}

	if err := s.ensureTable(ctx, collection); err != nil {
		return "", err
	}

	id := uuid.NewString()
	// Table name is validated by checkCollection
	query := fmt.Sprintf("INSERT INTO %s (id, data, created_at) VALUES (?, ?, ?)", collection)
	if _, err := s.db.ExecContext(ctx, query, id, string(data), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "insert", Err: err}
	}
	return id, nil
}

func (s *SQLiteSink) ensureTable(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables[collection] {
		return nil
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	created_at TEXT NOT NULL
)`, collection)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return &SinkError{Sink: s.Name(), Collection: collection, Op: "create table", Err: err}
	}
	s.tables[collection] = true
	return nil
}

// Close releases the database connection
func (s *SQLiteSink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
