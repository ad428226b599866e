package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	data JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSink writes documents into a single documents table keyed by collection
type PostgresSink struct {
	db *sql.DB

	mu    sync.Mutex
	ready bool
}

// NewPostgresSink connects to the database at dsn
func NewPostgresSink(dsn string) (*PostgresSink, error) {
	if dsn == "" {
		return nil, &ValidationError{Sink: "postgres", Field: "dsn", Reason: "database connection required (set sink.dsn or DATABASE_URL env)"}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &SinkError{Sink: "postgres", Op: "open", Err: err}
	}

	// Configure connection pool
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &SinkError{Sink: "postgres", Op: "connect", Err: err}
	}

	return &PostgresSink{db: db}, nil
}

// Name returns the sink type
func (s *PostgresSink) Name() string { return "postgres" }

// Insert stores doc as JSONB
func (s *PostgresSink) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	if err := checkCollection(s.Name(), collection); err != nil {
		return "", err
	}

	if err := s.ensureSchema(ctx); err != nil {
		return "", err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "encode", Err: err}
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (id, collection, data) VALUES ($1, $2, $3)",
		id, collection, string(data))
	if err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "insert", Err: err}
	}
	return id, nil
}

func (s *PostgresSink) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return &SinkError{Sink: s.Name(), Op: "create table", Err: err}
	}
	s.ready = true
	return nil
}

// Close releases the database connection
func (s *PostgresSink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
