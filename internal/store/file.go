package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileSink appends documents as JSON lines to <dir>/<collection>.jsonl
type FileSink struct {
	dir string
	mu  sync.Mutex
}

// NewFileSink creates dir if needed
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, &ValidationError{Sink: "file", Field: "dir", Reason: "directory is required"}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &SinkError{Sink: "file", Op: "create directory", Err: err}
	}
	return &FileSink{dir: dir}, nil
}

// Name returns the sink type
func (s *FileSink) Name() string { return "file" }

// Path returns the file backing collection
func (s *FileSink) Path(collection string) string {
	return filepath.Join(s.dir, collection+".jsonl")
}

type fileRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Data      Document  `json:"data"`
}

// Insert appends one line to the collection file
func (s *FileSink) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "insert", Err: err}
	}
	if err := checkCollection(s.Name(), collection); err != nil {
		return "", err
	}

	rec := fileRecord{ID: uuid.NewString(), CreatedAt: time.Now().UTC(), Data: doc}
	line, err := json.Marshal(rec)
	if err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "encode", Err: err}
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(collection), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "open", Err: err}
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "close", Err: err}
	}
	return rec.ID, nil
}

// Close is a no-op; files are closed after every write
func (s *FileSink) Close() error { return nil }
