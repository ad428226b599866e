// Package store provides the document sinks that receive form submissions.
// A sink accepts one operation, Insert, and never reads, updates or deletes.
package store

import (
	"context"
	"path/filepath"

	"github.com/elevatebox/elevatebox/internal/config"
)

// Document is a single record written to a collection.
type Document map[string]any

// Sink is the interface for document stores.
type Sink interface {
	// Name returns the sink type, e.g. "sqlite"
	Name() string

	// Insert writes doc to collection and returns the id assigned to it.
	// A failure is terminal for that attempt; sinks do not retry.
	Insert(ctx context.Context, collection string, doc Document) (string, error)

	// Close releases any resources held by the sink
	Close() error
}

// Open creates the sink described by cfg. Relative paths are resolved
// against siteDir.
func Open(cfg config.SinkConfig, siteDir string) (Sink, error) {
	switch cfg.GetType() {
	case "memory":
		return NewMemorySink(), nil
	case "sqlite":
		path := cfg.DB
		if path == "" {
			path = "elevatebox.db"
		}
		return NewSQLiteSink(resolve(siteDir, path))
	case "postgres":
		return NewPostgresSink(cfg.GetDSN())
	case "file":
		dir := cfg.Dir
		if dir == "" {
			dir = "submissions"
		}
		return NewFileSink(resolve(siteDir, dir))
	case "rest":
		return NewRESTSink(cfg.URL, cfg.GetHeaders(), cfg.GetTimeout())
	default:
		return nil, &UnsupportedSinkError{Type: cfg.Type}
	}
}

func resolve(siteDir, path string) string {
	if filepath.IsAbs(path) || siteDir == "" {
		return path
	}
	return filepath.Join(siteDir, path)
}
