package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/acctree/internal/index"
)

// Backend names accepted by Open.
const (
	BackendText   = "text"
	BackendSQLite = "sqlite"
)

// Backend loads and saves the flat tuple stream.
type Backend interface {
	Load(ctx context.Context) ([]index.Tuple, error)
	Save(ctx context.Context, tuples []index.Tuple) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	Path    string
	Logger  *slog.Logger
}

// Open returns the backend named by opts.Backend.
func Open(opts Options) (Backend, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	switch opts.Backend {
	case BackendText, "":
		return NewTextFile(opts.Path, opts.Logger), nil
	case BackendSQLite:
		return OpenSQLite(opts.Path, opts.Logger)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", opts.Backend)
	}
}

// IOError is a failed open, read, or write of the persistence target.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FormatError is malformed text input.
type FormatError struct {
	Line    int
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}
