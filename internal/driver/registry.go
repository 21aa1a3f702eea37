package driver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Engine identifies a supported engine driver.
type Engine string

const (
	MySQL      Engine = "mysql"
	PostgreSQL Engine = "postgresql"
)

// Opener constructs a Driver from a connection URL.
type Opener func(ctx context.Context, dsn string) (Driver, error)

var (
	registryMu sync.RWMutex
	registry   = map[Engine]Opener{}
)

// Register adds an opener for engine. Called from each engine package's
// init(), mirroring the teacher's dialect.RegisterDialect pattern.
func Register(engine Engine, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[engine] = open
}

// PreconditionError reports a violated precondition that must be surfaced
// before any write (spec.md §7, kind 5): an unsupported URL scheme, a
// missing required flag, a disallowed directional pair, or a non-empty
// replicate target.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

// ParseEngine inspects a connection URL's scheme and returns the matching
// Engine, rejecting any other scheme before any I/O (spec.md §6).
func ParseEngine(rawURL string) (Engine, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &PreconditionError{Reason: fmt.Sprintf("invalid connection URL %q: %v", rawURL, err)}
	}
	switch strings.ToLower(u.Scheme) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return PostgreSQL, nil
	default:
		return "", &PreconditionError{Reason: fmt.Sprintf("unsupported connection URL scheme %q", u.Scheme)}
	}
}

// Open resolves a connection URL's engine and opens a Driver for it.
func Open(ctx context.Context, rawURL string) (Driver, error) {
	engine, err := ParseEngine(rawURL)
	if err != nil {
		return nil, err
	}

	registryMu.RLock()
	open, ok := registry[engine]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("driver: no driver registered for engine %q", engine)
	}
	return open(ctx, rawURL)
}
