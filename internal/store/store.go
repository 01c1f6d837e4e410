package store

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kindredlab/kindred/backend/internal/model/session"
)

var (
	// ErrNotFound means no document exists under the requested id.
	ErrNotFound = errors.New("document not found")
	// ErrConflict means the supplied revision no longer matches the stored
	// one; the caller raced another writer and must re-read before retrying.
	ErrConflict = errors.New("document revision conflict")
)

// Entry is one row of a full listing.
type Entry struct {
	ID       string
	Document session.Document
}

// Store is the session document store: keyed documents guarded by opaque
// revision tokens for optimistic concurrency.
type Store interface {
	// Get returns the document and its current revision, or ErrNotFound.
	Get(ctx context.Context, id string) (session.Document, string, error)
	// Put writes the document. An empty rev creates the document and fails
	// with ErrConflict if it already exists; a non-empty rev must match the
	// stored revision or the write is rejected with ErrConflict. Returns the
	// new revision on success.
	Put(ctx context.Context, id string, doc session.Document, rev string) (string, error)
	// List returns every stored document. No pagination: the store is
	// expected to stay small and listing happens only at conversation end.
	List(ctx context.Context) ([]Entry, error)
	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// nextRevision derives the successor token for a stored revision. Tokens are
// "<generation>-<fragment>" so a stale writer can never reproduce the winning
// token by accident.
func nextRevision(current string) string {
	generation := 0
	if idx := strings.IndexByte(current, '-'); idx > 0 {
		if n, err := strconv.Atoi(current[:idx]); err == nil {
			generation = n
		}
	}
	return strconv.Itoa(generation+1) + "-" + uuid.NewString()[:8]
}
