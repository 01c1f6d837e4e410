// Package session owns the read-modify-write cycle for session documents.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	model "github.com/kindredlab/kindred/backend/internal/model/session"
	"github.com/kindredlab/kindred/backend/internal/store"
)

// Service merges incoming turn state into session documents. Every merge is
// a fresh read followed by exactly one write carrying the read revision; a
// conflicting writer surfaces as store.ErrConflict and the caller decides
// whether to re-read and retry.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService builds the merge service on top of a document store.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// WithClock overrides the timestamp source. Tests use this for reproducible
// transcript timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecordTurn appends the user's utterance to the transcript and binds the
// username. Used on every mid-conversation turn once a name is known.
func (s *Service) RecordTurn(ctx context.Context, id, text, username string) (model.Document, string, error) {
	return s.merge(ctx, id, text, username, nil)
}

// MergeInsights folds freshly extracted interests into the document without
// adding a transcript line.
func (s *Service) MergeInsights(ctx context.Context, id, username string, interests []string) (model.Document, string, error) {
	return s.merge(ctx, id, "", username, interests)
}

func (s *Service) merge(ctx context.Context, id, text, username string, interests []string) (model.Document, string, error) {
	existing, rev, err := s.store.Get(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		existing, rev = model.Document{}, ""
	case err != nil:
		return model.Document{}, "", fmt.Errorf("read session %s: %w", id, err)
	}

	// Work on a copy; the stored version stays untouched until the write lands.
	next := existing.Clone()
	if username != "" {
		next.Username = username
	}
	if text != "" {
		next.Texts = append(next.Texts, model.TextSample{
			Text:      text,
			CreatedAt: s.now().UTC().Format(time.RFC3339),
		})
	}
	next.Interests = unionInterests(next.Interests, interests)

	newRev, err := s.store.Put(ctx, id, next, rev)
	if err != nil {
		return model.Document{}, "", err
	}
	return next, newRev, nil
}

// unionInterests keeps existing labels in place and appends unseen incoming
// ones in their own order. True set semantics: a label never repeats no
// matter how many turns resurface it.
func unionInterests(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}

	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := existing
	for _, label := range existing {
		seen[label] = struct{}{}
	}
	for _, label := range incoming {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
