// Package match selects the stored session with the largest interest
// overlap against a target session.
package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kindredlab/kindred/backend/internal/store"
)

// ErrNoMatch means the store held no document other than the target's own;
// matching simply has no candidate. Callers render it as a "no peers yet"
// message, never as a fault.
var ErrNoMatch = errors.New("no candidate session to match against")

// Result is the winning peer and the interests it shares with the target.
type Result struct {
	Username string   `json:"username"`
	Common   []string `json:"commonInterests"`
}

// Matcher runs the naive full-scan match. No index is kept: the store stays
// small and matching only happens at conversation end.
type Matcher struct {
	store store.Store
}

// NewMatcher builds a matcher over the document store.
func NewMatcher(st store.Store) *Matcher {
	return &Matcher{store: st}
}

// BestMatch scans every stored document, skips the target's own, and keeps
// the document with the largest interest intersection.
//
// Tie-break is last-max-wins: a candidate whose intersection size equals the
// current best REPLACES it, so among equally good candidates the one listed
// last is returned. Downstream behavior depends on this exact rule; do not
// "fix" it to first-max-wins.
//
// A candidate with zero overlap still counts: any peer beats no peer.
func (m *Matcher) BestMatch(ctx context.Context, targetID string, targetInterests []string) (Result, error) {
	entries, err := m.store.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list sessions: %w", err)
	}

	targetSet := make(map[string]struct{}, len(targetInterests))
	for _, label := range targetInterests {
		targetSet[label] = struct{}{}
	}

	var best *store.Entry
	bestSize := -1
	for i := range entries {
		entry := &entries[i]
		if entry.ID == targetID {
			continue
		}
		if size := intersectionSize(entry.Document.Interests, targetSet); size >= bestSize {
			best = entry
			bestSize = size
		}
	}

	if best == nil {
		return Result{}, ErrNoMatch
	}

	return Result{
		Username: best.Document.Username,
		Common:   intersect(best.Document.Interests, targetSet),
	}, nil
}

// Message renders the human-readable match line.
func (r Result) Message() string {
	if len(r.Common) == 0 {
		return fmt.Sprintf("I found %s for you to meet, though you two haven't shown any shared interests yet. Opposites attract!", r.Username)
	}
	return fmt.Sprintf("You have a lot in common with %s! You both enjoy: %s.", r.Username, strings.Join(r.Common, ", "))
}

// intersect keeps the candidate's ordering for the shared labels.
func intersect(candidate []string, target map[string]struct{}) []string {
	common := make([]string, 0, len(candidate))
	for _, label := range candidate {
		if _, ok := target[label]; ok {
			common = append(common, label)
		}
	}
	return common
}

func intersectionSize(candidate []string, target map[string]struct{}) int {
	count := 0
	for _, label := range candidate {
		if _, ok := target[label]; ok {
			count++
		}
	}
	return count
}
