// Package conversation orchestrates one turn of one session: record the
// transcript while the dialogue continues, and at conversation end run trait
// inference, merge the insights, and match the user against stored peers.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kindredlab/kindred/backend/internal/analysis/interest"
	dialoguemodel "github.com/kindredlab/kindred/backend/internal/model/dialogue"
	insightsmodel "github.com/kindredlab/kindred/backend/internal/model/insights"
	sessionmodel "github.com/kindredlab/kindred/backend/internal/model/session"
	"github.com/kindredlab/kindred/backend/internal/observability"
	"github.com/kindredlab/kindred/backend/internal/service/insights"
	"github.com/kindredlab/kindred/backend/internal/service/match"
	sessionsvc "github.com/kindredlab/kindred/backend/internal/service/session"
	"github.com/kindredlab/kindred/backend/internal/service/tone"
	"github.com/kindredlab/kindred/backend/internal/store"
)

// Engine is the dialogue engine contract.
type Engine interface {
	Send(ctx context.Context, turn dialoguemodel.Turn) (dialoguemodel.Reply, error)
}

// ToneClassifier detects a turn's emotional tone and folds it into the
// outgoing context.
type ToneClassifier interface {
	Classify(ctx context.Context, turn dialoguemodel.Turn) (tone.Result, error)
	MergeIntoContext(turn *dialoguemodel.Turn, result tone.Result, keepHistory bool)
	KeepHistory() bool
}

// TraitInferrer scores transcript samples into a trait profile.
type TraitInferrer interface {
	Infer(ctx context.Context, items []insightsmodel.ContentItem) (insightsmodel.Profile, error)
}

// Result is the response payload for one processed turn.
type Result struct {
	SessionID string               `json:"sessionId"`
	Output    dialoguemodel.Output `json:"output"`
	Context   map[string]any       `json:"context,omitempty"`
	Tone      *tone.Result         `json:"tone,omitempty"`
	Match     *match.Result        `json:"match,omitempty"`
}

// User-facing lines for the terminal branches.
const (
	msgNotEnoughData = "I don't know you well enough yet to find your kindred spirits. Let's chat a bit more first!"
	msgNoPeers       = "You're the first one here, so there's nobody to match you with yet. Check back soon!"
)

// Orchestrator drives the per-turn state machine.
type Orchestrator struct {
	engine   Engine
	tones    ToneClassifier
	inferrer TraitInferrer
	sessions *sessionsvc.Service
	matcher  *match.Matcher
	store    store.Store
}

// NewOrchestrator wires the turn pipeline. tones may be nil when tone
// detection is not configured.
func NewOrchestrator(engine Engine, tones ToneClassifier, inferrer TraitInferrer, sessions *sessionsvc.Service, matcher *match.Matcher, st store.Store) *Orchestrator {
	return &Orchestrator{
		engine:   engine,
		tones:    tones,
		inferrer: inferrer,
		sessions: sessions,
		matcher:  matcher,
		store:    st,
	}
}

// HandleTurn processes one turn. The underlying content flow:
// tone classification mutates the outgoing context, the dialogue engine
// answers, and then either the transcript is recorded (conversation
// continuing) or the end-of-conversation pipeline runs: read transcript,
// infer traits, merge interests, match peers. Every failure past the engine
// call degrades to a response payload rather than an error.
func (o *Orchestrator) HandleTurn(ctx context.Context, turn dialoguemodel.Turn) (Result, error) {
	started := time.Now()

	if turn.SessionID == "" {
		return Result{}, errors.New("session id is required")
	}

	var toneResult *tone.Result
	if o.tones != nil {
		result, err := o.tones.Classify(ctx, turn)
		if err != nil {
			log.Printf("[orchestrator] tone classification failed for session=%s: %v", turn.SessionID, err)
		} else {
			o.tones.MergeIntoContext(&turn, result, o.tones.KeepHistory())
			toneResult = &result
		}
	}

	reply, err := o.engine.Send(ctx, turn)
	if err != nil {
		observability.RecordTurn(observability.OutcomeError, time.Since(started))
		return Result{}, fmt.Errorf("dialogue engine: %w", err)
	}

	if !reply.Output.End {
		o.recordTranscript(ctx, turn, reply)
		observability.RecordTurn(observability.OutcomeContinued, time.Since(started))
		return Result{
			SessionID: turn.SessionID,
			Output:    reply.Output,
			Context:   reply.Context,
			Tone:      toneResult,
		}, nil
	}

	result, outcome := o.conclude(ctx, turn.SessionID, reply)
	result.Tone = toneResult
	observability.RecordTurn(outcome, time.Since(started))
	return result, nil
}

// recordTranscript persists the user's utterance once a username is bound.
// Best effort: a failed write is logged and the turn still answers.
func (o *Orchestrator) recordTranscript(ctx context.Context, turn dialoguemodel.Turn, reply dialoguemodel.Reply) {
	username := reply.Username()
	if username == "" || strings.TrimSpace(turn.Input.Text) == "" {
		return
	}
	if _, _, err := o.sessions.RecordTurn(ctx, turn.SessionID, turn.Input.Text, username); err != nil {
		log.Printf("[orchestrator] transcript write failed for session=%s: %v", turn.SessionID, err)
	}
}

// conclude runs the end-of-conversation pipeline and always produces a
// response payload. Ordering is fixed: read before write, inference before
// merge, merge before match.
func (o *Orchestrator) conclude(ctx context.Context, id string, reply dialoguemodel.Reply) (Result, string) {
	out := Result{
		SessionID: id,
		Output:    dialoguemodel.Output{Text: msgNotEnoughData, End: true},
		Context:   reply.Context,
	}

	doc, _, err := o.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[orchestrator] session read failed for session=%s: %v", id, err)
		}
		return out, observability.OutcomeNotEnoughData
	}

	profile, err := o.inferrer.Infer(ctx, contentItems(id, doc.Texts))
	if err != nil {
		if !errors.Is(err, insights.ErrNotEnoughData) {
			log.Printf("[orchestrator] trait inference failed for session=%s: %v", id, err)
		}
		if len(doc.Interests) == 0 {
			return out, observability.OutcomeNotEnoughData
		}
		// Fall back to matching on what previous conversations accumulated.
		return o.renderMatch(ctx, out, id, doc.Interests)
	}

	username := reply.Username()
	if username == "" {
		username = doc.Username
	}

	merged, _, err := o.sessions.MergeInsights(ctx, id, username, interest.Extract(profile))
	if err != nil {
		log.Printf("[orchestrator] insight merge failed for session=%s: %v", id, err)
		return out, observability.OutcomeNotEnoughData
	}

	return o.renderMatch(ctx, out, id, merged.Interests)
}

func (o *Orchestrator) renderMatch(ctx context.Context, out Result, id string, interests []string) (Result, string) {
	result, err := o.matcher.BestMatch(ctx, id, interests)
	if err != nil {
		if errors.Is(err, match.ErrNoMatch) {
			out.Output.Text = msgNoPeers
			return out, observability.OutcomeNoMatch
		}
		log.Printf("[orchestrator] peer matching failed for session=%s: %v", id, err)
		return out, observability.OutcomeNotEnoughData
	}

	out.Match = &result
	out.Output.Text = result.Message()
	observability.RecordMatch()
	return out, observability.OutcomeMatched
}

// contentItems turns the stored transcript into inference samples, one item
// per transcript line tagged with its stored timestamp.
func contentItems(id string, texts []sessionmodel.TextSample) []insightsmodel.ContentItem {
	items := make([]insightsmodel.ContentItem, 0, len(texts))
	for i, sample := range texts {
		var created int64
		if ts, err := time.Parse(time.RFC3339, sample.CreatedAt); err == nil {
			created = ts.UnixMilli()
		}
		items = append(items, insightsmodel.ContentItem{
			ID:          fmt.Sprintf("%s-%d", id, i),
			Language:    "en",
			ContentType: "text/plain",
			Content:     sample.Text,
			Created:     created,
		})
	}
	return items
}
