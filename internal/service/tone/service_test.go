package tone

import (
	"context"
	"testing"

	analysis "github.com/kindredlab/kindred/backend/internal/analysis/tone"
	model "github.com/kindredlab/kindred/backend/internal/model/dialogue"
)

func newFallbackService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), nil, Config{Enabled: true})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	if svc.Enabled() {
		t.Fatal("service must fall back when no model is configured")
	}
	return svc
}

func TestClassifyFallsBackToHeuristics(t *testing.T) {
	svc := newFallbackService(t)

	result, err := svc.Classify(context.Background(), model.Turn{Input: model.Input{Text: "I feel so lonely and sad"}})
	if err != nil {
		t.Fatalf("Classify err: %v", err)
	}
	if result.Tone != analysis.Sadness {
		t.Fatalf("expected sadness, got %s", result.Tone)
	}
}

func TestMergeIntoContextSetsUserTone(t *testing.T) {
	svc := newFallbackService(t)
	turn := model.Turn{Input: model.Input{Text: "hello"}}

	svc.MergeIntoContext(&turn, Result{Tone: analysis.Joy}, false)

	if turn.Context[CtxUserTone] != "joy" {
		t.Fatalf("expected user_tone=joy, got %v", turn.Context[CtxUserTone])
	}
	if _, ok := turn.Context[CtxToneHistory]; ok {
		t.Fatal("history must not be written when keepHistory is false")
	}
}

func TestMergeIntoContextAppendsHistory(t *testing.T) {
	svc := newFallbackService(t)
	turn := model.Turn{Context: map[string]any{}}

	svc.MergeIntoContext(&turn, Result{Tone: analysis.Joy}, true)
	svc.MergeIntoContext(&turn, Result{Tone: analysis.Sadness}, true)

	history, ok := turn.Context[CtxToneHistory].([]string)
	if !ok {
		t.Fatalf("expected []string history, got %T", turn.Context[CtxToneHistory])
	}
	if len(history) != 2 || history[0] != "joy" || history[1] != "sadness" {
		t.Fatalf("unexpected history: %v", history)
	}
}

func TestMergeIntoContextHistoryIsBounded(t *testing.T) {
	svc := newFallbackService(t)
	turn := model.Turn{Context: map[string]any{}}

	for i := 0; i < historyCap+5; i++ {
		svc.MergeIntoContext(&turn, Result{Tone: analysis.Neutral}, true)
	}

	history := turn.Context[CtxToneHistory].([]string)
	if len(history) != historyCap {
		t.Fatalf("expected history capped at %d, got %d", historyCap, len(history))
	}
}

func TestMergeIntoContextHandlesRedecodedHistory(t *testing.T) {
	svc := newFallbackService(t)
	// A context that round-tripped through JSON carries []any.
	turn := model.Turn{Context: map[string]any{CtxToneHistory: []any{"joy"}}}

	svc.MergeIntoContext(&turn, Result{Tone: analysis.Anger}, true)

	history := turn.Context[CtxToneHistory].([]string)
	if len(history) != 2 || history[0] != "joy" || history[1] != "anger" {
		t.Fatalf("unexpected history: %v", history)
	}
}

func TestParseToneLabel(t *testing.T) {
	if label, ok := parseToneLabel(" Joy "); !ok || label != analysis.Joy {
		t.Fatalf("expected joy, got %s ok=%v", label, ok)
	}
	if _, ok := parseToneLabel("grumpy"); ok {
		t.Fatal("unknown label must not parse")
	}
}
