package insights

import (
	"context"
	"errors"
	"strings"
	"testing"

	model "github.com/kindredlab/kindred/backend/internal/model/insights"
)

func newHeuristicService(t *testing.T, minWords int) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), nil, Config{MinWords: minWords})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	return svc
}

func TestInferRefusesThinTranscript(t *testing.T) {
	svc := newHeuristicService(t, 0)

	_, err := svc.Infer(context.Background(), []model.ContentItem{
		{ID: "s-0", Content: "I like hiking"},
	})
	if !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
}

func TestInferRefusesEmptyItems(t *testing.T) {
	svc := newHeuristicService(t, 1)

	_, err := svc.Infer(context.Background(), nil)
	if !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
}

func TestInferHeuristicScoring(t *testing.T) {
	svc := newHeuristicService(t, 5)

	profile, err := svc.Infer(context.Background(), []model.ContentItem{
		{ID: "s-0", Content: "I spend weekends hiking and camping, I really love the outdoor life"},
	})
	if err != nil {
		t.Fatalf("Infer err: %v", err)
	}
	if profile.Empty() {
		t.Fatal("expected a scored profile")
	}

	found := false
	for _, trait := range profile.Personality {
		if trait.Name == "Adventurousness" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Adventurousness, got %+v", profile.Personality)
	}
}

func TestParseProfileOutput(t *testing.T) {
	content := `Here you go:
{"personality":[{"name":"Outdoorsy","percentile":0.8}],"needs":[],"values":[]}`

	profile, err := parseProfileOutput(content)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(profile.Personality) != 1 || profile.Personality[0].Name != "Outdoorsy" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestParseProfileOutputRejectsEmptyProfile(t *testing.T) {
	if _, err := parseProfileOutput(`{"personality":[],"needs":[],"values":[]}`); err == nil {
		t.Fatal("expected error for score-free profile")
	}
}

func TestInferCountsWordsAcrossItems(t *testing.T) {
	svc := newHeuristicService(t, 10)

	items := []model.ContentItem{
		{ID: "s-0", Content: strings.Repeat("hiking trails ", 3)},
		{ID: "s-1", Content: strings.Repeat("camping food ", 3)},
	}
	if _, err := svc.Infer(context.Background(), items); err != nil {
		t.Fatalf("expected enough words across items, got %v", err)
	}
}
