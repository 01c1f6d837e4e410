// Package tone classifies the emotional tone of a turn and folds the result
// into the outgoing conversation context.
package tone

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/kindredlab/kindred/backend/internal/analysis/tone"
	model "github.com/kindredlab/kindred/backend/internal/model/dialogue"
)

// Context keys written by MergeIntoContext.
const (
	CtxUserTone    = "user_tone"
	CtxToneHistory = "tone_history"
)

// Tone history is bounded so the context document cannot grow without limit.
const historyCap = 10

// Config controls the tone service behavior.
type Config struct {
	Enabled bool
	// KeepHistory appends each detected tone to a bounded history list in
	// the context instead of only tracking the latest.
	KeepHistory bool
}

// Result is one classification outcome.
type Result struct {
	Tone       analysis.Label `json:"tone"`
	Confidence float32        `json:"confidence"`
}

// Service classifies tone with a chat model when enabled and falls back to
// the keyword analyzer otherwise. Classification is advisory: it never
// blocks or fails a turn.
type Service struct {
	enabled     bool
	classifier  compose.Runnable[map[string]any, *schema.Message]
	fallback    func(string) analysis.Decision
	keepHistory bool
}

// NewService creates the tone service. chatModel may reuse the dialogue
// model instance and may be nil.
func NewService(ctx context.Context, chatModel einomodel.ChatModel, cfg Config) (*Service, error) {
	svc := &Service{
		enabled:     cfg.Enabled && chatModel != nil,
		fallback:    analysis.Analyze,
		keepHistory: cfg.KeepHistory,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(toneSystemPrompt),
		schema.UserMessage(toneUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tone classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the model-backed classifier is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Classify detects the tone of the turn's utterance.
func (s *Service) Classify(ctx context.Context, turn model.Turn) (Result, error) {
	text := strings.TrimSpace(turn.Input.Text)
	if !s.Enabled() {
		return s.fallbackResult(text), nil
	}

	msg, err := s.classifier.Invoke(ctx, map[string]any{"utterance": text})
	if err != nil {
		log.Printf("[tone] classifier invoke failed, using fallback: %v", err)
		return s.fallbackResult(text), nil
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallbackResult(text), nil
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[tone] classifier output parse failed, using fallback: %v", err)
		return s.fallbackResult(text), nil
	}

	label, ok := parseToneLabel(payload.Tone)
	if !ok {
		return s.fallbackResult(text), nil
	}

	confidence := payload.Confidence
	if confidence <= 0 {
		confidence = 0.6
	}
	if confidence > 1 {
		confidence = 1
	}
	return Result{Tone: label, Confidence: confidence}, nil
}

// MergeIntoContext writes the detected tone into the turn's context before
// the payload goes to the dialogue engine.
func (s *Service) MergeIntoContext(turn *model.Turn, result Result, keepHistory bool) {
	if turn.Context == nil {
		turn.Context = make(map[string]any)
	}
	turn.Context[CtxUserTone] = string(result.Tone)

	if !keepHistory {
		return
	}

	history, _ := turn.Context[CtxToneHistory].([]string)
	// Redecoded contexts come back as []any.
	if raw, ok := turn.Context[CtxToneHistory].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				history = append(history, s)
			}
		}
	}
	history = append(history, string(result.Tone))
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}
	turn.Context[CtxToneHistory] = history
}

// KeepHistory exposes the configured history behavior to the orchestrator.
func (s *Service) KeepHistory() bool {
	return s != nil && s.keepHistory
}

func (s *Service) fallbackResult(text string) Result {
	decision := s.fallback(text)
	confidence := float32(0.3)
	if decision.Score > 0 {
		confidence = 0.55
	}
	return Result{Tone: decision.Tone, Confidence: confidence}
}

type classifierPayload struct {
	Tone       string  `json:"tone"`
	Confidence float32 `json:"confidence"`
}

func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func parseToneLabel(raw string) (analysis.Label, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "neutral":
		return analysis.Neutral, true
	case "joy":
		return analysis.Joy, true
	case "sadness":
		return analysis.Sadness, true
	case "anger":
		return analysis.Anger, true
	case "fear":
		return analysis.Fear, true
	case "analytical":
		return analysis.Analytical, true
	case "confident":
		return analysis.Confident, true
	case "tentative":
		return analysis.Tentative, true
	default:
		return "", false
	}
}

const toneSystemPrompt = "You are an emotional tone analyst. Read the user's utterance and classify its dominant tone.\nOutput requirements: return ONLY a JSON object with fields: tone (one of neutral/joy/sadness/anger/fear/analytical/confident/tentative) and confidence (a number between 0 and 1). No extra text."

const toneUserPrompt = "Utterance:\n{utterance}\n\nReturn the JSON object."
