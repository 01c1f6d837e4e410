// Package insights infers a trait profile from accumulated transcript
// samples, refusing when the transcript is too thin to score.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/kindredlab/kindred/backend/internal/analysis/traits"
	model "github.com/kindredlab/kindred/backend/internal/model/insights"
)

// ErrNotEnoughData means the samples do not carry enough text for a
// meaningful profile. Recoverable: the caller prompts for more conversation.
var ErrNotEnoughData = errors.New("not enough text to infer traits")

// DefaultMinWords mirrors the word floor the upstream personality service
// enforced before it would score a profile.
const DefaultMinWords = 120

// Config controls the trait-inference service.
type Config struct {
	Enabled  bool
	MinWords int
}

// Service scores content items into a trait profile: chat model when
// enabled, keyword heuristics otherwise.
type Service struct {
	enabled  bool
	chain    compose.Runnable[map[string]any, *schema.Message]
	minWords int
}

// NewService compiles the inference chain. chatModel may be nil.
func NewService(ctx context.Context, chatModel einomodel.ChatModel, cfg Config) (*Service, error) {
	minWords := cfg.MinWords
	if minWords <= 0 {
		minWords = DefaultMinWords
	}

	svc := &Service{
		enabled:  cfg.Enabled && chatModel != nil,
		minWords: minWords,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(insightsSystemPrompt),
		schema.UserMessage(insightsUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile insights chain: %w", err)
	}

	svc.chain = runnable
	return svc, nil
}

// Enabled reports whether the model-backed path is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.chain != nil
}

// Infer scores the content items into a profile. Returns ErrNotEnoughData
// when the combined samples fall below the word floor.
func (s *Service) Infer(ctx context.Context, items []model.ContentItem) (model.Profile, error) {
	samples := make([]string, 0, len(items))
	words := 0
	for _, item := range items {
		content := strings.TrimSpace(item.Content)
		if content == "" {
			continue
		}
		samples = append(samples, content)
		words += len(strings.Fields(content))
	}

	if words < s.minWords {
		return model.Profile{}, fmt.Errorf("%w: %d words, need %d", ErrNotEnoughData, words, s.minWords)
	}

	if !s.Enabled() {
		return traits.Analyze(samples), nil
	}

	msg, err := s.chain.Invoke(ctx, map[string]any{
		"transcript": strings.Join(samples, "\n"),
	})
	if err != nil {
		log.Printf("[insights] chain invoke failed, using heuristic scoring: %v", err)
		return traits.Analyze(samples), nil
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return traits.Analyze(samples), nil
	}

	profile, err := parseProfileOutput(msg.Content)
	if err != nil {
		log.Printf("[insights] profile parse failed, using heuristic scoring: %v", err)
		return traits.Analyze(samples), nil
	}
	return profile, nil
}

func parseProfileOutput(content string) (model.Profile, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return model.Profile{}, fmt.Errorf("missing json object")
	}

	var profile model.Profile
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &profile); err != nil {
		return model.Profile{}, err
	}
	if profile.Empty() {
		return model.Profile{}, fmt.Errorf("profile carries no scores")
	}
	return profile, nil
}

const insightsSystemPrompt = "You are a personality analyst. Read the transcript of things one person said and score their traits.\nOutput requirements: return ONLY a JSON object with fields personality, needs and values, each an array of {\"name\": string, \"percentile\": number between 0 and 1}. Score only traits and interests the text actually supports. No extra text."

const insightsUserPrompt = "Transcript:\n{transcript}\n\nReturn the JSON object."
