// Package dialogue hosts the turn-based dialogue engine: a chat-model chain
// when one is configured, and a scripted flow otherwise.
package dialogue

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

	model "github.com/kindredlab/kindred/backend/internal/model/dialogue"
)

// Config controls the dialogue service.
type Config struct {
	Enabled bool
}

// Service answers turns with the chat model when enabled, falling back to
// the scripted flow when the model is unavailable or misbehaves.
type Service struct {
	enabled  bool
	chain    compose.Runnable[map[string]any, *schema.Message]
	fallback *Scripted
}

// NewService compiles the dialogue chain. chatModel may be nil, in which
// case only the scripted fallback runs.
func NewService(ctx context.Context, chatModel einomodel.ChatModel, cfg Config) (*Service, error) {
	svc := &Service{
		enabled:  cfg.Enabled && chatModel != nil,
		fallback: NewScripted(),
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(dialogueSystemPrompt),
		schema.UserMessage(dialogueUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile dialogue chain: %w", err)
	}

	svc.chain = runnable
	return svc, nil
}

// Enabled reports whether the model-backed path is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.chain != nil
}

// Send runs one conversation turn.
func (s *Service) Send(ctx context.Context, turn model.Turn) (model.Reply, error) {
	if !s.Enabled() {
		return s.fallback.Send(ctx, turn)
	}

	contextJSON, err := json.Marshal(turn.Context)
	if err != nil {
		contextJSON = []byte("{}")
	}

	input := map[string]any{
		"context": string(contextJSON),
		"query":   strings.TrimSpace(turn.Input.Text),
	}

	msg, err := s.chain.Invoke(ctx, input)
	if err != nil {
		log.Printf("[dialogue] chain invoke failed, using scripted fallback: %v", err)
		return s.fallback.Send(ctx, turn)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallback.Send(ctx, turn)
	}

	return buildReply(turn, msg.Content), nil
}

// buildReply folds the model output into the conversation context. A reply
// that fails to parse as the expected JSON object is treated as plain
// dialogue text rather than an error.
func buildReply(turn model.Turn, content string) model.Reply {
	ctx := copyContext(turn.Context)

	payload, err := parseEngineOutput(content)
	if err != nil {
		return model.Reply{Output: model.Output{Text: strings.TrimSpace(content)}, Context: ctx}
	}

	if name := strings.TrimSpace(payload.Username); name != "" {
		ctx[model.CtxUsername] = name
	}
	return model.Reply{
		Output:  model.Output{Text: strings.TrimSpace(payload.Text), End: payload.End},
		Context: ctx,
	}
}

type enginePayload struct {
	Text     string `json:"text"`
	End      bool   `json:"end"`
	Username string `json:"username"`
}

func parseEngineOutput(content string) (*enginePayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &enginePayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	if payload.Text == "" {
		return nil, fmt.Errorf("missing text field")
	}
	return payload, nil
}

const dialogueSystemPrompt = "You are a warm, curious conversation host whose goal is to get to know the user: their name and the things they enjoy. Ask one question at a time. Early on, learn the user's name. When the user says goodbye or clearly wants to stop, end the conversation.\nOutput requirements: return ONLY a JSON object with fields: text (what you say next), end (boolean, true only when the conversation should conclude), username (the user's name once known, else empty string). No extra text outside the JSON."

const dialogueUserPrompt = "Conversation context so far (JSON):\n{context}\n\nUser says:\n{query}\n\nRespond with the JSON object."
