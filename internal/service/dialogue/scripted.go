package dialogue

import (
	"context"
	"fmt"
	"strings"

	model "github.com/kindredlab/kindred/backend/internal/model/dialogue"
)

// Scripted is a deterministic getting-to-know-you flow used when no chat
// model is configured. It asks for a name, probes for interests, and
// concludes when the user says goodbye.
type Scripted struct{}

// NewScripted returns the fallback engine.
func NewScripted() *Scripted { return &Scripted{} }

const (
	stageAskName   = "ask-name"
	stageInterests = "interests"
)

var farewells = []string{"bye", "goodbye", "see you", "gotta go", "talk later", "that's all", "i'm done", "im done"}

var followUps = []string{
	"That sounds great. What else do you enjoy doing?",
	"Interesting! Tell me more — what do you get up to on a free weekend?",
	"Nice. Is there something you've always wanted to try?",
	"I see! What kind of things make a good day for you?",
}

// Send advances the scripted flow one turn. It never fails.
func (s *Scripted) Send(_ context.Context, turn model.Turn) (model.Reply, error) {
	ctx := copyContext(turn.Context)
	text := strings.TrimSpace(turn.Input.Text)

	stage, _ := ctx[model.CtxStage].(string)
	switch stage {
	case "":
		ctx[model.CtxStage] = stageAskName
		return model.Reply{
			Output:  model.Output{Text: "Hi there! I'd love to get to know you. What's your name?"},
			Context: ctx,
		}, nil

	case stageAskName:
		name := parseName(text)
		if name == "" {
			return model.Reply{
				Output:  model.Output{Text: "Sorry, I didn't catch that. What should I call you?"},
				Context: ctx,
			}, nil
		}
		ctx[model.CtxUsername] = name
		ctx[model.CtxStage] = stageInterests
		return model.Reply{
			Output:  model.Output{Text: fmt.Sprintf("Nice to meet you, %s! So, what do you like to do for fun?", name)},
			Context: ctx,
		}, nil

	default:
		if isFarewell(text) {
			return model.Reply{
				Output:  model.Output{Text: "It was lovely talking with you! Let me see who you'd get along with...", End: true},
				Context: ctx,
			}, nil
		}
		turns := contextInt(ctx, "turns")
		ctx["turns"] = turns + 1
		return model.Reply{
			Output:  model.Output{Text: followUps[turns%len(followUps)]},
			Context: ctx,
		}, nil
	}
}

func isFarewell(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range farewells {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// parseName pulls a display name out of free-form introductions like
// "my name is Alice" or just "alice".
func parseName(text string) string {
	if text == "" {
		return ""
	}

	candidate := text
	lowered := strings.ToLower(text)
	for _, prefix := range []string{"my name is ", "my name's ", "i'm ", "i am ", "call me ", "it's ", "its "} {
		if idx := strings.Index(lowered, prefix); idx >= 0 {
			candidate = text[idx+len(prefix):]
			break
		}
	}

	fields := strings.FieldsFunc(candidate, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	})
	if len(fields) == 0 {
		return ""
	}

	name := fields[0]
	return strings.ToUpper(name[:1]) + name[1:]
}

// contextInt tolerates the float64 that json decoding leaves behind.
func contextInt(ctx map[string]any, key string) int {
	switch val := ctx[key].(type) {
	case int:
		return val
	case float64:
		return int(val)
	default:
		return 0
	}
}

func copyContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx)+2)
	for k, v := range ctx {
		out[k] = v
	}
	return out
}
