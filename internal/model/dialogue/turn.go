package dialogue

// Context keys the engine and the surrounding services agree on.
const (
	CtxUsername = "username"
	CtxStage    = "stage"
)

// Input is the user side of a turn.
type Input struct {
	Text string `json:"text"`
}

// Turn is one request into the dialogue engine. Context travels with the
// conversation and is echoed back (possibly mutated) on every reply.
type Turn struct {
	SessionID string         `json:"sessionId"`
	Input     Input          `json:"input"`
	Context   map[string]any `json:"context"`
}

// Output is what the engine wants said back to the user. End marks the
// explicit end-of-conversation signal.
type Output struct {
	Text string `json:"text"`
	End  bool   `json:"end,omitempty"`
}

// Reply bundles the engine output with the updated conversation context.
type Reply struct {
	Output  Output         `json:"output"`
	Context map[string]any `json:"context"`
}

// Username returns the display name the engine has resolved so far, or "".
func (t Turn) Username() string {
	return contextString(t.Context, CtxUsername)
}

// Username returns the display name carried in the reply context, or "".
func (r Reply) Username() string {
	return contextString(r.Context, CtxUsername)
}

func contextString(ctx map[string]any, key string) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx[key].(string); ok {
		return val
	}
	return ""
}
