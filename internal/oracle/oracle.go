// Package oracle defines the text-generation oracle interface and its
// implementations. The oracle is an opaque request/response function; the
// planner tolerates malformed output and degrades through its fallback
// chain rather than treating oracle failure as fatal.
package oracle

import "context"

// Mode selects the oracle configuration to use.
type Mode string

const (
	// ModeDeep favors quality: the slower, more capable model.
	ModeDeep Mode = "deep"
	// ModeFast favors latency: the cheaper model.
	ModeFast Mode = "fast"
)

// Request is one oracle call.
type Request struct {
	Prompt         string
	Mode           Mode
	SystemPrompt   string
	ResponseFormat string // "json" to request structured output
	SchemaHint     string // appended to the prompt to steer structure
}

// Provider generates raw text from a request.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}
