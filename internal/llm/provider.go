package llm

import "context"

// Turn is one role-tagged message handed to a completion provider.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Provider defines the interface all completion providers implement.
// Complete is single-shot; no streaming.
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the model used when none is configured
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete generates one assistant turn from a system instruction and
	// the conversation so far.
	Complete(ctx context.Context, systemInstruction string, turns []Turn) (string, error)
}
