package insight

import (
	"context"
	"strings"
)

// Provider is a hosted LLM that turns a prompt into text.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	// Rotate switches to the next credential, if the provider has more
	// than one. Called when a request is rate limited.
	Rotate(ctx context.Context) error
	Close() error
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota exceeded") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "429")
}
