package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
)

// Ensure ThrottledLLM implements the interface.
var _ driven.LLMService = (*ThrottledLLM)(nil)

// throttleBurst lets a curator call and its rounds call go out back to back.
const throttleBurst = 2

// ThrottledLLM limits the rate of Chat calls to an underlying service.
// Ping is not throttled.
type ThrottledLLM struct {
	next    driven.LLMService
	limiter *rate.Limiter
}

// NewThrottledLLM wraps next with a token bucket of rps requests per second.
func NewThrottledLLM(next driven.LLMService, rps float64) *ThrottledLLM {
	return &ThrottledLLM{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), throttleBurst),
	}
}

// Chat waits for a token, then delegates.
func (t *ThrottledLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.Chat(ctx, messages, opts)
}

// ModelName returns the wrapped service's model.
func (t *ThrottledLLM) ModelName() string {
	return t.next.ModelName()
}

// Ping delegates without waiting.
func (t *ThrottledLLM) Ping(ctx context.Context) error {
	return t.next.Ping(ctx)
}

// Close closes the wrapped service.
func (t *ThrottledLLM) Close() error {
	return t.next.Close()
}
