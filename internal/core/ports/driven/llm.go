package driven

import (
	"context"
	"encoding/json"
)

// LLMService is the generative text service used to curate history and
// write rounds. It is optional: when nil, rounds are synthesised locally.
//
// Implementations include:
//   - OpenAI-compatible APIs (OpenAI, OpenRouter)
//   - Anthropic
//   - Ollama (local models)
type LLMService interface {
	// Chat sends a conversation and returns the assistant's reply text.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the default model.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures a single Chat call.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// Model overrides the service's default model for this call.
	Model string

	// Format requests machine-readable output. Nil means free text.
	Format *ResponseFormat
}

// Response format types.
const (
	ResponseFormatJSONSchema = "json_schema"
	ResponseFormatJSONObject = "json_object"
)

// ResponseFormat asks the service for JSON output, optionally constrained
// by a JSON schema. Adapters that cannot enforce it natively should still
// instruct the model to return JSON.
type ResponseFormat struct {
	// Type is ResponseFormatJSONSchema or ResponseFormatJSONObject.
	Type string

	// Name labels the schema for providers that require one.
	Name string

	// Schema is the JSON schema document for ResponseFormatJSONSchema.
	Schema json.RawMessage

	// Strict asks providers with a strict schema mode to enforce it. Only
	// set it for schemas that mark every property required and avoid oneOf.
	Strict bool
}
