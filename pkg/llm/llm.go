package llm

import (
	"context"
	"net/http"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn. Files holds provider file references attached
// as auxiliary content items; they are only honored on user messages.
type Message struct {
	Role    Role
	Content string
	Files   []string
}

// Request is a chat completion request. Zero Model, MaxTokens or Temperature
// fall back to the provider defaults.
type Request struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
}

// Completion is the model answer with token accounting.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completer generates chat completions.
type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// FileService stores blobs with the provider so completions can reference them.
type FileService interface {
	// Upload stores data and returns an opaque file reference.
	Upload(ctx context.Context, name string, data []byte) (string, error)
	// Validate reports for each reference whether it is still usable.
	Validate(ctx context.Context, ids []string) (map[string]bool, error)
}

// Provider bundles the capabilities of one backend.
type Provider struct {
	Name string
	Completer
	Files FileService
}

// detectContentType sniffs the MIME type for uploads.
func detectContentType(data []byte) string {
	return http.DetectContentType(data)
}

// splitSystem separates the leading system messages from the conversation.
func splitSystem(msgs []Message) (system []string, rest []Message) {
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
