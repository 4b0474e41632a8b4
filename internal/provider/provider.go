// Package provider wraps the remote chat-completion API behind a small
// interface so agent loops and tests can swap models.
package provider

import "context"

// Message is one turn in a conversation. Content is either a plain string
// or, for multimodal requests, a slice of content parts.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Request carries per-call knobs for one completion.
type Request struct {
	Messages            []Message
	Temperature         float64
	MaxCompletionTokens int
	JSONMode            bool
	ReasoningEffort     string
}

// Model is a remote large-language-model completion client.
type Model interface {
	// ID returns the model identifier this client is bound to.
	ID() string
	// Complete runs one chat completion and returns the assistant content.
	Complete(ctx context.Context, req Request) (string, error)
}

// Role conversions applied before sending: the completion API only accepts
// its own role vocabulary.
var roleConversions = map[string]string{
	"tool-call":     "assistant",
	"tool-response": "user",
}

func convertRole(role string) string {
	if r, ok := roleConversions[role]; ok {
		return r
	}
	return role
}

// ImagePart builds a multimodal image content part from a data URL or
// http(s) URL, for models with vision input.
func ImagePart(url string) map[string]any {
	return map[string]any{"type": "image_url", "image_url": map[string]any{"url": url}}
}

// TextPart builds a multimodal text content part.
func TextPart(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}
