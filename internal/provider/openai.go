package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cultrix/deepresearch/internal/errs"
	"github.com/cultrix/deepresearch/internal/httpx"
)

// OpenAI is a chat-completions client for any OpenAI-compatible endpoint.
type OpenAI struct {
	baseURL string
	apiKey  string
	model   string
	client  *httpx.Client
}

type Option func(*OpenAI)

func WithBaseURL(u string) Option {
	return func(c *OpenAI) { c.baseURL = strings.TrimRight(u, "/") }
}

func NewOpenAI(apiKey, model string, timeout time.Duration, retries int, opts ...Option) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &errs.ConfigurationError{Reason: "OPENAI_API_KEY not set"}
	}
	c := &OpenAI{
		baseURL: "https://api.openai.com/v1",
		apiKey:  apiKey,
		model:   model,
		client:  httpx.New(timeout, retries, 500*time.Millisecond),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *OpenAI) ID() string { return c.model }

type wireMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]wireMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, wireMessage{Role: convertRole(m.Role), Content: m.Content})
	}
	payload := map[string]any{
		"model":    c.model,
		"messages": msgs,
	}
	if req.MaxCompletionTokens > 0 {
		payload["max_completion_tokens"] = req.MaxCompletionTokens
	}
	if req.ReasoningEffort != "" {
		payload["reasoning_effort"] = req.ReasoningEffort
	} else {
		payload["temperature"] = req.Temperature
	}
	if req.JSONMode {
		payload["response_format"] = map[string]any{"type": "json_object"}
	}

	var resp completionResponse
	err := c.client.DoJSON(ctx, "POST", c.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, payload, &resp)
	if err != nil {
		return "", &errs.ModelError{Model: c.model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &errs.ModelError{Model: c.model, Err: errors.New("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

// IsReasoningModel reports whether the identifier names a reasoning-capable
// model that takes a reasoning_effort parameter instead of a temperature.
func IsReasoningModel(id string) bool {
	return strings.HasPrefix(id, "o1") || strings.HasPrefix(id, "o3") || strings.HasPrefix(id, "o4")
}
