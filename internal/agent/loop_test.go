package agent

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/cultrix/deepresearch/internal/provider"
)

// scriptedModel returns its replies in order and records every request.
type scriptedModel struct {
	replies  []string
	requests []provider.Request
}

func (m *scriptedModel) ID() string { return "scripted" }

func (m *scriptedModel) Complete(_ context.Context, req provider.Request) (string, error) {
	m.requests = append(m.requests, req)
	if len(m.replies) == 0 {
		return "", fmt.Errorf("script exhausted")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func echoTool(calls *[]map[string]any) ToolDescriptor {
	return ToolDescriptor{
		Name:        "echo",
		Description: "echoes its input",
		Call: func(_ context.Context, args map[string]any) (string, error) {
			if calls != nil {
				*calls = append(*calls, args)
			}
			s, _ := args["text"].(string)
			return "echo: " + s, nil
		},
	}
}

func newTestLoop(t *testing.T, m provider.Model, tools ...ToolDescriptor) *Loop {
	t.Helper()
	tb, err := NewToolbox(tools...)
	if err != nil {
		t.Fatalf("NewToolbox: %v", err)
	}
	return &Loop{
		Name:     "test_agent",
		Model:    m,
		Tools:    tb,
		MaxSteps: 5,
		Logger:   quietLogger(),
	}
}

func TestRunImmediateFinalAnswer(t *testing.T) {
	m := &scriptedModel{replies: []string{`{"thought":"done","final_answer":"42"}`}}
	l := newTestLoop(t, m, echoTool(nil))
	got, err := l.Run(context.Background(), "what is the answer")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "42" {
		t.Fatalf("expected 42, got %q", got)
	}
}

func TestRunToolCallThenAnswer(t *testing.T) {
	var calls []map[string]any
	m := &scriptedModel{replies: []string{
		`{"thought":"use the tool","action":{"tool":"echo","args":{"text":"hello"}}}`,
		`{"final_answer":"hello back"}`,
	}}
	l := newTestLoop(t, m, echoTool(&calls))
	got, err := l.Run(context.Background(), "echo hello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "hello back" {
		t.Fatalf("unexpected answer %q", got)
	}
	if len(calls) != 1 || calls[0]["text"] != "hello" {
		t.Fatalf("tool saw wrong args: %v", calls)
	}
	// The observation must be fed back in the next request.
	last := m.requests[1].Messages
	obs, _ := last[len(last)-1].Content.(string)
	if !strings.Contains(obs, "echo: hello") {
		t.Fatalf("observation not in transcript: %q", obs)
	}
	if last[len(last)-1].Role != "tool-response" {
		t.Fatalf("expected tool-response role, got %s", last[len(last)-1].Role)
	}
}

func TestRunRecoversFromUnknownTool(t *testing.T) {
	m := &scriptedModel{replies: []string{
		`{"action":{"tool":"does_not_exist","args":{}}}`,
		`{"final_answer":"ok"}`,
	}}
	l := newTestLoop(t, m, echoTool(nil))
	got, err := l.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected answer %q", got)
	}
	last := m.requests[1].Messages
	obs, _ := last[len(last)-1].Content.(string)
	if !strings.Contains(obs, "Unknown tool") || !strings.Contains(obs, "echo") {
		t.Fatalf("expected unknown-tool hint listing echo, got %q", obs)
	}
}

func TestRunRecoversFromBadJSON(t *testing.T) {
	m := &scriptedModel{replies: []string{
		"I think the answer is 7",
		`{"final_answer":"7"}`,
	}}
	l := newTestLoop(t, m, echoTool(nil))
	got, err := l.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "7" {
		t.Fatalf("unexpected answer %q", got)
	}
}

func TestRunAcceptsFencedJSON(t *testing.T) {
	m := &scriptedModel{replies: []string{
		"```json\n{\"final_answer\":\"fenced\"}\n```",
	}}
	l := newTestLoop(t, m, echoTool(nil))
	got, err := l.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "fenced" {
		t.Fatalf("unexpected answer %q", got)
	}
}

func TestRunToolErrorBecomesObservation(t *testing.T) {
	failing := ToolDescriptor{
		Name:        "broken",
		Description: "always fails",
		Call: func(context.Context, map[string]any) (string, error) {
			return "", fmt.Errorf("boom")
		},
	}
	m := &scriptedModel{replies: []string{
		`{"action":{"tool":"broken","args":{}}}`,
		`{"final_answer":"gave up"}`,
	}}
	l := newTestLoop(t, m, failing)
	got, err := l.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("tool failure must not abort the run: %v", err)
	}
	if got != "gave up" {
		t.Fatalf("unexpected answer %q", got)
	}
	last := m.requests[1].Messages
	obs, _ := last[len(last)-1].Content.(string)
	if !strings.Contains(obs, "Tool error: boom") {
		t.Fatalf("expected tool error observation, got %q", obs)
	}
}

func TestRunSummaryAppended(t *testing.T) {
	m := &scriptedModel{replies: []string{
		`{"action":{"tool":"echo","args":{"text":"a"}}}`,
		`{"final_answer":"done"}`,
	}}
	l := newTestLoop(t, m, echoTool(nil))
	l.ProvideRunSummary = true
	got, err := l.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(got, "Run summary:") || !strings.Contains(got, "echo") {
		t.Fatalf("expected run summary mentioning echo, got %q", got)
	}
}

func TestRunBudgetExhausted(t *testing.T) {
	m := &scriptedModel{replies: []string{
		`{"action":{"tool":"echo","args":{"text":"a"}}}`,
		`{"action":{"tool":"echo","args":{"text":"b"}}}`,
		"best effort answer",
	}}
	l := newTestLoop(t, m, echoTool(nil))
	l.MaxSteps = 2
	got, err := l.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "best effort answer" {
		t.Fatalf("unexpected answer %q", got)
	}
	// The closing completion is plain text, not JSON mode.
	final := m.requests[len(m.requests)-1]
	if final.JSONMode {
		t.Fatalf("closing completion must not be JSON mode")
	}
	lastMsg, _ := final.Messages[len(final.Messages)-1].Content.(string)
	if !strings.Contains(lastMsg, "out of steps") {
		t.Fatalf("expected out-of-steps nudge, got %q", lastMsg)
	}
}

func TestRunPlanningInterval(t *testing.T) {
	// Two tool steps, then the planning turn fires before step 3 answers.
	m := &scriptedModel{replies: []string{
		`{"action":{"tool":"echo","args":{"text":"1"}}}`,
		`{"action":{"tool":"echo","args":{"text":"2"}}}`,
		"facts so far and plan",
		`{"final_answer":"ok"}`,
	}}
	l := newTestLoop(t, m, echoTool(nil))
	l.PlanningInterval = 2
	got, err := l.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected answer %q", got)
	}
	// The step-3 decision request must carry the updated plan.
	final := m.requests[3]
	var found bool
	for _, msg := range final.Messages {
		if s, ok := msg.Content.(string); ok && strings.Contains(s, "Updated plan:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("updated plan missing from transcript")
	}
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &scriptedModel{replies: []string{`{"final_answer":"never"}`}}
	l := newTestLoop(t, m, echoTool(nil))
	if _, err := l.Run(ctx, "task"); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestSystemPromptListsTools(t *testing.T) {
	l := newTestLoop(t, &scriptedModel{}, echoTool(nil), ExpressionTool())
	p := l.systemPrompt()
	for _, want := range []string{"echo", "evaluate_expression", "final_answer"} {
		if !strings.Contains(p, want) {
			t.Fatalf("system prompt missing %q", want)
		}
	}
}
