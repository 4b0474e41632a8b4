// Package agent implements the manager and search agent step loops: plan,
// pick a tool, execute, observe, repeat until a final answer or the step
// budget runs out.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cultrix/deepresearch/internal/metrics"
	"github.com/cultrix/deepresearch/internal/provider"
)

// Loop is one tool-calling agent. Each step asks the model for a strict
// JSON decision, executes the chosen tool and feeds the observation back.
type Loop struct {
	Name                string
	Model               provider.Model
	Tools               *Toolbox
	MaxSteps            int
	PlanningInterval    int
	SystemPrompt        string
	ProvideRunSummary   bool
	Temperature         float64
	MaxCompletionTokens int
	ReasoningEffort     string
	Logger              *log.Logger
}

type decision struct {
	Thought string `json:"thought,omitempty"`
	Action  *struct {
		Tool string         `json:"tool"`
		Args map[string]any `json:"args"`
	} `json:"action,omitempty"`
	FinalAnswer *string `json:"final_answer,omitempty"`
}

func (l *Loop) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}

// Run executes the loop for one task and returns the final answer.
func (l *Loop) Run(ctx context.Context, task string) (string, error) {
	transcript := []provider.Message{
		{Role: "system", Content: l.systemPrompt()},
		{Role: "user", Content: "Task: " + task},
	}
	var summary []string

	for step := 1; step <= l.MaxSteps; step++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if l.PlanningInterval > 0 && step != 1 && (step-1)%l.PlanningInterval == 0 {
			l.plan(ctx, &transcript)
		}

		content, err := l.Model.Complete(ctx, provider.Request{
			Messages:            transcript,
			Temperature:         l.Temperature,
			MaxCompletionTokens: l.MaxCompletionTokens,
			ReasoningEffort:     l.ReasoningEffort,
			JSONMode:            true,
		})
		if err != nil {
			return "", err
		}

		var d decision
		if err := json.Unmarshal([]byte(extractJSON(content)), &d); err != nil {
			transcript = append(transcript,
				provider.Message{Role: "tool-call", Content: content},
				provider.Message{Role: "tool-response", Content: "Your reply was not valid JSON. Reply with exactly one JSON object."})
			l.logger().Printf("%s step %d: unparseable decision", l.Name, step)
			continue
		}

		if d.FinalAnswer != nil {
			answer := *d.FinalAnswer
			l.logger().Printf("%s step %d: final answer (%d chars)", l.Name, step, len(answer))
			if l.ProvideRunSummary && len(summary) > 0 {
				answer += "\n\nRun summary:\n" + strings.Join(summary, "\n")
			}
			return answer, nil
		}
		if d.Action == nil {
			transcript = append(transcript,
				provider.Message{Role: "tool-call", Content: content},
				provider.Message{Role: "tool-response", Content: "Provide either an action or a final_answer."})
			continue
		}

		td, ok := l.Tools.Get(d.Action.Tool)
		if !ok {
			obs := fmt.Sprintf("Unknown tool %q. Available tools: %s", d.Action.Tool, strings.Join(l.Tools.Names(), ", "))
			transcript = append(transcript,
				provider.Message{Role: "tool-call", Content: content},
				provider.Message{Role: "tool-response", Content: obs})
			continue
		}

		l.logger().Printf("%s step %d: %s(%s)", l.Name, step, td.Name, compactArgs(d.Action.Args))
		metrics.ToolCallsTotal.WithLabelValues(td.Name).Inc()
		obs, err := td.Call(ctx, d.Action.Args)
		if err != nil {
			obs = "Tool error: " + err.Error()
		}
		summary = append(summary, fmt.Sprintf("step %d: %s -> %s", step, td.Name, firstLine(obs)))
		transcript = append(transcript,
			provider.Message{Role: "tool-call", Content: content},
			provider.Message{Role: "tool-response", Content: "Observation:\n" + obs})
	}

	// Budget spent: ask for a best-effort answer from what was observed.
	transcript = append(transcript, provider.Message{
		Role:    "user",
		Content: "You are out of steps. Give your best final answer now based on the observations so far, as plain text.",
	})
	answer, err := l.Model.Complete(ctx, provider.Request{
		Messages:            transcript,
		Temperature:         l.Temperature,
		MaxCompletionTokens: l.MaxCompletionTokens,
		ReasoningEffort:     l.ReasoningEffort,
	})
	if err != nil {
		return "", err
	}
	if l.ProvideRunSummary && len(summary) > 0 {
		answer += "\n\nRun summary:\n" + strings.Join(summary, "\n")
	}
	return answer, nil
}

// plan inserts a periodic re-planning turn: the model reviews the facts
// gathered so far and updates its plan as free text.
func (l *Loop) plan(ctx context.Context, transcript *[]provider.Message) {
	msgs := append(append([]provider.Message(nil), *transcript...), provider.Message{
		Role:    "user",
		Content: "Pause. List the facts you have established so far and the remaining plan, briefly.",
	})
	plan, err := l.Model.Complete(ctx, provider.Request{
		Messages:            msgs,
		Temperature:         l.Temperature,
		MaxCompletionTokens: l.MaxCompletionTokens,
		ReasoningEffort:     l.ReasoningEffort,
	})
	if err != nil {
		l.logger().Printf("%s: planning step failed: %v", l.Name, err)
		return
	}
	*transcript = append(*transcript, provider.Message{Role: "assistant", Content: "Updated plan:\n" + plan})
}

func (l *Loop) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString(l.SystemPrompt)
	sb.WriteString("\n\nYou have these tools:\n")
	for _, td := range l.Tools.List() {
		fmt.Fprintf(&sb, "- %s: %s\n", td.Name, td.Description)
		if len(td.InputSchema) > 0 {
			b, _ := json.Marshal(td.InputSchema)
			fmt.Fprintf(&sb, "  input schema: %s\n", b)
		}
	}
	sb.WriteString(`
Reply with exactly one JSON object per turn, either
{"thought": "...", "action": {"tool": "<name>", "args": {...}}}
or
{"thought": "...", "final_answer": "..."}`)
	return sb.String()
}

// extractJSON trims code fences some models wrap around JSON output.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func compactArgs(args map[string]any) string {
	b, _ := json.Marshal(args)
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 160 {
		s = s[:160] + "..."
	}
	return s
}
