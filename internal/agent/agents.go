package agent

import (
	"context"
	"log"

	"github.com/cultrix/deepresearch/internal/provider"
)

const searchAgentPrompt = `You are search_agent, a team member that searches the internet to answer questions.
Work step by step: search, visit promising pages, scroll and find within them, and cross-check facts.
You can navigate to .txt online files.
If a non-HTML page is in another format, especially .pdf or a YouTube video, use the inspect_file_as_text tool to inspect it.
If after some searching you still need clarification to answer, use final_answer with your request for clarification.`

const managerAgentPrompt = `You are the manager of a research team. Break the task into sub-tasks and solve it.
For anything that requires browsing the web, delegate to the search_agent tool with a complete, self-contained question;
provide as much context as possible, especially when searching within a specific timeframe.
Use evaluate_expression for intermediate arithmetic instead of guessing.
When you have the answer, return it with final_answer. Answer as directly and concretely as possible.`

// Budgets carries the step limits from config.
type Budgets struct {
	SearchMaxSteps      int
	ManagerMaxSteps     int
	PlanningInterval    int
	Temperature         float64
	MaxCompletionTokens int
	ReasoningEffort     string
}

// NewSearchAgent builds the tool-calling browsing loop.
func NewSearchAgent(model provider.Model, tools []ToolDescriptor, b Budgets, logger *log.Logger) (*Loop, error) {
	tb, err := NewToolbox(tools...)
	if err != nil {
		return nil, err
	}
	return &Loop{
		Name:                "search_agent",
		Model:               model,
		Tools:               tb,
		MaxSteps:            b.SearchMaxSteps,
		PlanningInterval:    b.PlanningInterval,
		SystemPrompt:        searchAgentPrompt,
		ProvideRunSummary:   true,
		Temperature:         b.Temperature,
		MaxCompletionTokens: b.MaxCompletionTokens,
		ReasoningEffort:     b.ReasoningEffort,
		Logger:              logger,
	}, nil
}

// NewManagerAgent builds the planning loop that delegates browsing to the
// search agent and keeps the visualizer/inspector/expression tools for
// intermediate work.
func NewManagerAgent(model provider.Model, searchAgent *Loop, extra []ToolDescriptor, b Budgets, logger *log.Logger) (*Loop, error) {
	tools := append([]ToolDescriptor{
		{
			Name:        "search_agent",
			Description: "Delegate a web research sub-task to the search team member. Ask complete questions with full context.",
			InputSchema: stringSchema(map[string]string{"task": "the research question, fully self-contained"}, "task"),
			Call: func(ctx context.Context, args map[string]any) (string, error) {
				task, err := strArg(args, "task")
				if err != nil {
					return "", err
				}
				return searchAgent.Run(ctx, task)
			},
		},
		ExpressionTool(),
	}, extra...)
	tb, err := NewToolbox(tools...)
	if err != nil {
		return nil, err
	}
	return &Loop{
		Name:                "manager_agent",
		Model:               model,
		Tools:               tb,
		MaxSteps:            b.ManagerMaxSteps,
		PlanningInterval:    b.PlanningInterval,
		SystemPrompt:        managerAgentPrompt,
		Temperature:         b.Temperature,
		MaxCompletionTokens: b.MaxCompletionTokens,
		ReasoningEffort:     b.ReasoningEffort,
		Logger:              logger,
	}, nil
}
