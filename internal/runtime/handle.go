// Package runtime owns the once-per-process agent graph and the worker
// pool that hosts invocations.
package runtime

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/cultrix/deepresearch/config"
	"github.com/cultrix/deepresearch/internal/agent"
	"github.com/cultrix/deepresearch/internal/browser"
	"github.com/cultrix/deepresearch/internal/cache"
	"github.com/cultrix/deepresearch/internal/errs"
	"github.com/cultrix/deepresearch/internal/inspector"
	"github.com/cultrix/deepresearch/internal/logsink"
	"github.com/cultrix/deepresearch/internal/mcpclient"
	"github.com/cultrix/deepresearch/internal/metrics"
	"github.com/cultrix/deepresearch/internal/provider"
	"github.com/cultrix/deepresearch/internal/search"
	"github.com/cultrix/deepresearch/internal/visual"
	"github.com/google/uuid"
)

// Handle is the constructed agent graph. Everything in it is immutable
// after construction except the MCP client, whose stdio transport
// serializes calls internally. Per-invocation state (browser, loops) is
// created inside Run so concurrent invocations never share it.
type Handle struct {
	cfg       *config.Config
	model     provider.Model
	searcher  search.Searcher
	mcp       mcpclient.Client
	mcpTools  []mcpclient.Tool
	pageCache cache.Store
	logWriter io.Writer
	logger    *log.Logger
}

// ModelID returns the identifier the handle was constructed with.
func (h *Handle) ModelID() string { return h.model.ID() }

// Run answers one question. It builds a fresh browser and agent pair so
// sibling invocations only share the read-only wiring.
func (h *Handle) Run(ctx context.Context, question string) (string, error) {
	runID := uuid.NewString()
	start := time.Now()
	h.logger.Printf("run %s: %q model=%s", runID, question, h.model.ID())

	fetcher := h.newFetcher()
	b, err := browser.New(browser.Config{
		ViewportSize:    h.cfg.Browser.ViewportSize,
		DownloadsFolder: h.cfg.General.DownloadsFolder,
	}, fetcher, h.pageCache, h.newLogger("[BROWSER] "))
	if err != nil {
		return "", err
	}

	ins := inspector.New(h.model, fetcher, h.cfg.Agents.TextLimit)
	viz := visual.New(h.model)

	budgets := agent.Budgets{
		SearchMaxSteps:      h.cfg.Agents.SearchMaxSteps,
		ManagerMaxSteps:     h.cfg.Agents.ManagerMaxSteps,
		PlanningInterval:    h.cfg.Agents.PlanningInterval,
		Temperature:         h.cfg.LLM.Temperature,
		MaxCompletionTokens: h.cfg.LLM.MaxCompletionTokens,
	}
	if provider.IsReasoningModel(h.model.ID()) {
		budgets.ReasoningEffort = h.cfg.LLM.ReasoningEffort
	}

	searchTools := append(agent.BrowserTools(b),
		agent.SearchTool(h.searcher, h.cfg.Search.MaxResults),
		agent.InspectorTool(ins),
	)
	if h.mcp != nil {
		searchTools = append(searchTools, agent.CollectionTools(h.mcp, h.mcpTools)...)
	}
	searchAgent, err := agent.NewSearchAgent(h.model, searchTools, budgets, h.newLogger("[AGENT] "))
	if err != nil {
		return "", err
	}
	manager, err := agent.NewManagerAgent(h.model, searchAgent, []agent.ToolDescriptor{
		agent.VisualizerTool(viz),
		agent.InspectorTool(ins),
	}, budgets, h.newLogger("[AGENT] "))
	if err != nil {
		return "", err
	}

	answer, err := manager.Run(ctx, question)
	metrics.InvocationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.InvocationsTotal.WithLabelValues("error").Inc()
		h.logger.Printf("run %s failed after %s: %v", runID, time.Since(start).Round(time.Millisecond), err)
		return "", err
	}
	metrics.InvocationsTotal.WithLabelValues("ok").Inc()
	h.logger.Printf("run %s done in %s", runID, time.Since(start).Round(time.Millisecond))
	return answer, nil
}

func (h *Handle) newFetcher() browser.Fetcher {
	if h.cfg.Browser.UseChromedp {
		return &browser.ChromedpFetcher{
			Timeout:   h.cfg.Browser.RequestTimeout,
			UserAgent: h.cfg.Browser.UserAgent,
		}
	}
	return browser.NewHTTPFetcher(h.cfg.Browser.RequestTimeout, h.cfg.Browser.MaxRetries, h.cfg.Browser.UserAgent)
}

func (h *Handle) newLogger(prefix string) *log.Logger {
	return log.New(h.logWriter, prefix, log.LstdFlags)
}

// Close releases the external tool server connection. After Close the MCP
// tool descriptors are dead; only call it at process teardown.
func (h *Handle) Close() error {
	if h.mcp != nil {
		return h.mcp.Close()
	}
	return nil
}

// buildHandle wires the full graph once. The MCP connection it opens stays
// with the handle for its whole lifetime.
func buildHandle(ctx context.Context, cfg *config.Config, modelID string, sink *logsink.Buffer) (*Handle, error) {
	if cfg.LLM.APIKey == "" {
		return nil, &errs.ConfigurationError{Reason: "OPENAI_API_KEY not set"}
	}
	if err := checkSearchKey(cfg.Search); err != nil {
		return nil, err
	}

	var logWriter io.Writer = os.Stderr
	if sink != nil {
		logWriter = io.MultiWriter(os.Stderr, sink)
	}
	logger := log.New(logWriter, "[RUNTIME] ", log.LstdFlags)

	model, err := provider.NewOpenAI(cfg.LLM.APIKey, modelID, cfg.LLM.Timeout, cfg.LLM.MaxRetries,
		provider.WithBaseURL(cfg.LLM.BaseURL))
	if err != nil {
		return nil, err
	}
	searcher, err := search.New(cfg.Search)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		cfg:       cfg,
		model:     model,
		searcher:  searcher,
		logWriter: logWriter,
		logger:    logger,
	}
	if cfg.Runtime.CacheEnabled {
		h.pageCache = cache.New(ctx, cfg.Runtime.RedisAddr, cfg.Runtime.CacheTTL)
	}

	if cfg.MCP.Command != "" {
		client, err := mcpclient.Start(ctx, cfg.MCP.Command, cfg.MCP.Args, cfg.MCP.Env, cfg.MCP.ToolTimeout)
		if err != nil {
			return nil, &errs.ToolConnectionError{Server: cfg.MCP.Command, Err: err}
		}
		tools, err := client.ListTools(ctx)
		if err != nil {
			_ = client.Close()
			return nil, &errs.ToolConnectionError{Server: cfg.MCP.Command, Err: err}
		}
		h.mcp = client
		h.mcpTools = tools
		logger.Printf("loaded %d tools from %s", len(tools), cfg.MCP.Command)
	}

	logger.Printf("agent graph constructed for model %s", modelID)
	return h, nil
}

func checkSearchKey(cfg config.SearchConfig) error {
	switch search.Provider(cfg.Provider) {
	case search.SerperProvider:
		if cfg.SerperAPIKey == "" {
			return &errs.ConfigurationError{Reason: "SERPER_API_KEY not set"}
		}
	case search.BraveProvider:
		if cfg.BraveAPIKey == "" {
			return &errs.ConfigurationError{Reason: "BRAVE_API_KEY not set"}
		}
	}
	return nil
}
