package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cultrix/deepresearch/internal/browser"
	"github.com/cultrix/deepresearch/internal/inspector"
	"github.com/cultrix/deepresearch/internal/mcpclient"
	"github.com/cultrix/deepresearch/internal/search"
	"github.com/cultrix/deepresearch/internal/visual"
)

func stringSchema(props map[string]string, required ...string) map[string]any {
	p := map[string]any{}
	for name, desc := range props {
		p[name] = map[string]any{"type": "string", "description": desc}
	}
	return map[string]any{"type": "object", "properties": p, "required": required}
}

// BrowserTools exposes the browser's named operations as descriptors.
// They all close over one browser instance and must stay on one invocation.
func BrowserTools(b *browser.Browser) []ToolDescriptor {
	return []ToolDescriptor{
		{
			Name:        "visit_page",
			Description: "Visit a web page at the given URL and return its text. Non-text documents are saved for inspect_file_as_text.",
			InputSchema: stringSchema(map[string]string{"url": "the URL to visit"}, "url"),
			Call: func(ctx context.Context, args map[string]any) (string, error) {
				u, err := strArg(args, "url")
				if err != nil {
					return "", err
				}
				return b.Visit(ctx, u)
			},
		},
		{
			Name:        "page_up",
			Description: "Scroll the viewport up one page in the current document.",
			Call: func(ctx context.Context, args map[string]any) (string, error) {
				return b.PageUp(), nil
			},
		},
		{
			Name:        "page_down",
			Description: "Scroll the viewport down one page in the current document.",
			Call: func(ctx context.Context, args map[string]any) (string, error) {
				return b.PageDown(), nil
			},
		},
		{
			Name:        "find_on_page_ctrl_f",
			Description: "Find the first occurrence of a string on the current page, like Ctrl+F.",
			InputSchema: stringSchema(map[string]string{"search_string": "the string to look for"}, "search_string"),
			Call: func(ctx context.Context, args map[string]any) (string, error) {
				q, err := strArg(args, "search_string")
				if err != nil {
					return "", err
				}
				return b.Find(q), nil
			},
		},
		{
			Name:        "find_next",
			Description: "Jump to the next occurrence of the previous find_on_page_ctrl_f search.",
			Call: func(ctx context.Context, args map[string]any) (string, error) {
				return b.FindNext(), nil
			},
		},
		{
			Name:        "find_archived_url",
			Description: "Look up the Wayback Machine snapshot of a URL closest to a date (YYYYMMDD) and visit it.",
			InputSchema: stringSchema(map[string]string{"url": "the original URL", "date": "target date as YYYYMMDD"}, "url", "date"),
			Call: func(ctx context.Context, args map[string]any) (string, error) {
				u, err := strArg(args, "url")
				if err != nil {
					return "", err
				}
				return b.ArchiveSearch(ctx, u, optStrArg(args, "date"))
			},
		},
	}
}

// SearchTool wraps a web search provider.
func SearchTool(s search.Searcher, maxResults int) ToolDescriptor {
	return ToolDescriptor{
		Name:        "web_search",
		Description: "Run a web search and return titles, URLs and snippets of the top results.",
		InputSchema: stringSchema(map[string]string{"query": "the search query"}, "query"),
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			q, err := strArg(args, "query")
			if err != nil {
				return "", err
			}
			results, err := s.Search(ctx, q, maxResults)
			if err != nil {
				return "", err
			}
			if len(results) == 0 {
				return "No results found. Try a less restrictive query.", nil
			}
			var out []string
			for i, r := range results {
				out = append(out, fmt.Sprintf("%d. %s\n   %s\n   %s", i+1, r.Title, r.URL, r.Snippet))
			}
			return strings.Join(out, "\n"), nil
		},
	}
}

// InspectorTool wraps the text inspector.
func InspectorTool(ins *inspector.Inspector) ToolDescriptor {
	return ToolDescriptor{
		Name:        "inspect_file_as_text",
		Description: "Read a downloaded file or a URL (pdf, txt, html, ...) as text and answer a question about it. Leave question empty for a summary.",
		InputSchema: stringSchema(map[string]string{"file_path": "local path or URL of the document", "question": "what to find out, optional"}, "file_path"),
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			target, err := strArg(args, "file_path")
			if err != nil {
				return "", err
			}
			return ins.Inspect(ctx, target, optStrArg(args, "question"))
		},
	}
}

// VisualizerTool wraps image question answering.
func VisualizerTool(v *visual.Visualizer) ToolDescriptor {
	return ToolDescriptor{
		Name:        "visualizer",
		Description: "Answer a question about an image, given its local path or URL.",
		InputSchema: stringSchema(map[string]string{"image_path": "local path or URL of the image", "question": "what to find out, optional"}, "image_path"),
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			img, err := strArg(args, "image_path")
			if err != nil {
				return "", err
			}
			return v.Ask(ctx, img, optStrArg(args, "question"))
		},
	}
}

// CollectionTools wraps every tool the external server declares. Calls go
// through the live client, which must outlive the descriptors.
func CollectionTools(c mcpclient.Client, tools []mcpclient.Tool) []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(tools))
	for _, t := range tools {
		t := t
		out = append(out, ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
			Call: func(ctx context.Context, args map[string]any) (string, error) {
				res, err := c.CallTool(ctx, t.Name, args)
				if err != nil {
					return "", err
				}
				if text, ok := res["text"].(string); ok {
					return text, nil
				}
				b, _ := json.Marshal(res)
				return string(b), nil
			},
		})
	}
	return out
}
