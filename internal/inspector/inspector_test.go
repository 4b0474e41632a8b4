package inspector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cultrix/deepresearch/internal/browser"
	"github.com/cultrix/deepresearch/internal/provider"
)

type stubModel struct {
	lastReq provider.Request
	reply   string
}

func (m *stubModel) ID() string { return "stub" }

func (m *stubModel) Complete(_ context.Context, req provider.Request) (string, error) {
	m.lastReq = req
	return m.reply, nil
}

type stubFetcher struct{ page *browser.Page }

func (f *stubFetcher) Fetch(context.Context, string) (*browser.Page, error) {
	if f.page == nil {
		return nil, fmt.Errorf("fetch failed")
	}
	return f.page, nil
}

func userContent(t *testing.T, req provider.Request) string {
	t.Helper()
	last := req.Messages[len(req.Messages)-1]
	s, ok := last.Content.(string)
	if !ok {
		t.Fatalf("expected string content, got %T", last.Content)
	}
	return s
}

func TestInspectLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("the capital of France is Paris"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := &stubModel{reply: "Paris"}
	ins := New(m, &stubFetcher{}, 0)

	got, err := ins.Inspect(context.Background(), path, "What is the capital of France?")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if got != "Paris" {
		t.Fatalf("unexpected answer %q", got)
	}
	content := userContent(t, m.lastReq)
	if !strings.Contains(content, "capital of France is Paris") {
		t.Fatalf("document text missing from prompt: %q", content)
	}
	if !strings.Contains(content, "What is the capital of France?") {
		t.Fatalf("question missing from prompt: %q", content)
	}
}

func TestInspectURL(t *testing.T) {
	m := &stubModel{reply: "ok"}
	ins := New(m, &stubFetcher{page: &browser.Page{Text: "remote document body"}}, 0)
	if _, err := ins.Inspect(context.Background(), "https://example.com/doc", "q"); err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !strings.Contains(userContent(t, m.lastReq), "remote document body") {
		t.Fatalf("fetched text missing from prompt")
	}
}

func TestInspectTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("a", 500)), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := &stubModel{reply: "ok"}
	ins := New(m, &stubFetcher{}, 100)
	if _, err := ins.Inspect(context.Background(), path, "q"); err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	content := userContent(t, m.lastReq)
	if strings.Count(content, "a") > 200 {
		t.Fatalf("text was not truncated: %d chars", len(content))
	}
}

func TestInspectEmptyQuestionSummarizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("body"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := &stubModel{reply: "summary"}
	ins := New(m, &stubFetcher{}, 0)
	if _, err := ins.Inspect(context.Background(), path, " "); err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !strings.Contains(userContent(t, m.lastReq), "summary") {
		t.Fatalf("expected summary prompt, got %q", userContent(t, m.lastReq))
	}
}

func TestInspectMissingFile(t *testing.T) {
	ins := New(&stubModel{}, &stubFetcher{}, 0)
	if _, err := ins.Inspect(context.Background(), "/no/such/file", "q"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
