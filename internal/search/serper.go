package search

import (
	"context"
	"time"

	"github.com/cultrix/deepresearch/internal/httpx"
)

// Serper queries google.serper.dev.
type Serper struct {
	APIKey  string
	BaseURL string
}

func (s *Serper) Search(ctx context.Context, q string, k int) ([]Result, error) {
	// https://serper.dev/ docs
	payload := map[string]any{"q": q, "num": k}
	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	base := s.BaseURL
	if base == "" {
		base = "https://google.serper.dev"
	}
	client := httpx.New(20*time.Second, 1, 0)
	err := client.DoJSON(ctx, "POST", base+"/search", map[string]string{
		"X-API-KEY": s.APIKey,
	}, payload, &raw)
	if err != nil {
		return nil, err
	}
	var out []Result
	for i, it := range raw.Organic {
		if i >= k {
			break
		}
		out = append(out, Result{Title: it.Title, URL: it.Link, Snippet: it.Snippet})
	}
	return out, nil
}
