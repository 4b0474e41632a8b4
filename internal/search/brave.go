package search

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cultrix/deepresearch/internal/httpx"
)

// Brave queries the Brave web search API.
type Brave struct {
	APIKey  string
	BaseURL string
}

func (s *Brave) Search(ctx context.Context, q string, k int) ([]Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	base := s.BaseURL
	if base == "" {
		base = "https://api.search.brave.com"
	}
	endpoint := fmt.Sprintf("%s/res/v1/web/search?q=%s&count=%d", base, url.QueryEscape(q), k)
	var raw struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	client := httpx.New(20*time.Second, 1, 0)
	err := client.DoJSON(ctx, "GET", endpoint, map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": s.APIKey,
	}, nil, &raw)
	if err != nil {
		return nil, err
	}
	var out []Result
	for i, r := range raw.Web.Results {
		if i >= k {
			break
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return out, nil
}
