package search

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cultrix/deepresearch/internal/httpx"
)

// SearxNG queries a self-hosted search proxy, optionally with basic auth.
type SearxNG struct {
	BaseURL  string
	Username string
	Password string
}

func (s *SearxNG) Search(ctx context.Context, q string, k int) ([]Result, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", strings.TrimRight(s.BaseURL, "/"), url.QueryEscape(q))
	headers := map[string]string{"Accept": "application/json"}
	if s.Username != "" {
		cred := base64.StdEncoding.EncodeToString([]byte(s.Username + ":" + s.Password))
		headers["Authorization"] = "Basic " + cred
	}
	var raw struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	client := httpx.New(20*time.Second, 1, 0)
	if err := client.DoJSON(ctx, "GET", endpoint, headers, nil, &raw); err != nil {
		return nil, err
	}
	var out []Result
	for i, r := range raw.Results {
		if i >= k {
			break
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return out, nil
}
