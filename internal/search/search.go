// Package search exposes web search providers behind one interface.
package search

import (
	"context"
	"fmt"

	"github.com/cultrix/deepresearch/config"
)

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type Searcher interface {
	Search(ctx context.Context, q string, k int) ([]Result, error)
}

type Provider string

const (
	SerperProvider  Provider = "serper"
	BraveProvider   Provider = "brave"
	SearxNGProvider Provider = "searxng"
)

// New builds a searcher from config. The provider choice and credentials
// come from the search section; unknown providers are rejected.
func New(cfg config.SearchConfig) (Searcher, error) {
	switch Provider(cfg.Provider) {
	case SerperProvider:
		return &Serper{APIKey: cfg.SerperAPIKey}, nil
	case BraveProvider:
		return &Brave{APIKey: cfg.BraveAPIKey}, nil
	case SearxNGProvider:
		return &SearxNG{BaseURL: cfg.SearxNGURL, Username: cfg.SearxNGUsername, Password: cfg.SearxNGPassword}, nil
	default:
		return nil, fmt.Errorf("unsupported search provider %q", cfg.Provider)
	}
}
