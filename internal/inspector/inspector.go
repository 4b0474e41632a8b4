// Package inspector reads a downloaded or remote document as text and lets
// the model answer questions about it.
package inspector

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cultrix/deepresearch/internal/browser"
	"github.com/cultrix/deepresearch/internal/provider"
)

type Inspector struct {
	Model     provider.Model
	Fetcher   browser.Fetcher
	TextLimit int
}

func New(model provider.Model, fetcher browser.Fetcher, textLimit int) *Inspector {
	if textLimit <= 0 {
		textLimit = 100000
	}
	return &Inspector{Model: model, Fetcher: fetcher, TextLimit: textLimit}
}

// Inspect loads the file or URL, truncates the extracted text to the
// configured limit and asks the model the question about it. With an empty
// question it returns a structured summary instead.
func (i *Inspector) Inspect(ctx context.Context, target, question string) (string, error) {
	text, err := i.loadText(ctx, target)
	if err != nil {
		return "", err
	}
	if len(text) > i.TextLimit {
		text = text[:i.TextLimit]
	}

	var sys, user string
	if strings.TrimSpace(question) == "" {
		sys = "You write short, structured document summaries."
		user = fmt.Sprintf("Here is a document:\n\n%s\n\nWrite a short 5-sentence summary, then list the key facts as bullets.", text)
	} else {
		sys = "You answer questions using only the document provided. Quote the relevant passage when possible."
		user = fmt.Sprintf("Here is a document:\n\n%s\n\nAnswer this question about it: %s", text, question)
	}
	return i.Model.Complete(ctx, provider.Request{
		Messages: []provider.Message{
			{Role: "system", Content: sys},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	})
}

func (i *Inspector) loadText(ctx context.Context, target string) (string, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		page, err := i.Fetcher.Fetch(ctx, target)
		if err != nil {
			return "", err
		}
		if page.Text != "" {
			return page.Text, nil
		}
		return string(page.Raw), nil
	}
	b, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(b), nil
}
