package browser

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"

	"github.com/cultrix/deepresearch/internal/errs"
	"github.com/cultrix/deepresearch/internal/httpx"
)

const maxPageBytes = 16 << 20

// Page is the extracted result of one fetch.
type Page struct {
	URL         string
	Title       string
	Text        string
	ContentType string
	Raw         []byte
}

// Fetcher retrieves a URL and extracts readable text from it.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// HTTPFetcher fetches over plain HTTP with the shared retrying client and
// extracts article text with readability, falling back to tag stripping.
type HTTPFetcher struct {
	Client    *httpx.Client
	UserAgent string
}

func NewHTTPFetcher(timeout time.Duration, retries int, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{Client: httpx.New(timeout, retries, time.Second), UserAgent: userAgent}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	res, err := f.Client.Fetch(ctx, pageURL, map[string]string{"User-Agent": f.UserAgent}, maxPageBytes)
	if err != nil {
		return nil, &errs.NetworkError{URL: pageURL, Err: err}
	}
	page := &Page{URL: res.FinalURL, ContentType: res.ContentType, Raw: res.Body}
	if page.URL == "" {
		page.URL = pageURL
	}
	switch {
	case strings.Contains(res.ContentType, "text/html"):
		page.Title, page.Text = extractHTML(res.Body, page.URL)
	case strings.HasPrefix(res.ContentType, "text/"),
		strings.Contains(res.ContentType, "json"),
		strings.Contains(res.ContentType, "xml"):
		page.Text = string(res.Body)
	default:
		// binary: caller decides whether to save it to the downloads folder
	}
	return page, nil
}

func extractHTML(body []byte, pageURL string) (title, text string) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return strings.TrimSpace(article.Title), strings.TrimSpace(article.TextContent)
	}
	return stripHTML(body)
}

// ChromedpFetcher renders JS-heavy pages in headless Chrome before
// extraction. Used only when browser.use_chromedp is set.
type ChromedpFetcher struct {
	Timeout   time.Duration
	UserAgent string
}

func (f *ChromedpFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(f.UserAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &errs.NetworkError{URL: pageURL, Err: err}
	}
	title, text := extractHTML([]byte(html), pageURL)
	return &Page{URL: pageURL, Title: title, Text: text, ContentType: "text/html", Raw: []byte(html)}, nil
}
