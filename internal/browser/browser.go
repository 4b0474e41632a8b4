// Package browser implements the text-mode web browser the search agent
// drives: viewport pagination over extracted page text, in-page find, an
// archive lookup, and file downloads into a scratch folder.
package browser

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cultrix/deepresearch/internal/cache"
	"github.com/cultrix/deepresearch/internal/errs"
)

// Config carries the fixed knobs for one browser instance.
type Config struct {
	ViewportSize    int
	DownloadsFolder string
}

// Browser owns the pagination/find state for exactly one invocation.
// It is not safe for concurrent use and is never shared across runs.
type Browser struct {
	cfg         Config
	fetcher     Fetcher
	cache       cache.Store
	logger      *log.Logger
	archiveBase string

	pageURL    string
	pageTitle  string
	pageText   string
	viewStart  int
	findQuery  string
	findCursor int
	history    []string
}

func New(cfg Config, fetcher Fetcher, store cache.Store, logger *log.Logger) (*Browser, error) {
	if cfg.ViewportSize <= 0 {
		cfg.ViewportSize = 5120
	}
	if cfg.DownloadsFolder == "" {
		cfg.DownloadsFolder = "downloads_folder"
	}
	if err := os.MkdirAll(cfg.DownloadsFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads folder: %w", err)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[BROWSER] ", log.LstdFlags)
	}
	return &Browser{
		cfg:         cfg,
		fetcher:     fetcher,
		cache:       store,
		logger:      logger,
		archiveBase: "https://archive.org/wayback/available",
	}, nil
}

// DownloadsFolder returns the scratch folder fetched files land in.
func (b *Browser) DownloadsFolder() string { return b.cfg.DownloadsFolder }

func (b *Browser) setPage(p *Page) {
	b.pageURL = p.URL
	b.pageTitle = p.Title
	b.pageText = p.Text
	b.viewStart = 0
	b.findQuery = ""
	b.findCursor = 0
	b.history = append(b.history, p.URL)
}

// Visit fetches the URL and resets the viewport to the top of the page.
// Binary documents are saved into the downloads folder instead.
func (b *Browser) Visit(ctx context.Context, pageURL string) (string, error) {
	page, err := b.fetchCached(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if page.Text == "" && len(page.Raw) > 0 && !strings.HasPrefix(page.ContentType, "text/") {
		saved, err := b.saveDownload(page)
		if err != nil {
			return "", err
		}
		b.logger.Printf("downloaded %s (%s) -> %s", pageURL, page.ContentType, saved)
		return fmt.Sprintf("Saved non-text document to %s. Use inspect_file_as_text to read it.", saved), nil
	}
	b.setPage(page)
	b.logger.Printf("visited %s (%d chars)", page.URL, len(page.Text))
	return b.render(), nil
}

// PageDown moves the viewport one viewport forward, clamping at the end.
func (b *Browser) PageDown() string {
	next := b.viewStart + b.cfg.ViewportSize
	if next < len(b.pageText) {
		b.viewStart = next
	}
	return b.render()
}

// PageUp moves the viewport one viewport back, clamping at the top.
func (b *Browser) PageUp() string {
	b.viewStart -= b.cfg.ViewportSize
	if b.viewStart < 0 {
		b.viewStart = 0
	}
	return b.render()
}

// Find searches the page case-insensitively from the top and jumps the
// viewport to the first match. The cursor is unchanged when nothing matches.
func (b *Browser) Find(pattern string) string {
	idx := indexFold(b.pageText, pattern, 0)
	if idx < 0 {
		return fmt.Sprintf("The search string '%s' was not found on this page.", pattern)
	}
	b.findQuery = pattern
	b.findCursor = idx
	b.viewStart = viewportFor(idx, b.cfg.ViewportSize)
	return b.render()
}

// FindNext continues the previous Find past the last match.
func (b *Browser) FindNext() string {
	if b.findQuery == "" {
		return "No previous search. Use find first."
	}
	idx := indexFold(b.pageText, b.findQuery, b.findCursor+1)
	if idx < 0 {
		return fmt.Sprintf("No further occurrences of '%s' were found.", b.findQuery)
	}
	b.findCursor = idx
	b.viewStart = viewportFor(idx, b.cfg.ViewportSize)
	return b.render()
}

// waybackAvailable mirrors the archive.org availability API response.
type waybackAvailable struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// ArchiveSearch looks up the closest Wayback Machine snapshot of a URL near
// the given date (YYYYMMDD) and visits it.
func (b *Browser) ArchiveSearch(ctx context.Context, pageURL, date string) (string, error) {
	endpoint := fmt.Sprintf("%s?url=%s&timestamp=%s", b.archiveBase, url.QueryEscape(pageURL), url.QueryEscape(date))
	page, err := b.fetchCached(ctx, endpoint)
	if err != nil {
		return "", err
	}
	var avail waybackAvailable
	if err := json.Unmarshal(page.Raw, &avail); err != nil {
		return "", &errs.NetworkError{URL: endpoint, Err: err}
	}
	closest := avail.ArchivedSnapshots.Closest
	if !closest.Available || closest.URL == "" {
		return "", &errs.NetworkError{URL: pageURL, Err: fmt.Errorf("no archived snapshot near %s", date)}
	}
	out, err := b.Visit(ctx, closest.URL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Web archive snapshot from %s:\n%s", closest.Timestamp, out), nil
}

func (b *Browser) fetchCached(ctx context.Context, pageURL string) (*Page, error) {
	if b.cache != nil {
		if raw, ok := b.cache.Get(ctx, cacheKey(pageURL)); ok {
			var p Page
			if err := json.Unmarshal(raw, &p); err == nil {
				return &p, nil
			}
		}
	}
	page, err := b.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if b.cache != nil {
		if raw, err := json.Marshal(page); err == nil {
			b.cache.Set(ctx, cacheKey(pageURL), raw)
		}
	}
	return page, nil
}

func (b *Browser) saveDownload(p *Page) (string, error) {
	name := path.Base(p.URL)
	if name == "" || name == "/" || name == "." {
		name = "download"
	}
	dest := filepath.Join(b.cfg.DownloadsFolder, sanitizeFilename(name))
	if err := os.WriteFile(dest, p.Raw, 0o644); err != nil {
		return "", fmt.Errorf("save download: %w", err)
	}
	return dest, nil
}

// render produces the viewport with an address/position header, the form
// the agent loop feeds back to the model as an observation.
func (b *Browser) render() string {
	total := totalPages(len(b.pageText), b.cfg.ViewportSize)
	start := b.viewStart
	if start > len(b.pageText) {
		start = len(b.pageText)
	}
	current := start/b.cfg.ViewportSize + 1
	end := start + b.cfg.ViewportSize
	if end > len(b.pageText) {
		end = len(b.pageText)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Address: %s\n", b.pageURL)
	if b.pageTitle != "" {
		fmt.Fprintf(&sb, "Title: %s\n", b.pageTitle)
	}
	fmt.Fprintf(&sb, "Viewport position: Showing page %d of %d.\n", current, total)
	sb.WriteString("=======================\n")
	sb.WriteString(b.pageText[start:end])
	return sb.String()
}

func totalPages(textLen, viewport int) int {
	if textLen == 0 {
		return 1
	}
	return (textLen + viewport - 1) / viewport
}

func viewportFor(idx, viewport int) int {
	return (idx / viewport) * viewport
}

// indexFold finds the first case-insensitive match of needle at or after the
// byte offset from, returning the offset in the original string. Folding is
// done rune by rune so offsets stay valid even for runes whose lowercase form
// has a different byte length.
func indexFold(haystack, needle string, from int) int {
	if needle == "" || from >= len(haystack) {
		return -1
	}
	if from < 0 {
		from = 0
	}
	want := make([]rune, 0, len(needle))
	for _, r := range needle {
		want = append(want, unicode.ToLower(r))
	}
	for i := from; i < len(haystack); {
		if foldPrefix(haystack[i:], want) {
			return i
		}
		_, size := utf8.DecodeRuneInString(haystack[i:])
		i += size
	}
	return -1
}

func foldPrefix(s string, want []rune) bool {
	for _, w := range want {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || unicode.ToLower(r) != w {
			return false
		}
		s = s[size:]
	}
	return true
}

func cacheKey(pageURL string) string {
	sum := sha1.Sum([]byte(pageURL))
	return hex.EncodeToString(sum[:])
}

func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if len(name) > 80 {
		name = name[len(name)-80:]
	}
	return name
}
