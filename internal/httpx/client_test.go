package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoJSONRetriesOnServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "transient", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(5*time.Second, 2, time.Millisecond)
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.DoJSON(context.Background(), "GET", srv.URL, nil, nil, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if !out.OK {
		t.Fatalf("expected decoded response")
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 attempts, got %d", hits)
	}
}

func TestDoJSONGivesUpAfterRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(5*time.Second, 1, time.Millisecond)
	if err := c.DoJSON(context.Background(), "GET", srv.URL, nil, nil, nil); err == nil {
		t.Fatalf("expected error")
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 attempts, got %d", hits)
	}
}

func TestDoJSONSetsContentTypeAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if got := r.Header.Get("X-Custom"); got != "v" {
			t.Errorf("custom header lost, got %q", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(5*time.Second, 0, time.Millisecond)
	err := c.DoJSON(context.Background(), "POST", srv.URL, map[string]string{"X-Custom": "v"}, map[string]string{"a": "b"}, nil)
	if err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
}

func TestFetchLimitsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		for i := 0; i < 100; i++ {
			w.Write([]byte("0123456789"))
		}
	}))
	defer srv.Close()

	c := New(5*time.Second, 0, time.Millisecond)
	res, err := c.Fetch(context.Background(), srv.URL, nil, 64)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Body) != 64 {
		t.Fatalf("expected truncation at 64 bytes, got %d", len(res.Body))
	}
	if res.ContentType != "text/plain" {
		t.Fatalf("unexpected content type %q", res.ContentType)
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("landed"))
	}))
	defer final.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL, http.StatusFound)
	}))
	defer srv.Close()

	c := New(5*time.Second, 0, time.Millisecond)
	res, err := c.Fetch(context.Background(), srv.URL, nil, 1024)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.FinalURL != final.URL {
		t.Fatalf("expected final URL %s, got %s", final.URL, res.FinalURL)
	}
	if string(res.Body) != "landed" {
		t.Fatalf("unexpected body %q", res.Body)
	}
}

func TestDoJSONHonorsContextDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "fail", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	c := New(5*time.Second, 5, time.Second)
	start := time.Now()
	if err := c.DoJSON(ctx, "GET", srv.URL, nil, nil, nil); err == nil {
		t.Fatalf("expected error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("backoff ignored context cancellation")
	}
}
