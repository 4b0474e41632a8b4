package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

type stubRunner struct {
	delay   time.Duration
	fail    bool
	active  int32
	maxSeen int32
}

func (s *stubRunner) Run(_ context.Context, question string) (string, error) {
	n := atomic.AddInt32(&s.active, 1)
	for {
		max := atomic.LoadInt32(&s.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&s.maxSeen, max, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	atomic.AddInt32(&s.active, -1)
	if s.fail {
		return "", fmt.Errorf("run failed: %s", question)
	}
	return "answer to " + question, nil
}

func TestPoolResolvesAllFutures(t *testing.T) {
	p := NewPool(4)
	defer p.Shutdown()
	r := &stubRunner{delay: 10 * time.Millisecond}

	futures := make([]*Future, 0, 8)
	for i := 0; i < 8; i++ {
		futures = append(futures, p.Submit(context.Background(), r, fmt.Sprintf("q%d", i)))
	}
	for i, f := range futures {
		answer, err := f.Wait()
		if err != nil {
			t.Fatalf("future %d: %v", i, err)
		}
		if want := fmt.Sprintf("answer to q%d", i); answer != want {
			t.Fatalf("future %d: expected %q, got %q", i, want, answer)
		}
	}
	if r.maxSeen > 4 {
		t.Fatalf("pool of 4 ran %d invocations at once", r.maxSeen)
	}
}

func TestPoolPropagatesErrors(t *testing.T) {
	p := NewPool(2)
	defer p.Shutdown()
	f := p.Submit(context.Background(), &stubRunner{fail: true}, "q")
	if _, err := f.Wait(); err == nil {
		t.Fatalf("expected error from failed run")
	}
}

func TestPoolSubmitHonorsContext(t *testing.T) {
	p := NewPool(1)
	defer p.Shutdown()
	slow := &stubRunner{delay: 200 * time.Millisecond}
	// Occupy the single worker, then fill the unbuffered queue slot.
	p.Submit(context.Background(), slow, "occupy")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	// With the worker busy this submit cannot hand off before the deadline.
	var f *Future
	done := make(chan struct{})
	go func() {
		f = p.Submit(ctx, slow, "queued")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Submit did not return after context expiry")
	}
	if _, err := f.Wait(); err == nil {
		t.Fatalf("expected context error on abandoned submit")
	}
}

func TestPoolShutdownIdempotent(t *testing.T) {
	p := NewPool(2)
	p.Shutdown()
	p.Shutdown()
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	p := NewPool(2)
	p.Shutdown()
	f := p.Submit(context.Background(), &stubRunner{}, "q")
	if _, err := f.Wait(); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPoolDefaultSize(t *testing.T) {
	p := NewPool(0)
	defer p.Shutdown()
	f := p.Submit(context.Background(), &stubRunner{}, "q")
	if _, err := f.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
