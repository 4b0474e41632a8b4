package runtime

import (
	"context"
	"sync"

	"github.com/cultrix/deepresearch/config"
	"github.com/cultrix/deepresearch/internal/logsink"
)

// Runtime guards the once-per-process handle. Construction runs under the
// lock, so a second caller waits instead of racing a half-built graph.
// After the first success, later calls return the existing handle and
// ignore their model identifier - reuse, not reconfiguration. A failed
// construction leaves the slot empty so the next call can retry.
type Runtime struct {
	cfg  *config.Config
	sink *logsink.Buffer

	mu     sync.Mutex
	handle *Handle
}

func New(cfg *config.Config, sink *logsink.Buffer) *Runtime {
	return &Runtime{cfg: cfg, sink: sink}
}

// Sink returns the log buffer the handle's loggers tee into.
func (r *Runtime) Sink() *logsink.Buffer { return r.sink }

// GetOrCreate returns the process-wide handle, constructing it on first use.
func (r *Runtime) GetOrCreate(ctx context.Context, modelID string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handle != nil {
		return r.handle, nil
	}
	if modelID == "" {
		modelID = r.cfg.LLM.DefaultModel
	}
	// Re-read secrets the UI may have updated since config load.
	r.cfg.Normalize()
	h, err := buildHandle(ctx, r.cfg, modelID, r.sink)
	if err != nil {
		return nil, err
	}
	r.handle = h
	return h, nil
}

// Close releases the handle if one was built.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handle == nil {
		return nil
	}
	err := r.handle.Close()
	r.handle = nil
	return err
}
