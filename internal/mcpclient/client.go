// Package mcpclient speaks line-delimited JSON-RPC to an external stdio
// tool server and exposes its declared tools.
package mcpclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

const maxFrameBytes = 1 << 20

// Tool is one declared operation on the server.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Client enumerates and calls tools on one server.
type Client interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error)
	Close() error
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      int64          `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      int64          `json:"id"`
	Result  map[string]any `json:"result,omitempty"`
	Error   *rpcError      `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// client is a stdio JSON-RPC client. A single reader goroutine owns the
// output stream and dispatches responses to waiting calls by request ID, so
// a silent server cannot block a caller past its deadline.
type client struct {
	in          io.WriteCloser
	wait        func() error
	callTimeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	seq     int64
	pending map[int64]chan *rpcResponse
	readErr error
	closed  chan struct{}
}

// Start launches the server process and attaches to its stdio. The returned
// client stays open until Close; tool objects obtained from it are only
// valid while the connection lives.
func Start(ctx context.Context, command string, args []string, env []string, callTimeout time.Duration) (Client, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return NewOverPipes(stdin, stdout, cmd.Wait, callTimeout), nil
}

// NewOverPipes builds a client over an existing transport.
func NewOverPipes(in io.WriteCloser, out io.Reader, wait func() error, callTimeout time.Duration) Client {
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	c := &client{
		in:          in,
		wait:        wait,
		callTimeout: callTimeout,
		pending:     map[int64]chan *rpcResponse{},
		closed:      make(chan struct{}),
	}
	go c.readLoop(bufio.NewReader(out))
	return c
}

// readLoop consumes output lines for the life of the connection. Log noise
// and responses nobody is waiting on are dropped.
func (c *client) readLoop(out *bufio.Reader) {
	defer func() {
		c.mu.Lock()
		if c.readErr == nil {
			c.readErr = io.EOF
		}
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.mu.Unlock()
		close(c.closed)
	}()
	for {
		line, err := readFrame(out)
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var resp rpcResponse
		if json.Unmarshal(line, &resp) != nil {
			continue
		}
		c.mu.Lock()
		if ch, ok := c.pending[resp.ID]; ok {
			ch <- &resp
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
	}
}

func readFrame(out *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	for {
		frag, err := out.ReadBytes('\n')
		buf.Write(frag)
		if buf.Len() > maxFrameBytes {
			return nil, errors.New("mcp: frame too large")
		}
		if err == nil {
			return bytes.TrimSpace(buf.Bytes()), nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err == io.EOF && buf.Len() > 0 {
			return bytes.TrimSpace(buf.Bytes()), nil
		}
		return nil, err
	}
}

func (c *client) send(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	c.mu.Lock()
	if c.readErr != nil {
		err := c.readErr
		c.mu.Unlock()
		return nil, fmt.Errorf("mcp: connection down: %w", err)
	}
	c.seq++
	id := c.seq
	ch := make(chan *rpcResponse, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	b, _ := json.Marshal(req)
	b = append(b, '\n')
	// One frame per Write call is not enough: pipe writes are only atomic up
	// to PIPE_BUF, so concurrent callers must not interleave on stdin.
	c.writeMu.Lock()
	_, err := c.in.Write(b)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("mcp: connection closed waiting for %s", method)
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("mcp error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	case <-time.After(c.callTimeout):
		c.forget(id)
		return nil, fmt.Errorf("mcp: timeout waiting for %s", method)
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

func (c *client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *client) ListTools(ctx context.Context) ([]Tool, error) {
	res, err := c.send(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	raw, ok := res["tools"].([]any)
	if !ok {
		return nil, errors.New("mcp: invalid tools/list result")
	}
	out := make([]Tool, 0, len(raw))
	for _, v := range raw {
		b, _ := json.Marshal(v)
		var t Tool
		_ = json.Unmarshal(b, &t)
		out = append(out, t)
	}
	return out, nil
}

func (c *client) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	return c.send(ctx, "tools/call", map[string]any{"name": name, "arguments": args})
}

func (c *client) Close() error {
	_ = c.in.Close()
	if c.wait != nil {
		return c.wait()
	}
	<-c.closed
	return nil
}
