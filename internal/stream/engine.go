package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/quillview/pagetutor/internal/domain"
	"github.com/quillview/pagetutor/internal/service"
)

// State of the engine. Failed and Completed are terminal for one session;
// a new Run is allowed from either.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request is one chat turn sent to the server: the full prior history plus
// the new user message, and the document's page-marked text. The server
// holds no session memory, so the text rides along on every turn.
type Request struct {
	DocumentID  string             `json:"documentId"`
	TextContent string             `json:"textContent"`
	Messages    []service.ChatTurn `json:"messages"`
}

// Callbacks observe an in-flight session. OnFirst fires once, before the
// first delta is applied; OnDelta fires for every delta, first included, in
// arrival order.
type Callbacks struct {
	OnFirst func()
	OnDelta func(delta string)
}

// Result is the outcome of a completed session.
type Result struct {
	Text   string
	Tokens int
}

// Engine runs one streaming chat session at a time against the server's
// chat endpoint. It owns no message state beyond the accumulating buffer;
// the caller decides what each delta means for the conversation.
type Engine struct {
	serverURL string
	client    *http.Client

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

func NewEngine(serverURL string, client *http.Client) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{
		serverURL: strings.TrimRight(serverURL, "/"),
		client:    client,
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Cancel closes the transport of an in-flight session, if any. The partial
// message already handed to callbacks stays as-is; no further events fire.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Run performs one request/response cycle. Starting a Run while another is
// connecting or streaming fails with ErrActiveRequest; two assistant
// messages must never interleave into one conversation.
func (e *Engine) Run(ctx context.Context, req Request, cb Callbacks) (*Result, error) {
	ctx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer e.release()

	resp, err := e.connect(ctx, req)
	if err != nil {
		e.setState(StateFailed)
		return nil, err
	}
	defer resp.Body.Close()

	var buf strings.Builder
	tokens := 0

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			// One bad frame must not abort a healthy stream.
			slog.Debug("dropping malformed stream frame", "error", err)
			continue
		}

		switch event.Type {
		case EventToken:
			tokens++
			if tokens == 1 {
				e.setState(StateStreaming)
				if cb.OnFirst != nil {
					cb.OnFirst()
				}
			}
			buf.WriteString(event.Value)
			if cb.OnDelta != nil {
				cb.OnDelta(event.Value)
			}
		case EventDone:
			e.setState(StateCompleted)
			return &Result{Text: buf.String(), Tokens: tokens}, nil
		case EventError:
			e.setState(StateFailed)
			return nil, fmt.Errorf("server reported stream failure: %s", event.Value)
		default:
			slog.Debug("dropping unknown stream frame", "type", event.Type)
		}
	}

	e.setState(StateFailed)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return nil, fmt.Errorf("stream ended without completion signal")
}

func (e *Engine) begin(ctx context.Context) (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateConnecting || e.state == StateStreaming {
		return nil, domain.ErrActiveRequest
	}
	ctx, cancel := context.WithCancel(ctx)
	e.state = StateConnecting
	e.cancel = cancel
	return ctx, nil
}

func (e *Engine) connect(ctx context.Context, req Request) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.serverURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("chat request: unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) release() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.mu.Unlock()
}
