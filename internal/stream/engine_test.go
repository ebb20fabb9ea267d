package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillview/pagetutor/internal/domain"
)

// sseServer replays raw SSE lines for every chat request.
func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
			flusher.Flush()
		}
	}))
}

func tokenFrame(value string) string {
	data, _ := json.Marshal(Event{Type: EventToken, Value: value})
	return "data: " + string(data)
}

func TestRunAssemblesDeltasInArrivalOrder(t *testing.T) {
	srv := sseServer(t,
		tokenFrame("Hel"),
		tokenFrame("lo [Page"),
		tokenFrame(" 2]"),
		`data: {"type":"done"}`,
	)
	defer srv.Close()

	engine := NewEngine(srv.URL, srv.Client())

	firstCalls := 0
	var deltas []string
	result, err := engine.Run(context.Background(), Request{DocumentID: "doc1"}, Callbacks{
		OnFirst: func() { firstCalls++ },
		OnDelta: func(d string) { deltas = append(deltas, d) },
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello [Page 2]", result.Text)
	assert.Equal(t, 3, result.Tokens)
	assert.Equal(t, 1, firstCalls)
	assert.Equal(t, []string{"Hel", "lo [Page", " 2]"}, deltas)
	assert.Equal(t, StateCompleted, engine.State())
}

func TestRunDropsMalformedFrames(t *testing.T) {
	srv := sseServer(t,
		tokenFrame("A"),
		`data: {not valid json`,
		`: comment line`,
		`event: ping`,
		`data: {"type":"mystery","value":"?"}`,
		tokenFrame("B"),
		`data: {"type":"done"}`,
	)
	defer srv.Close()

	engine := NewEngine(srv.URL, srv.Client())
	result, err := engine.Run(context.Background(), Request{}, Callbacks{})

	require.NoError(t, err)
	assert.Equal(t, "AB", result.Text)
	assert.Equal(t, 2, result.Tokens)
}

func TestRunErrorFrame(t *testing.T) {
	srv := sseServer(t,
		tokenFrame("partial"),
		`data: {"type":"error","value":"upstream blew up"}`,
	)
	defer srv.Close()

	engine := NewEngine(srv.URL, srv.Client())
	result, err := engine.Run(context.Background(), Request{}, Callbacks{})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "upstream blew up")
	assert.Equal(t, StateFailed, engine.State())
}

func TestRunStreamEndsWithoutDone(t *testing.T) {
	srv := sseServer(t, tokenFrame("trunc"))
	defer srv.Close()

	engine := NewEngine(srv.URL, srv.Client())
	result, err := engine.Run(context.Background(), Request{}, Callbacks{})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, StateFailed, engine.State())
}

func TestRunConnectionRefused(t *testing.T) {
	engine := NewEngine("http://127.0.0.1:1", nil)

	firstCalls := 0
	result, err := engine.Run(context.Background(), Request{}, Callbacks{
		OnFirst: func() { firstCalls++ },
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Zero(t, firstCalls)
	assert.Equal(t, StateFailed, engine.State())
}

func TestRunNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	engine := NewEngine(srv.URL, srv.Client())
	_, err := engine.Run(context.Background(), Request{}, Callbacks{})

	require.Error(t, err)
	assert.Equal(t, StateFailed, engine.State())
}

func TestRunRejectsConcurrentSession(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "%s\n\n", tokenFrame("x"))
		flusher.Flush()
		close(started)
		<-release
		fmt.Fprint(w, "data: {\"type\":\"done\"}\n\n")
		flusher.Flush()
	}))
	defer srv.Close()
	defer close(release)

	engine := NewEngine(srv.URL, srv.Client())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = engine.Run(context.Background(), Request{}, Callbacks{})
	}()

	<-started
	_, err := engine.Run(context.Background(), Request{}, Callbacks{})
	assert.ErrorIs(t, err, domain.ErrActiveRequest)

	release <- struct{}{}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first session never finished")
	}
}

func TestCancelAbortsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "%s\n\n", tokenFrame("never finishes"))
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	engine := NewEngine(srv.URL, srv.Client())

	errCh := make(chan error, 1)
	go func() {
		_, err := engine.Run(context.Background(), Request{}, Callbacks{})
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		return engine.State() == StateStreaming
	}, 5*time.Second, 10*time.Millisecond)

	engine.Cancel()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Equal(t, StateFailed, engine.State())
	case <-time.After(5 * time.Second):
		t.Fatal("cancel did not abort the session")
	}
}
