package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillview/pagetutor/internal/config"
	"github.com/quillview/pagetutor/internal/service"
	"github.com/quillview/pagetutor/internal/stream"
)

// fakeStreamer replays scripted deltas or fails, recording what it was
// asked to do.
type fakeStreamer struct {
	deltas []string
	err    error

	system string
	turns  []service.ChatTurn
}

func (f *fakeStreamer) StreamChat(_ context.Context, system string, turns []service.ChatTurn, emit func(string) error) error {
	f.system = system
	f.turns = turns
	for _, d := range f.deltas {
		if err := emit(d); err != nil {
			return err
		}
	}
	return f.err
}

func newTestServer(streamer ChatStreamer) *Server {
	return New(&config.Config{RateLimitRPS: 1000}, streamer)
}

func parseFrames(t *testing.T, body string) []stream.Event {
	t.Helper()
	var events []stream.Event
	for _, line := range strings.Split(body, "\n") {
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev stream.Event
		require.NoError(t, json.Unmarshal([]byte(data), &ev))
		events = append(events, ev)
	}
	return events
}

func TestChatStreamsTokensThenDone(t *testing.T) {
	streamer := &fakeStreamer{deltas: []string{"Hel", "lo"}}
	router := newTestServer(streamer).Router()

	body := `{"messages":[{"role":"user","content":"hi"}],"documentId":"d1","textContent":"\n--- PAGE 1 ---\nstuff\n"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")

	events := parseFrames(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, stream.Event{Type: stream.EventToken, Value: "Hel"}, events[0])
	assert.Equal(t, stream.Event{Type: stream.EventToken, Value: "lo"}, events[1])
	assert.Equal(t, stream.EventDone, events[2].Type)

	assert.Contains(t, streamer.system, "--- PAGE 1 ---")
	require.Len(t, streamer.turns, 1)
	assert.Equal(t, "hi", streamer.turns[0].Content)
}

func TestChatWithoutDocumentUsesFallbackPrompt(t *testing.T) {
	streamer := &fakeStreamer{deltas: []string{"ok"}}
	router := newTestServer(streamer).Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, service.FallbackPrompt, streamer.system)
}

func TestChatUpstreamFailureEmitsErrorFrame(t *testing.T) {
	streamer := &fakeStreamer{deltas: []string{"par"}, err: errors.New("socket torn")}
	router := newTestServer(streamer).Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"messages":[],"documentId":"d1","textContent":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	events := parseFrames(t, rec.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, stream.EventError, last.Type)
	// Internal error text must not leak to the client.
	assert.NotContains(t, last.Value, "socket torn")
}

func TestChatRejectsInvalidBody(t *testing.T) {
	router := newTestServer(&fakeStreamer{}).Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{nope"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadPlainText(t *testing.T) {
	router := newTestServer(&fakeStreamer{}).Router()

	body, contentType := multipartBody(t, "notes.txt", []byte("hello world"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "notes.txt", resp.Name)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Equal(t, "\n--- PAGE 1 ---\nhello world\n", resp.TextContent)
}

func TestUploadMissingFile(t *testing.T) {
	router := newTestServer(&fakeStreamer{}).Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestUploadUnreadablePayload(t *testing.T) {
	router := newTestServer(&fakeStreamer{}).Router()

	body, contentType := multipartBody(t, "data.bin", []byte{0xff, 0xfe, 0x80})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unsupported document format", resp["error"])
}

func TestRateLimitKicksIn(t *testing.T) {
	router := New(&config.Config{RateLimitRPS: 0.001}, &fakeStreamer{}).Router()

	codes := make([]int, 0, config.RateLimitBurst+1)
	for i := 0; i <= config.RateLimitBurst; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[len(codes)-1])
}

func TestHealthz(t *testing.T) {
	router := newTestServer(&fakeStreamer{}).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
