package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/linkvault/companion-core/internal/middleware"
	redisclient "github.com/linkvault/companion-core/internal/redis"
	"github.com/linkvault/companion-core/internal/sse"
)

// brokenWriter fails every write, standing in for a client that went
// away before the stream got going.
type brokenWriter struct {
	httptest.ResponseRecorder
}

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func (w *brokenWriter) Flush() {}

func newEventsBroker(t *testing.T) *sse.Broker {
	t.Helper()
	broker := sse.NewBroker(&redisclient.Client{
		Client: goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}),
	})
	t.Cleanup(broker.Close)
	return broker
}

func TestEventsHandler_ServeHTTP(t *testing.T) {
	t.Run("rejects request without session or pairing token", func(t *testing.T) {
		handler := NewEventsHandler(newEventsBroker(t))

		req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("streams connected event for a signed-in user", func(t *testing.T) {
		handler := NewEventsHandler(newEventsBroker(t))

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		ctx = context.WithValue(ctx, middleware.UserContextKey, "user-1")

		req := httptest.NewRequest(http.MethodGet, "/v1/events", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		assert.Contains(t, body, "event: connected\n")
		assert.Contains(t, body, `"userId":"user-1"`)
	})

	t.Run("closes the stream when the connected event cannot be written", func(t *testing.T) {
		handler := NewEventsHandler(newEventsBroker(t))

		ctx := context.WithValue(context.Background(), middleware.UserContextKey, "user-1")
		req := httptest.NewRequest(http.MethodGet, "/v1/events", nil).WithContext(ctx)

		done := make(chan struct{})
		go func() {
			defer close(done)
			handler.ServeHTTP(&brokenWriter{}, req)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler kept streaming after a failed write")
		}
	})
}

func TestEventsHandler_SendEvent(t *testing.T) {
	handler := NewEventsHandler(nil)
	rec := httptest.NewRecorder()

	err := handler.sendEvent(rec, rec, "pairing_approved", map[string]string{"token": "tok-1"})
	assert.NoError(t, err)

	lines := strings.Split(rec.Body.String(), "\n")
	assert.Equal(t, "event: pairing_approved", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "data: "))

	var payload map[string]string
	assert.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &payload))
	assert.Equal(t, "tok-1", payload["token"])
}

func TestEventsHandler_SendRawEvent(t *testing.T) {
	handler := NewEventsHandler(nil)
	rec := httptest.NewRecorder()

	event := sse.Event{Type: "command_done", Data: json.RawMessage(`{"id":"cmd-1"}`)}
	assert.NoError(t, handler.sendRawEvent(rec, rec, event))
	assert.Equal(t, "event: command_done\ndata: {\"id\":\"cmd-1\"}\n\n", rec.Body.String())
}
