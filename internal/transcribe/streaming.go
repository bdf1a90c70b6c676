package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	apperrors "github.com/linkvault/companion-core/internal/errors"
)

// StreamingTranscriber talks to an on-device speech recognizer over a
// websocket. The recognizer pushes partial transcripts while the user
// speaks and a final transcript when the session stops.
type StreamingTranscriber struct {
	recognizerURL string

	mu      sync.Mutex
	conn    *websocket.Conn
	results chan Result
	done    chan struct{}
}

func NewStreamingTranscriber(recognizerURL string) *StreamingTranscriber {
	return &StreamingTranscriber{
		recognizerURL: recognizerURL,
		results:       make(chan Result, 16),
	}
}

type recognizerMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

func (t *StreamingTranscriber) Start(ctx context.Context, locale string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return apperrors.New(apperrors.ErrCodeConflict, "A transcription session is already running")
	}

	wsURL, err := listenURL(t.recognizerURL, locale)
	if err != nil {
		return apperrors.RecognizerUnavailable(err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return apperrors.RecognizerUnavailable(err)
	}

	t.conn = conn
	t.done = make(chan struct{})
	go t.readLoop(conn, t.done)

	log.Info().Str("locale", locale).Msg("streaming transcription started")
	return nil
}

func (t *StreamingTranscriber) Stop(ctx context.Context) error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	// Ask the recognizer to flush the final transcript. The read loop
	// keeps draining until the server closes the connection.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`)); err != nil {
		_ = conn.Close()
		return apperrors.RecognizerUnavailable(err)
	}
	return nil
}

func (t *StreamingTranscriber) Results() <-chan Result {
	return t.results
}

func (t *StreamingTranscriber) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer conn.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			// The session must always end in exactly one terminal
			// result. A clean close before a final transcript means
			// the recognizer heard nothing.
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				t.emit(Result{Kind: KindFinal})
			} else {
				t.emit(Result{Kind: KindError, Err: apperrors.RecognizerUnavailable(err)})
			}
			return
		}

		var msg recognizerMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}

		switch strings.ToLower(msg.Type) {
		case "partial":
			t.emit(Result{Kind: KindPartial, Text: msg.Text})
		case "final":
			t.emit(Result{Kind: KindFinal, Text: msg.Text})
			return
		case "error":
			t.emit(Result{Kind: KindError, Err: apperrors.TranscriptionFailed(msg.Message)})
			return
		}
	}
}

func (t *StreamingTranscriber) emit(result Result) {
	select {
	case t.results <- result:
	default:
		log.Warn().Str("kind", string(result.Kind)).Msg("transcription result buffer full, dropping")
	}
}

func listenURL(base, locale string) (string, error) {
	base = strings.TrimSpace(base)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	u, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid recognizer URL: %w", err)
	}

	query := u.Query()
	if locale != "" {
		query.Set("language", locale)
	}
	query.Set("interim_results", "true")
	u.RawQuery = query.Encode()
	return u.String(), nil
}
