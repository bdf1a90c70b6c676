package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/linkvault/companion-core/internal/errors"
)

// BatchConfig controls the hosted transcription API client.
type BatchConfig struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	PollLimit    int
}

// BatchTranscriber records audio locally, then uploads the file to a
// hosted transcription API and polls for the transcript. An empty API
// key disables the upload: the session still records, and the final
// result carries only the audio path.
type BatchTranscriber struct {
	cfg      BatchConfig
	recorder Recorder
	gate     PermissionGate
	client   *http.Client
	results  chan Result
}

func NewBatchTranscriber(cfg BatchConfig, recorder Recorder, gate PermissionGate, client *http.Client) *BatchTranscriber {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.assemblyai.com/v2"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PollLimit <= 0 {
		cfg.PollLimit = 30
	}
	if gate == nil {
		gate = NewAllowAllGate()
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &BatchTranscriber{
		cfg:      cfg,
		recorder: recorder,
		gate:     gate,
		client:   client,
		results:  make(chan Result, 16),
	}
}

func (t *BatchTranscriber) Start(ctx context.Context, locale string) error {
	if err := t.gate.CheckMicrophone(ctx); err != nil {
		return apperrors.PermissionDenied("microphone").WithCause(err)
	}
	if err := t.recorder.Begin(ctx); err != nil {
		return apperrors.RecognizerUnavailable(err)
	}
	log.Info().Str("locale", locale).Msg("batch recording started")
	return nil
}

func (t *BatchTranscriber) Stop(ctx context.Context) error {
	audioPath, err := t.recorder.End(ctx)
	if err != nil {
		return apperrors.TranscriptionFailed(err.Error())
	}

	go t.process(ctx, audioPath)
	return nil
}

func (t *BatchTranscriber) Results() <-chan Result {
	return t.results
}

func (t *BatchTranscriber) process(ctx context.Context, audioPath string) {
	if t.cfg.APIKey == "" {
		log.Info().Str("audioPath", audioPath).Msg("transcription disabled, keeping audio file")
		t.results <- Result{Kind: KindFinal, AudioPath: audioPath}
		return
	}

	text, err := t.transcribeFile(ctx, audioPath)
	if err != nil {
		t.results <- Result{Kind: KindError, AudioPath: audioPath, Err: err}
		return
	}
	t.results <- Result{Kind: KindFinal, Text: text, AudioPath: audioPath}
}

func (t *BatchTranscriber) transcribeFile(ctx context.Context, audioPath string) (string, error) {
	audioURL, err := t.upload(ctx, audioPath)
	if err != nil {
		return "", err
	}

	transcriptID, err := t.createTranscript(ctx, audioURL)
	if err != nil {
		return "", err
	}

	return t.poll(ctx, transcriptID)
}

func (t *BatchTranscriber) upload(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", apperrors.TranscriptionFailed(err.Error())
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/upload", file)
	if err != nil {
		return "", apperrors.External("transcription upload", err)
	}
	req.Header.Set("authorization", t.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var body struct {
		UploadURL string `json:"upload_url"`
	}
	if err := t.do(req, &body); err != nil {
		return "", err
	}
	if body.UploadURL == "" {
		return "", apperrors.TranscriptionFailed("upload returned no url")
	}
	return body.UploadURL, nil
}

func (t *BatchTranscriber) createTranscript(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", apperrors.TranscriptionFailed(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.External("transcription create", err)
	}
	req.Header.Set("authorization", t.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var body struct {
		ID string `json:"id"`
	}
	if err := t.do(req, &body); err != nil {
		return "", err
	}
	if body.ID == "" {
		return "", apperrors.TranscriptionFailed("transcript request returned no id")
	}
	return body.ID, nil
}

func (t *BatchTranscriber) poll(ctx context.Context, transcriptID string) (string, error) {
	for attempt := 0; attempt < t.cfg.PollLimit; attempt++ {
		select {
		case <-ctx.Done():
			return "", apperrors.TranscriptionFailed(ctx.Err().Error())
		case <-time.After(t.cfg.PollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.BaseURL+"/transcript/"+transcriptID, nil)
		if err != nil {
			return "", apperrors.External("transcription poll", err)
		}
		req.Header.Set("authorization", t.cfg.APIKey)

		var body struct {
			Status string `json:"status"`
			Text   string `json:"text"`
			Error  string `json:"error"`
		}
		if err := t.do(req, &body); err != nil {
			return "", err
		}

		switch body.Status {
		case "completed":
			return body.Text, nil
		case "error":
			return "", apperrors.TranscriptionFailed(body.Error)
		}
	}
	return "", apperrors.TranscriptionTimeout(t.cfg.PollLimit)
}

func (t *BatchTranscriber) do(req *http.Request, out any) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return apperrors.External("transcription api", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.TranscriptionFailed(fmt.Sprintf("api returned %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
