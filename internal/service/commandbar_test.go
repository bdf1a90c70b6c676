package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/linkvault/companion-core/internal/errors"
	"github.com/linkvault/companion-core/internal/command"
	"github.com/linkvault/companion-core/internal/model"
	"github.com/linkvault/companion-core/internal/transcribe"
)

type fakeTranscriber struct {
	mu       sync.Mutex
	results  chan transcribe.Result
	startErr error
	started  int
	stopped  int
}

func newFakeTranscriber() *fakeTranscriber {
	return &fakeTranscriber{results: make(chan transcribe.Result, 16)}
}

func (f *fakeTranscriber) Start(ctx context.Context, locale string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	return nil
}

func (f *fakeTranscriber) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return nil
}

func (f *fakeTranscriber) Results() <-chan transcribe.Result {
	return f.results
}

type noopNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (n *noopNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, message)
}

func (n *noopNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return ""
	}
	return n.notices[len(n.notices)-1]
}

func newBarService(t *fakeTranscriber, n *noopNotifier) *CommandBarService {
	executor := command.NewExecutor(n, 60, time.Millisecond)
	return NewCommandBarService(t, executor, n, "en-US")
}

func TestToggleRecording(t *testing.T) {
	ctx := context.Background()

	t.Run("idle to recording to processing", func(t *testing.T) {
		transcriber := newFakeTranscriber()
		svc := newBarService(transcriber, &noopNotifier{})

		state, err := svc.ToggleRecording(ctx)
		assert.NoError(t, err)
		assert.Equal(t, model.RecordingActive, state)

		state, err = svc.ToggleRecording(ctx)
		assert.NoError(t, err)
		assert.Equal(t, model.RecordingProcessing, state)
		assert.Equal(t, 1, transcriber.stopped)
	})

	t.Run("toggle while processing is a no-op", func(t *testing.T) {
		transcriber := newFakeTranscriber()
		svc := newBarService(transcriber, &noopNotifier{})

		svc.ToggleRecording(ctx)
		svc.ToggleRecording(ctx)

		state, err := svc.ToggleRecording(ctx)
		assert.NoError(t, err)
		assert.Equal(t, model.RecordingProcessing, state)
		assert.Equal(t, 1, transcriber.started)
		assert.Equal(t, 1, transcriber.stopped)
	})

	t.Run("start failure stays idle", func(t *testing.T) {
		transcriber := newFakeTranscriber()
		transcriber.startErr = apperrors.RecognizerUnavailable(assert.AnError)
		svc := newBarService(transcriber, &noopNotifier{})

		_, err := svc.ToggleRecording(ctx)
		assert.Equal(t, apperrors.ErrCodeRecognizerUnavailable, apperrors.GetCode(err))
		assert.Equal(t, model.RecordingIdle, svc.State())
	})

	t.Run("final transcript executes command and resets", func(t *testing.T) {
		transcriber := newFakeTranscriber()
		notifier := &noopNotifier{}
		svc := newBarService(transcriber, notifier)

		svc.ToggleRecording(ctx)
		svc.ToggleRecording(ctx)

		transcriber.results <- transcribe.Result{Kind: transcribe.KindPartial, Text: "set vol"}
		transcriber.results <- transcribe.Result{Kind: transcribe.KindFinal, Text: "set volume to 40"}

		assert.Eventually(t, func() bool {
			return svc.State() == model.RecordingIdle
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, "Volume set to 40", notifier.last())
	})

	t.Run("disabled transcription saves audio", func(t *testing.T) {
		transcriber := newFakeTranscriber()
		notifier := &noopNotifier{}
		svc := newBarService(transcriber, notifier)

		svc.ToggleRecording(ctx)
		svc.ToggleRecording(ctx)
		transcriber.results <- transcribe.Result{Kind: transcribe.KindFinal, AudioPath: "/tmp/capture.wav"}

		assert.Eventually(t, func() bool {
			return svc.State() == model.RecordingIdle
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, "Transcription is unavailable, audio saved", notifier.last())
	})

	t.Run("transcription error notifies and resets", func(t *testing.T) {
		transcriber := newFakeTranscriber()
		notifier := &noopNotifier{}
		svc := newBarService(transcriber, notifier)

		svc.ToggleRecording(ctx)
		svc.ToggleRecording(ctx)
		transcriber.results <- transcribe.Result{Kind: transcribe.KindError, Err: assert.AnError}

		assert.Eventually(t, func() bool {
			return svc.State() == model.RecordingIdle
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, "Could not transcribe your command", notifier.last())
	})

	t.Run("partial text tracked during session", func(t *testing.T) {
		transcriber := newFakeTranscriber()
		svc := newBarService(transcriber, &noopNotifier{})

		svc.ToggleRecording(ctx)
		transcriber.results <- transcribe.Result{Kind: transcribe.KindPartial, Text: "shut"}

		assert.Eventually(t, func() bool {
			return svc.PartialText() == "shut"
		}, time.Second, 5*time.Millisecond)
	})
}

func TestSubmitText(t *testing.T) {
	t.Run("runs command regardless of recording state", func(t *testing.T) {
		transcriber := newFakeTranscriber()
		notifier := &noopNotifier{}
		svc := newBarService(transcriber, notifier)

		svc.ToggleRecording(context.Background())

		intent, err := svc.SubmitText("lock the screen")
		assert.NoError(t, err)
		assert.Equal(t, model.IntentLock, intent.Kind)
		assert.Equal(t, model.RecordingActive, svc.State())
	})

	t.Run("empty text rejected", func(t *testing.T) {
		svc := newBarService(newFakeTranscriber(), &noopNotifier{})

		_, err := svc.SubmitText("")
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})
}
