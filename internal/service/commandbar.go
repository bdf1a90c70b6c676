package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/linkvault/companion-core/internal/audit"
	"github.com/linkvault/companion-core/internal/command"
	apperrors "github.com/linkvault/companion-core/internal/errors"
	"github.com/linkvault/companion-core/internal/model"
	"github.com/linkvault/companion-core/internal/notify"
	"github.com/linkvault/companion-core/internal/transcribe"
)

// CommandBarService drives the voice command bar: a toggle that starts
// and stops speech capture, plus direct text submission. Results from
// the transcriber feed the command executor.
type CommandBarService struct {
	transcriber transcribe.Transcriber
	executor    *command.Executor
	notifier    notify.Notifier
	locale      string

	mu          sync.Mutex
	state       model.RecordingState
	partialText string
}

func NewCommandBarService(transcriber transcribe.Transcriber, executor *command.Executor, notifier notify.Notifier, locale string) *CommandBarService {
	return &CommandBarService{
		transcriber: transcriber,
		executor:    executor,
		notifier:    notifier,
		locale:      locale,
		state:       model.RecordingIdle,
	}
}

// ToggleRecording flips capture on or off. Toggling while a previous
// session is still processing is a no-op so a final transcript is never
// lost to an eager second tap.
func (s *CommandBarService) ToggleRecording(ctx context.Context) (model.RecordingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case model.RecordingProcessing:
		return s.state, nil

	case model.RecordingIdle:
		if err := s.transcriber.Start(ctx, s.locale); err != nil {
			return s.state, err
		}
		s.state = model.RecordingActive
		s.partialText = ""
		go s.consumeResults()
		audit.Log(ctx, audit.Event{Type: audit.EventRecordingStarted})
		return s.state, nil

	default: // recording
		s.state = model.RecordingProcessing
		if err := s.transcriber.Stop(context.WithoutCancel(ctx)); err != nil {
			s.state = model.RecordingIdle
			return s.state, err
		}
		audit.Log(ctx, audit.Event{Type: audit.EventRecordingStopped})
		return s.state, nil
	}
}

// SubmitText runs typed command text directly, regardless of recording
// state.
func (s *CommandBarService) SubmitText(text string) (model.CommandIntent, error) {
	if text == "" {
		return model.CommandIntent{}, apperrors.MissingRequired("text")
	}
	return s.executor.Execute(text), nil
}

func (s *CommandBarService) State() model.RecordingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PartialText is the latest interim transcript of a live session.
func (s *CommandBarService) PartialText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partialText
}

// consumeResults drains one session's transcription results. It exits
// after a final or error result and returns the bar to idle.
func (s *CommandBarService) consumeResults() {
	for result := range s.transcriber.Results() {
		switch result.Kind {
		case transcribe.KindPartial:
			s.mu.Lock()
			s.partialText = result.Text
			s.mu.Unlock()

		case transcribe.KindFinal:
			s.finishSession(result)
			return

		case transcribe.KindError:
			log.Error().Err(result.Err).Msg("transcription failed")
			s.notifier.Notify("Voice", "Could not transcribe your command")
			s.reset()
			return
		}
	}
	s.reset()
}

func (s *CommandBarService) finishSession(result transcribe.Result) {
	defer s.reset()

	if result.Text == "" {
		if result.AudioPath != "" {
			s.notifier.Notify("Voice", "Transcription is unavailable, audio saved")
			return
		}
		s.notifier.Notify("Voice", "No speech detected")
		return
	}

	intent := s.executor.Execute(result.Text)
	log.Info().
		Str("kind", string(intent.Kind)).
		Str("text", result.Text).
		Msg("voice command executed")
}

func (s *CommandBarService) reset() {
	s.mu.Lock()
	s.state = model.RecordingIdle
	s.partialText = ""
	s.mu.Unlock()
}
