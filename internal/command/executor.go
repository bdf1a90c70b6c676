package command

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/linkvault/companion-core/internal/model"
	"github.com/linkvault/companion-core/internal/notify"
)

const (
	MinVolume = 0
	MaxVolume = 100
)

// Executor runs classified commands against a simulated desktop. System
// actions do not touch the host; they update the status map so clients
// can observe the pending -> done transition, and every command raises
// a notification.
type Executor struct {
	mu          sync.Mutex
	status      map[model.IntentKind]string
	volume      int
	playing     bool
	notifier    notify.Notifier
	actionDelay time.Duration
}

func NewExecutor(notifier notify.Notifier, defaultVolume int, actionDelay time.Duration) *Executor {
	return &Executor{
		status:      make(map[model.IntentKind]string),
		volume:      defaultVolume,
		notifier:    notifier,
		actionDelay: actionDelay,
	}
}

// Execute classifies rawText and applies the resulting intent. The
// returned intent reflects the classification even when the command is
// rejected.
func (e *Executor) Execute(rawText string) model.CommandIntent {
	e.mu.Lock()
	intent := Classify(rawText, e.volume)

	log.Info().
		Str("kind", string(intent.Kind)).
		Str("rawText", rawText).
		Msg("executing command")

	switch intent.Kind {
	case model.IntentShutdown, model.IntentRestart, model.IntentLock, model.IntentSleep:
		e.scheduleSystemAction(intent.Kind)
		e.mu.Unlock()
		e.notifier.Notify("System", fmt.Sprintf("%s initiated", intent.Kind))

	case model.IntentPlay:
		e.playing = true
		e.mu.Unlock()
		e.notifier.Notify("Media", "Playback started")

	case model.IntentPause:
		e.playing = false
		e.mu.Unlock()
		e.notifier.Notify("Media", "Playback paused")

	case model.IntentScreenshot:
		e.status[model.IntentScreenshot] = model.ActionStateDone
		e.mu.Unlock()
		e.notifier.Notify("Screenshot", "Screenshot captured")

	case model.IntentSetVolume:
		level := *intent.Parameter
		if level < MinVolume || level > MaxVolume {
			e.mu.Unlock()
			e.notifier.Notify("Volume", fmt.Sprintf("Volume %d is out of range", level))
			break
		}
		e.volume = level
		e.mu.Unlock()
		e.notifier.Notify("Volume", fmt.Sprintf("Volume set to %d", level))

	default:
		e.mu.Unlock()
		e.notifier.Notify("Command", fmt.Sprintf("Command received: %s", rawText))
	}

	return intent
}

// scheduleSystemAction marks the action pending and flips it to done
// after the configured delay. Caller holds the mutex.
func (e *Executor) scheduleSystemAction(kind model.IntentKind) {
	e.status[kind] = model.ActionStatePending
	time.AfterFunc(e.actionDelay, func() {
		e.mu.Lock()
		e.status[kind] = model.ActionStateDone
		e.mu.Unlock()
	})
}

// Status returns a copy of the simulated action states.
func (e *Executor) Status() map[model.IntentKind]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[model.IntentKind]string, len(e.status))
	for k, v := range e.status {
		out[k] = v
	}
	return out
}

func (e *Executor) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Executor) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}
