package transcribe

import "context"

type ResultKind string

const (
	KindPartial ResultKind = "partial"
	KindFinal   ResultKind = "final"
	KindError   ResultKind = "error"
)

// Result is one transcription outcome. Partial results carry interim
// text while a session is live. A final result with empty text and a
// non-empty AudioPath means the audio was captured but transcription is
// disabled.
type Result struct {
	Kind      ResultKind
	Text      string
	AudioPath string
	Err       error
}

// Transcriber captures speech and turns it into text. Start begins a
// capture session; Stop ends it and triggers delivery of the final
// result on the Results channel. Implementations deliver at most one
// final or error result per session.
type Transcriber interface {
	Start(ctx context.Context, locale string) error
	Stop(ctx context.Context) error
	Results() <-chan Result
}
