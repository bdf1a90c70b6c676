package model

type IntentKind string

const (
	IntentShutdown   IntentKind = "shutdown"
	IntentRestart    IntentKind = "restart"
	IntentLock       IntentKind = "lock"
	IntentSleep      IntentKind = "sleep"
	IntentPlay       IntentKind = "play"
	IntentPause      IntentKind = "pause"
	IntentScreenshot IntentKind = "screenshot"
	IntentSetVolume  IntentKind = "setVolume"
	IntentGeneric    IntentKind = "generic"
)

// CommandIntent is the classified purpose of one submitted command string.
type CommandIntent struct {
	Kind      IntentKind `json:"kind"`
	RawText   string     `json:"rawText"`
	Parameter *int       `json:"parameter,omitempty"`
}

// Action states recorded in the simulated system status map.
const (
	ActionStatePending = "pending"
	ActionStateDone    = "done"
)
