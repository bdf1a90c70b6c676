package command

import (
	"regexp"
	"strings"

	"github.com/linkvault/companion-core/internal/model"
)

// keywordRule binds an intent kind to the substrings that trigger it.
// Rules are checked in order and the first hit wins, so a command
// mentioning several actions resolves to the earliest rule.
type keywordRule struct {
	kind     model.IntentKind
	keywords []string
}

var rules = []keywordRule{
	{model.IntentShutdown, []string{"shutdown", "shut down", "power off"}},
	{model.IntentRestart, []string{"restart", "reboot"}},
	{model.IntentLock, []string{"lock"}},
	{model.IntentSleep, []string{"sleep"}},
	{model.IntentPlay, []string{"play"}},
	{model.IntentPause, []string{"pause"}},
	{model.IntentScreenshot, []string{"screenshot", "screen shot"}},
	{model.IntentSetVolume, []string{"volume"}},
}

var digitRun = regexp.MustCompile(`\d+`)

// Classify maps raw command text to an intent. Matching is
// case-insensitive substring search. Volume commands carry the first
// number found in the text, or fallbackVolume when no number is spoken.
func Classify(rawText string, fallbackVolume int) model.CommandIntent {
	intent := model.CommandIntent{
		Kind:    model.IntentGeneric,
		RawText: rawText,
	}

	lowered := strings.ToLower(rawText)
	for _, rule := range rules {
		if !containsAny(lowered, rule.keywords) {
			continue
		}
		intent.Kind = rule.kind
		if rule.kind == model.IntentSetVolume {
			level := fallbackVolume
			if match := digitRun.FindString(rawText); match != "" {
				level = parseDigits(match)
			}
			intent.Parameter = &level
		}
		return intent
	}
	return intent
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// parseDigits converts a digit run without strconv error handling; the
// regexp guarantees the input is all ASCII digits. Overflow is not a
// concern because out-of-range volumes are rejected downstream.
func parseDigits(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
		if n > 1000 {
			return n
		}
	}
	return n
}
