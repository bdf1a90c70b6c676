package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linkvault/companion-core/internal/model"
)

func TestClassify(t *testing.T) {
	t.Run("system commands", func(t *testing.T) {
		cases := map[string]model.IntentKind{
			"shutdown the computer": model.IntentShutdown,
			"please SHUT DOWN":      model.IntentShutdown,
			"restart now":           model.IntentRestart,
			"reboot the machine":    model.IntentRestart,
			"lock the screen":       model.IntentLock,
			"go to sleep":           model.IntentSleep,
			"play some music":       model.IntentPlay,
			"pause the video":       model.IntentPause,
			"take a screenshot":     model.IntentScreenshot,
		}
		for text, want := range cases {
			intent := Classify(text, 50)
			assert.Equal(t, want, intent.Kind, "text: %s", text)
			assert.Equal(t, text, intent.RawText)
		}
	})

	t.Run("first keyword wins", func(t *testing.T) {
		intent := Classify("shutdown and restart", 50)
		assert.Equal(t, model.IntentShutdown, intent.Kind)
	})

	t.Run("volume with number", func(t *testing.T) {
		intent := Classify("Set volume to 85", 50)
		assert.Equal(t, model.IntentSetVolume, intent.Kind)
		assert.NotNil(t, intent.Parameter)
		assert.Equal(t, 85, *intent.Parameter)
	})

	t.Run("volume uses first number", func(t *testing.T) {
		intent := Classify("volume 30 not 90", 50)
		assert.Equal(t, 30, *intent.Parameter)
	})

	t.Run("volume without number falls back", func(t *testing.T) {
		intent := Classify("volume up", 60)
		assert.Equal(t, model.IntentSetVolume, intent.Kind)
		assert.Equal(t, 60, *intent.Parameter)
	})

	t.Run("unrecognized text is generic", func(t *testing.T) {
		intent := Classify("turn off now", 50)
		assert.Equal(t, model.IntentGeneric, intent.Kind)
		assert.Nil(t, intent.Parameter)
	})

	t.Run("empty text is generic", func(t *testing.T) {
		intent := Classify("", 50)
		assert.Equal(t, model.IntentGeneric, intent.Kind)
	})
}
