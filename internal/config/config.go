package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL    string `env:"REDIS_URL,required,notEmpty"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Voice pipeline. An empty RecognizerURL selects the batch
	// (record-then-upload) fallback; an empty TranscribeAPIKey disables
	// batch transcription entirely (audio is kept, nothing is uploaded).
	RecognizerURL        string `env:"RECOGNIZER_URL"`
	RecognizerLocale     string `env:"RECOGNIZER_LOCALE" envDefault:"en-US"`
	TranscribeAPIKey     string `env:"TRANSCRIBE_API_KEY"`
	TranscribeBaseURL    string `env:"TRANSCRIBE_BASE_URL" envDefault:"https://api.assemblyai.com/v2"`
	TranscribePollSecs   int    `env:"TRANSCRIBE_POLL_SECONDS" envDefault:"2"`
	TranscribePollLimit  int    `env:"TRANSCRIBE_POLL_LIMIT" envDefault:"30"`
	RecorderCommand      string `env:"RECORDER_COMMAND" envDefault:"ffmpeg"`
	RecorderInputDevice  string `env:"RECORDER_INPUT_DEVICE" envDefault:"default"`
	RecorderInputFormat  string `env:"RECORDER_INPUT_FORMAT" envDefault:"pulse"`

	// Command executor
	DefaultVolume   int `env:"DEFAULT_VOLUME" envDefault:"60"`
	ActionDelaySecs int `env:"ACTION_DELAY_SECONDS" envDefault:"2"`
	PairingTTLMins  int `env:"PAIRING_TTL_MINUTES" envDefault:"10"`

	// OwnerUserID routes command notifications to that user's event
	// stream. Empty means log-only notifications.
	OwnerUserID string `env:"OWNER_USER_ID"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) TranscribePollInterval() time.Duration {
	return time.Duration(c.TranscribePollSecs) * time.Second
}

func (c *Config) ActionDelay() time.Duration {
	return time.Duration(c.ActionDelaySecs) * time.Second
}

func (c *Config) PairingTTL() time.Duration {
	return time.Duration(c.PairingTTLMins) * time.Minute
}

func (c *Config) Validate() error {
	if c.TranscribePollSecs <= 0 {
		return fmt.Errorf("TRANSCRIBE_POLL_SECONDS must be positive")
	}
	if c.TranscribePollLimit <= 0 {
		return fmt.Errorf("TRANSCRIBE_POLL_LIMIT must be positive")
	}
	if c.DefaultVolume < 0 || c.DefaultVolume > 100 {
		return fmt.Errorf("DEFAULT_VOLUME must be within 0..100")
	}

	if c.RecognizerURL == "" && c.TranscribeAPIKey == "" {
		log.Warn().Msg("no RECOGNIZER_URL and no TRANSCRIBE_API_KEY: voice commands will record audio without transcribing")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
