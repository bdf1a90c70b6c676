package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	redisclient "github.com/linkvault/companion-core/internal/redis"
	"github.com/linkvault/companion-core/internal/sse"
)

// Notifier delivers a user-facing notice. Implementations must not block
// the caller on slow consumers.
type Notifier interface {
	Notify(title, message string)
}

// Notification is the payload pushed to event stream subscribers.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type logNotifier struct{}

// NewLogNotifier returns a Notifier that only writes to the service log.
// Used when no user is attached to the event, and in tests.
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) Notify(title, message string) {
	log.Info().
		Str("title", title).
		Str("message", message).
		Msg("notification")
}

type brokerNotifier struct {
	broker *sse.Broker
	userID string
}

// NewBrokerNotifier returns a Notifier that publishes to the user's
// event channel in addition to the service log.
func NewBrokerNotifier(broker *sse.Broker, userID string) Notifier {
	return &brokerNotifier{broker: broker, userID: userID}
}

func (n *brokerNotifier) Notify(title, message string) {
	notification := Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}

	log.Info().
		Str("notificationId", notification.ID).
		Str("userId", n.userID).
		Str("title", title).
		Str("message", message).
		Msg("notification")

	data, err := json.Marshal(notification)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal notification")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := sse.Event{Type: "notification", Data: data}
	if err := n.broker.Publish(ctx, redisclient.UserChannel(n.userID), event); err != nil {
		log.Error().Err(err).Str("userId", n.userID).Msg("failed to publish notification")
	}
}
