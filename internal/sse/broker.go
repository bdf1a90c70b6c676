package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/linkvault/companion-core/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	Channel string
	Events  chan Event
	Done    chan struct{}
}

// channelGroup is the set of clients watching one channel plus the stop
// signal for that channel's pubsub worker.
type channelGroup struct {
	clients map[*Client]bool
	stop    chan struct{}
}

// Broker fans Redis pub/sub channels out to connected SSE clients. A
// channel's pubsub worker starts with its first client and stops when
// the last one unsubscribes, so watched pairing tokens do not
// accumulate goroutines or Redis subscriptions.
type Broker struct {
	redis  *redisclient.Client
	groups map[string]*channelGroup
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:  redisClient,
		groups: make(map[string]*channelGroup),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *Broker) Subscribe(channel string) *Client {
	client := &Client{
		Channel: channel,
		Events:  make(chan Event, 100),
		Done:    make(chan struct{}),
	}

	b.mu.Lock()
	group, ok := b.groups[channel]
	if !ok {
		group = &channelGroup{
			clients: make(map[*Client]bool),
			stop:    make(chan struct{}),
		}
		b.groups[channel] = group
		go b.subscribeToRedis(channel, group.stop)
	}
	group.clients[client] = true
	clientCount := len(group.clients)
	b.mu.Unlock()

	log.Info().
		Str("channel", channel).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	group, ok := b.groups[client.Channel]
	if !ok || !group.clients[client] {
		return
	}

	delete(group.clients, client)
	close(client.Done)

	if len(group.clients) == 0 {
		close(group.stop)
		delete(b.groups, client.Channel)
	}

	log.Info().
		Str("channel", client.Channel).
		Int("clientCount", len(group.clients)).
		Msg("sse client unsubscribed")
}

func (b *Broker) Publish(ctx context.Context, channel string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.redis.Publish(ctx, channel, data).Err()
}

func (b *Broker) subscribeToRedis(channel string, stop <-chan struct{}) {
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case <-stop:
			log.Debug().
				Str("channel", channel).
				Msg("redis pubsub stopped, no clients left")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(channel, event)
		}
	}
}

func (b *Broker) broadcast(channel string, event Event) {
	b.mu.RLock()
	group := b.groups[channel]
	var clients []*Client
	if group != nil {
		clients = make([]*Client, 0, len(group.clients))
		for client := range group.clients {
			clients = append(clients, client)
		}
	}
	b.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("channel", channel).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, group := range b.groups {
		for client := range group.clients {
			close(client.Done)
		}
	}
	b.groups = make(map[string]*channelGroup)
}

func (b *Broker) ClientCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if group, ok := b.groups[channel]; ok {
		return len(group.clients)
	}
	return 0
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, group := range b.groups {
		total += len(group.clients)
	}
	return total
}
