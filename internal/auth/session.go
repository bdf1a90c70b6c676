package auth

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	redisclient "github.com/linkvault/companion-core/internal/redis"
)

// SessionStore resolves an access token hash to the signed-in user id.
// Sessions are written by the external auth provider; this service only
// reads the mirror.
type SessionStore interface {
	UserIDForToken(ctx context.Context, tokenHash string) (string, error)
}

type redisSessionStore struct {
	redis *redisclient.Client
}

func NewRedisSessionStore(client *redisclient.Client) SessionStore {
	return &redisSessionStore{redis: client}
}

func (s *redisSessionStore) UserIDForToken(ctx context.Context, tokenHash string) (string, error) {
	userID, err := s.redis.Get(ctx, redisclient.SessionKey(tokenHash)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}
