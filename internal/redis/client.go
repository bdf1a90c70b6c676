package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// UserChannel is the pub/sub channel for a signed-in user's notifications.
func UserChannel(userID string) string {
	return fmt.Sprintf("events:user:%s", userID)
}

// PairingChannel is the pub/sub channel a desktop peer watches for the
// outcome of one pairing token.
func PairingChannel(token string) string {
	return fmt.Sprintf("events:pairing:%s", token)
}

// SessionKey is the auth-provider session mirror (token hash -> user id).
func SessionKey(tokenHash string) string {
	return fmt.Sprintf("auth:session:%s", tokenHash)
}
