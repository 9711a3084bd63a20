package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"lingua-client/internal/domain"
)

const (
	accessTokenKey  = "lingua:auth:access_token"
	refreshTokenKey = "lingua:auth:refresh_token"
)

// Redis stores the credential pair under two string keys, so headless
// clients (bots, schedulers, multiple worker processes) can share one
// session. Tokens carry no TTL here: lifetime is governed by the server
// and the clear-on-failure rules, not by cache expiry.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Load(ctx context.Context) (domain.TokenPair, error) {
	values, err := r.client.MGet(ctx, accessTokenKey, refreshTokenKey).Result()
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("load credentials: %w", err)
	}
	pair := domain.TokenPair{}
	if s, ok := values[0].(string); ok {
		pair.AccessToken = s
	}
	if s, ok := values[1].(string); ok {
		pair.RefreshToken = s
	}
	if pair.AccessToken == "" && pair.RefreshToken == "" {
		return domain.TokenPair{}, domain.ErrNoCredentials
	}
	return pair, nil
}

func (r *Redis) Save(ctx context.Context, pair domain.TokenPair) error {
	pipe := r.client.Pipeline()
	pipe.Set(ctx, accessTokenKey, pair.AccessToken, 0)
	pipe.Set(ctx, refreshTokenKey, pair.RefreshToken, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (r *Redis) SetAccessToken(ctx context.Context, token string) error {
	exists, err := r.client.Exists(ctx, refreshTokenKey).Result()
	if err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if exists == 0 {
		return domain.ErrNoCredentials
	}
	if err := r.client.Set(ctx, accessTokenKey, token, 0).Err(); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, accessTokenKey, refreshTokenKey).Err(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
