package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aerokit/internal/domain/accesscontrol"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "aerokit:session:"

// DefaultTTL matches the default credential lifetime.
const DefaultTTL = 30 * 24 * time.Hour

// ScopedTTL bounds the one-shot flags and the return path. They live under
// their own key so they lapse with the browsing session, not the credential.
const ScopedTTL = 30 * time.Minute

// clearIfToken deletes the credential pair only when the stored token still
// matches ARGV[1].
var clearIfToken = goredis.NewScript(`
if redis.call('HGET', KEYS[1], 'token') == ARGV[1] then
  redis.call('HDEL', KEYS[1], 'token', 'user')
  return 1
end
return 0
`)

// RedisStore keeps one browser session in two redis hashes: the credential
// pair under key with the credential TTL, and the session-scoped values under
// scoped with ScopedTTL. Every write refreshes the TTL of the hash it touches.
type RedisStore struct {
	client *goredis.Client
	key    string
	scoped string
	ttl    time.Duration
}

func NewRedisStore(client *goredis.Client, sid string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return nil, fmt.Errorf("session id is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	key := keyPrefix + sid
	return &RedisStore{client: client, key: key, scoped: key + ":scoped", ttl: ttl}, nil
}

func (r *RedisStore) Token(ctx context.Context) (string, error) {
	token, err := r.client.HGet(ctx, r.key, keyToken).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("get session token: %w", err)
	}
	return token, nil
}

func (r *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	values, err := r.client.HMGet(ctx, r.key, keyToken, keyUser).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("load session: %w", err)
	}
	token, _ := values[0].(string)
	rawUser, _ := values[1].(string)
	return Snapshot{Token: token, User: decodeUser(rawUser)}, nil
}

func (r *RedisStore) Save(ctx context.Context, token string, user accesscontrol.Principal) error {
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key, keyToken, token, keyUser, raw)
	pipe.Expire(ctx, r.key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.HDel(ctx, r.key, keyToken, keyUser).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (r *RedisStore) ClearIfToken(ctx context.Context, token string) (bool, error) {
	n, err := clearIfToken.Run(ctx, r.client, []string{r.key}, token).Int()
	if err != nil {
		return false, fmt.Errorf("clear session if token: %w", err)
	}
	return n == 1, nil
}

func (r *RedisStore) SetFlag(ctx context.Context, name string) error {
	return r.setScoped(ctx, flagPrefix+name, "1")
}

func (r *RedisStore) ConsumeFlag(ctx context.Context, name string) (bool, error) {
	n, err := r.client.HDel(ctx, r.scoped, flagPrefix+name).Result()
	if err != nil {
		return false, fmt.Errorf("consume flag %s: %w", name, err)
	}
	return n > 0, nil
}

func (r *RedisStore) SetReturnPath(ctx context.Context, path string) error {
	return r.setScoped(ctx, keyReturnPath, path)
}

func (r *RedisStore) ConsumeReturnPath(ctx context.Context) (string, error) {
	var get *goredis.StringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		get = pipe.HGet(ctx, r.scoped, keyReturnPath)
		pipe.HDel(ctx, r.scoped, keyReturnPath)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("consume return path: %w", err)
	}
	path, err := get.Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("consume return path: %w", err)
	}
	return path, nil
}

// Destroy removes the whole browser session.
func (r *RedisStore) Destroy(ctx context.Context) error {
	return r.client.Del(ctx, r.key, r.scoped).Err()
}

func (r *RedisStore) setScoped(ctx context.Context, field, value string) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.scoped, field, value)
	pipe.Expire(ctx, r.scoped, ScopedTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set session %s: %w", field, err)
	}
	return nil
}
