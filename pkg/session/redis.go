package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

const keyPrefix = "gifdeck:session:"

// RedisStore keeps the identifier under one Redis key per profile and server, so several
// machines can share a session.
type RedisStore struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL and checks connectivity.
//
// Parameters:
//   - ctx: Context for the ping.
//   - rawURL: Connection URL.
//
// Returns:
//   - *redis.Client: Connected client.
//   - error: Non-nil if the URL is invalid or the server does not answer.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errRedisURL, err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("%w: %w", errLoadStore, err)
	}

	return client, nil
}

// NewRedisStore creates a RedisStore.
//
// Parameters:
//   - client: Redis commands.
//   - profile: Profile name; empty selects DefaultProfile.
//   - server: Server base URL the identifier belongs to.
//   - ttl: Expiry refreshed on every save; zero keeps the key forever.
//
// Returns:
//   - *RedisStore: Store bound to one key.
func NewRedisStore(client redis.Cmdable, profile, server string, ttl time.Duration) *RedisStore {
	if profile == "" {
		profile = DefaultProfile
	}

	return &RedisStore{
		client: client,
		key:    RedisKey(profile, server),
		ttl:    ttl,
	}
}

// RedisKey returns the key used for a profile and server.
func RedisKey(profile, server string) string {
	return keyPrefix + profile + ":" + server
}

// Name returns "redis".
func (s *RedisStore) Name() string {
	return "redis"
}

// Load returns the stored identifier, or an empty one if the key does not exist.
func (s *RedisStore) Load(ctx context.Context) (types.SessionID, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("%w: %w", errLoadStore, err)
	}

	return types.SessionID(value), nil
}

// Save stores id.
func (s *RedisStore) Save(ctx context.Context, id types.SessionID) error {
	if err := s.client.Set(ctx, s.key, id.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", errSaveStore, err)
	}

	return nil
}

// Clear deletes the key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %w", errClearStore, err)
	}

	return nil
}
