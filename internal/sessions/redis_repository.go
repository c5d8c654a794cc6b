package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis as the backing store.
// Each session is stored as JSON under "<prefix><refreshToken>" with
// TTL = expiresAt - now. A companion set "<prefix>sub:<sub>" tracks the
// refresh tokens of each operator so DeleteBySub can revoke all of them;
// the set carries its own TTL and may reference already-expired sessions,
// which delete as no-ops.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(refresh string) string {
	return r.prefix + refresh
}

func (r *RedisRepository) subKey(sub string) string {
	return r.prefix + "sub:" + sub
}

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	exp := time.Until(s.ExpiresAt)
	if exp <= 0 {
		// ensure a minimal TTL so Redis won't store expired sessions
		exp = time.Second
	}
	if err := r.client.Set(ctx, r.key(s.RefreshToken), b, exp).Err(); err != nil {
		return err
	}
	if s.Sub == "" {
		return nil
	}
	if err := r.client.SAdd(ctx, r.subKey(s.Sub), s.RefreshToken).Err(); err != nil {
		return err
	}
	// keep the member set alive at least as long as this session
	if ttl, err := r.client.TTL(ctx, r.subKey(s.Sub)).Result(); err == nil && ttl < exp {
		_ = r.client.Expire(ctx, r.subKey(s.Sub), exp).Err()
	}
	return nil
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	b, err := r.client.Get(ctx, r.key(refresh)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	// If the stored value outlived its own expiry, treat as missing
	if time.Now().UTC().After(s.ExpiresAt) {
		_ = r.dropSession(ctx, &s)
		return nil, nil
	}
	return &s, nil
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	s, err := r.GetByRefresh(ctx, refresh)
	if err != nil {
		return err
	}
	if s == nil {
		return r.client.Del(ctx, r.key(refresh)).Err()
	}
	return r.dropSession(ctx, s)
}

func (r *RedisRepository) DeleteBySub(ctx context.Context, sub string) error {
	tokens, err := r.client.SMembers(ctx, r.subKey(sub)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, tok := range tokens {
		if err := r.client.Del(ctx, r.key(tok)).Err(); err != nil {
			return err
		}
	}
	return r.client.Del(ctx, r.subKey(sub)).Err()
}

func (r *RedisRepository) dropSession(ctx context.Context, s *Session) error {
	if s.Sub != "" {
		_ = r.client.SRem(ctx, r.subKey(s.Sub), s.RefreshToken).Err()
	}
	return r.client.Del(ctx, r.key(s.RefreshToken)).Err()
}
