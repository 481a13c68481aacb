package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix   = "session:"
	tokenKeyPrefix     = "session:token:"
	userSessionsPrefix = "user_sessions:"
	blacklistKeyPrefix = "blacklist:"
)

// redisSession is the stored form. Session hides the token hash from JSON
// responses, so it cannot be marshalled directly.
type redisSession struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	UserAgent        string    `json:"user_agent"`
	IPAddress        string    `json:"ip_address"`
	RememberMe       bool      `json:"remember_me"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastUsedAt       time.Time `json:"last_used_at"`
}

func toRedis(s *Session) redisSession {
	return redisSession(*s)
}

func (d redisSession) session() Session {
	return Session(d)
}

// RedisRepo keeps sessions as TTL keys. Expiry is left to Redis; the per-user
// index is pruned lazily when listed.
type RedisRepo struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client, now: time.Now}
}

func (r *RedisRepo) ttl(s *Session) (time.Duration, error) {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return 0, fmt.Errorf("session %s already expired", s.ID)
	}
	return ttl, nil
}

func (r *RedisRepo) Create(ctx context.Context, s *Session) error {
	ttl, err := r.ttl(s)
	if err != nil {
		return err
	}
	data, err := json.Marshal(toRedis(s))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKeyPrefix+s.ID, data, ttl)
		pipe.Set(ctx, tokenKeyPrefix+s.RefreshTokenHash, s.ID, ttl)
		pipe.SAdd(ctx, userSessionsPrefix+s.UserID, s.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis create session: %w", err)
	}
	return nil
}

func (r *RedisRepo) get(ctx context.Context, sessionID string) (Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("redis get session: %w", err)
	}
	var doc redisSession
	if err := json.Unmarshal(data, &doc); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return doc.session(), nil
}

func (r *RedisRepo) GetByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	id, err := r.client.Get(ctx, tokenKeyPrefix+tokenHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("redis get session token: %w", err)
	}
	return r.get(ctx, id)
}

func (r *RedisRepo) ListByUserID(ctx context.Context, userID string) ([]Session, error) {
	indexKey := userSessionsPrefix + userID
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list sessions: %w", err)
	}

	sessions := []Session{}
	var stale []any
	for _, id := range ids {
		s, err := r.get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if len(stale) > 0 {
		if err := r.client.SRem(ctx, indexKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("redis prune sessions: %w", err)
		}
	}

	sortNewestFirst(sessions)
	return sessions, nil
}

func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	s, err := r.get(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKeyPrefix+s.ID, tokenKeyPrefix+s.RefreshTokenHash)
		pipe.SRem(ctx, userSessionsPrefix+s.UserID, s.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (r *RedisRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	s, err := r.GetByTokenHash(ctx, tokenHash)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.Delete(ctx, s.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// CleanupExpired is a no-op: Redis expires session keys itself.
func (r *RedisRepo) CleanupExpired(context.Context) (int64, error) {
	return 0, nil
}

type RedisBlacklist struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client, now: time.Now}
}

// AddToken stores the jti until the token would have expired anyway. Tokens
// that are already expired are not stored.
func (b *RedisBlacklist) AddToken(ctx context.Context, jti string, userID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if err := b.client.SetNX(ctx, blacklistKeyPrefix+jti, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis blacklist token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redis check blacklist: %w", err)
	}
	return n > 0, nil
}

func (b *RedisBlacklist) CleanupExpired(context.Context) (int64, error) {
	return 0, nil
}
