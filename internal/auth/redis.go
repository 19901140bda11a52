package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/learning-tokens/lms-connector/internal/authutil"
)

// RedisStorage stores sessions as JSON strings in Redis.
type RedisStorage struct {
	redis       rueidis.Client
	tokenExpire time.Duration
}

const redisTokenPrefix = "auth:session:"

type RedisStorageOption func(*RedisStorage)

// WithTokenExpire overrides DefaultTokenExpire.
func WithTokenExpire(expire time.Duration) RedisStorageOption {
	return func(s *RedisStorage) {
		s.tokenExpire = expire
	}
}

// NewRedisStorage creates a new RedisStorage.
func NewRedisStorage(redis rueidis.Client, opts ...RedisStorageOption) *RedisStorage {
	s := &RedisStorage{
		redis:       redis,
		tokenExpire: DefaultTokenExpire * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RedisStorage) Get(ctx context.Context, token string) (TokenInfo, error) {
	reply := s.redis.Do(ctx, s.redis.B().Getex().Key(redisTokenPrefix+token).Ex(s.tokenExpire).Build())
	return decodeTokenInfo(reply)
}

func (s *RedisStorage) Peek(ctx context.Context, token string) (TokenInfo, error) {
	reply := s.redis.Do(ctx, s.redis.B().Get().Key(redisTokenPrefix+token).Build())
	return decodeTokenInfo(reply)
}

func decodeTokenInfo(reply rueidis.RedisResult) (TokenInfo, error) {
	if err := reply.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return TokenInfo{}, ErrNotFound
		}

		return TokenInfo{}, err
	}

	var tokenInfo TokenInfo
	if err := reply.DecodeJSON(&tokenInfo); err != nil {
		return TokenInfo{}, fmt.Errorf("decode session: %w", err)
	}

	return tokenInfo, nil
}

func (s *RedisStorage) Create(ctx context.Context, info TokenInfo) (string, error) {
	token, err := authutil.GenerateToken()
	if err != nil {
		return "", err
	}

	tokenInfoBytes, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	reply := s.redis.Do(ctx, s.redis.B().Set().
		Key(redisTokenPrefix+token).
		Value(rueidis.BinaryString(tokenInfoBytes)).
		Ex(s.tokenExpire).
		Build())
	if reply.Error() != nil {
		return "", reply.Error()
	}

	return token, nil
}

func (s *RedisStorage) Update(ctx context.Context, token string, info TokenInfo) error {
	tokenInfoBytes, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// XX: never resurrect a session that expired or was deleted meanwhile.
	err = s.redis.Do(ctx, s.redis.B().Set().
		Key(redisTokenPrefix+token).
		Value(rueidis.BinaryString(tokenInfoBytes)).
		Xx().
		Keepttl().
		Build()).Error()
	if rueidis.IsRedisNil(err) {
		return ErrNotFound
	}

	return err
}

func (s *RedisStorage) Delete(ctx context.Context, token string) error {
	deleted, err := s.redis.Do(ctx, s.redis.B().Del().Key(redisTokenPrefix+token).Build()).AsInt64()
	if err != nil {
		return err
	}

	if deleted == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the number of live sessions.
func (s *RedisStorage) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)

	for {
		scanEntry, err := s.redis.Do(ctx, s.redis.B().Scan().Cursor(cursor).Match(redisTokenPrefix+"*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return 0, fmt.Errorf("list sessions: %w", err)
		}

		count += len(scanEntry.Elements)

		if scanEntry.Cursor == 0 {
			return count, nil
		}
		cursor = scanEntry.Cursor
	}
}

var _ Storage = (*RedisStorage)(nil)
