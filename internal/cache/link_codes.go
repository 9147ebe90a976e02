package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"readwell/internal/models"
)

// RedisLinkCodeStore keeps link codes as expiring keys. Each student also has
// a pointer key so issuing a new code retires the previous one.
type RedisLinkCodeStore struct {
	client *redis.Client
}

// NewRedisLinkCodeStore wraps client
func NewRedisLinkCodeStore(client *redis.Client) *RedisLinkCodeStore {
	return &RedisLinkCodeStore{client: client}
}

func codeKey(code string) string {
	return "linkcode:" + code
}

func studentKey(studentID int64) string {
	return "linkcode:student:" + strconv.FormatInt(studentID, 10)
}

// Save stores code until its ExpiresAt
func (s *RedisLinkCodeStore) Save(ctx context.Context, code models.LinkCode) error {
	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	raw, err := sonic.Marshal(code)
	if err != nil {
		return fmt.Errorf("encode link code: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	old, err := s.client.Get(ctx, studentKey(code.StudentID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("lookup previous code: %w", err)
	}
	if old != "" {
		if err := s.client.Del(ctx, codeKey(old)).Err(); err != nil {
			return fmt.Errorf("retire previous code: %w", err)
		}
	}

	ok, err := s.client.SetNX(ctx, codeKey(code.Code), raw, ttl).Result()
	if err != nil {
		return fmt.Errorf("save link code: %w", err)
	}
	if !ok {
		return models.ErrLinkCodeTaken
	}
	return s.client.Set(ctx, studentKey(code.StudentID), code.Code, ttl).Err()
}

// Take atomically removes and returns a code. Missing and expired codes yield nil.
func (s *RedisLinkCodeStore) Take(ctx context.Context, code string, now time.Time) (*models.LinkCode, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := s.client.GetDel(ctx, codeKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("take link code: %w", err)
	}

	var lc models.LinkCode
	if err := sonic.Unmarshal(raw, &lc); err != nil {
		return nil, fmt.Errorf("decode link code: %w", err)
	}
	_ = s.client.Del(ctx, studentKey(lc.StudentID)).Err()

	if lc.IsExpired(now) {
		return nil, nil
	}
	return &lc, nil
}
