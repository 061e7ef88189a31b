package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix   = "token:"
	sessionKeyPrefix = "session:"
	maxTxRetries     = 3
)

func tokenKey(hash string) string {
	return tokenKeyPrefix + hash
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

// TokenStore keeps access token hashes in Redis. token:{hash} maps to the
// user and session:{user} points back at the user's current hash. Redis
// TTLs take care of expiry.
type TokenStore struct {
	cache *Cache
}

func NewTokenStore(c *Cache) *TokenStore {
	return &TokenStore{cache: c}
}

// Upsert stores tokenHash as the user's only session, dropping the previous
// hash in the same transaction.
func (s *TokenStore) Upsert(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	client := s.cache.client
	sKey := sessionKey(userID)

	txf := func(tx *redis.Tx) error {
		previous, err := tx.Get(ctx, sKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		ttl := time.Until(expiresAt)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if previous != "" && previous != tokenHash {
				pipe.Del(ctx, tokenKey(previous))
			}
			if ttl <= 0 {
				pipe.Del(ctx, sKey)
				return nil
			}
			pipe.Set(ctx, tokenKey(tokenHash), userID, ttl)
			pipe.Set(ctx, sKey, tokenHash, ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := client.Watch(ctx, txf, sKey)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("upsert access token: %w", err)
	}

	return fmt.Errorf("upsert access token: %w", redis.TxFailedErr)
}

func (s *TokenStore) Exists(ctx context.Context, tokenHash string) (bool, error) {
	n, err := s.cache.client.Exists(ctx, tokenKey(tokenHash)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup access token: %w", err)
	}
	return n > 0, nil
}

// Delete removes the hash and, when it is still the user's current session,
// the session pointer. Missing keys are not an error.
func (s *TokenStore) Delete(ctx context.Context, tokenHash string) error {
	client := s.cache.client
	tKey := tokenKey(tokenHash)

	userID, err := client.Get(ctx, tKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}

	sKey := sessionKey(userID)
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, sKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, tKey)
			if current == tokenHash {
				pipe.Del(ctx, sKey)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := client.Watch(ctx, txf, sKey)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("delete access token: %w", err)
	}

	return fmt.Errorf("delete access token: %w", redis.TxFailedErr)
}

// CleanExpired is a no-op; Redis expires keys on its own.
func (s *TokenStore) CleanExpired(context.Context) (int64, error) {
	return 0, nil
}
