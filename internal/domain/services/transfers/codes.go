package transfers

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	domainerrors "github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/errors"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/cache"
)

// CodeStore issues and verifies one-time withdrawal codes. Codes live in
// redis under a TTL matching the configured lifespan and are stored as bcrypt
// hashes, never plaintext.
type CodeStore struct {
	cache    cache.RedisClient
	length   int
	ttl      time.Duration
	cooldown time.Duration
}

// NewCodeStore creates a withdrawal code store
func NewCodeStore(redisClient cache.RedisClient, length, ttlMinutes, cooldownSeconds int) *CodeStore {
	return &CodeStore{
		cache:    redisClient,
		length:   length,
		ttl:      time.Duration(ttlMinutes) * time.Minute,
		cooldown: time.Duration(cooldownSeconds) * time.Second,
	}
}

func codeKey(userID uuid.UUID) string {
	return "transfers:withdrawal_code:" + userID.String()
}

func cooldownKey(userID uuid.UUID) string {
	return "transfers:withdrawal_code_cooldown:" + userID.String()
}

// Issue generates a fresh numeric code for the user, replacing any previous
// one. A cooldown window bounds how often codes can be requested.
func (s *CodeStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.cooldown > 0 {
		ok, err := s.cache.SetNX(ctx, cooldownKey(userID), 1, s.cooldown)
		if err != nil {
			return "", fmt.Errorf("failed to check code cooldown: %w", err)
		}
		if !ok {
			return "", domainerrors.CodeCooldownError()
		}
	}

	code, err := generateNumericCode(s.length)
	if err != nil {
		return "", fmt.Errorf("failed to generate withdrawal code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash withdrawal code: %w", err)
	}

	if err := s.cache.Set(ctx, codeKey(userID), string(hash), s.ttl); err != nil {
		return "", fmt.Errorf("failed to store withdrawal code: %w", err)
	}

	return code, nil
}

// Verify checks the submitted code against the stored hash and consumes it
// on success. A missing key means the code expired or was never requested.
func (s *CodeStore) Verify(ctx context.Context, userID uuid.UUID, code string) error {
	var hash string
	err := s.cache.Get(ctx, codeKey(userID), &hash)
	if err == redis.Nil {
		return domainerrors.CodeExpiredError()
	}
	if err != nil {
		return fmt.Errorf("failed to load withdrawal code: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return domainerrors.CodeMismatchError()
	}

	if err := s.cache.Del(ctx, codeKey(userID)); err != nil {
		return fmt.Errorf("failed to consume withdrawal code: %w", err)
	}

	return nil
}

func generateNumericCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
