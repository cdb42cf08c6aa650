// internal/pkg/pending/pending.go
package pending

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks the single in-flight login per license in Redis.
// The value is a fingerprint of the issued handle, so verify can tell a stale
// or foreign handle from the one start_login actually returned. The TTL
// matches the handle's own expiry, so abandoned CODE_SENT states clean
// themselves up.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Fingerprint reduces a handle to a short stable digest. Only the digest is
// stored server-side; the handle itself never touches Redis.
func Fingerprint(handle string) string {
	sum := sha256.Sum256([]byte(handle))
	return hex.EncodeToString(sum[:16])
}

func (s *Store) key(licenseID int64) string {
	return fmt.Sprintf("tgphone:pending:%d", licenseID)
}

// Put records the in-flight login for a license, replacing any previous one.
func (s *Store) Put(ctx context.Context, licenseID int64, fingerprint string) error {
	return s.client.Set(ctx, s.key(licenseID), fingerprint, s.ttl).Err()
}

// Get returns the recorded fingerprint, or "" if no login is in flight.
func (s *Store) Get(ctx context.Context, licenseID int64) (string, error) {
	v, err := s.client.Get(ctx, s.key(licenseID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Clear drops the in-flight marker once verify succeeds.
func (s *Store) Clear(ctx context.Context, licenseID int64) error {
	return s.client.Del(ctx, s.key(licenseID)).Err()
}
