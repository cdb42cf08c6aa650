// internal/pkg/pending/rate_limiter.go
package pending

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWithTTL bumps the window counter and attaches the TTL in the same
// atomic step. Doing INCR and EXPIRE as two commands can strand a counter
// without a TTL if the connection drops in between, which would rate-limit
// the license forever.
var incrWithTTL = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RateLimiter is a fixed-window counter for code requests. Telegram applies
// its own flood limits, but failing fast here keeps a misbehaving frontend
// from burning the number's reputation with the provider.
type RateLimiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
}

func NewRateLimiter(client redis.Scripter, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow reports whether one more request fits in the current window.
func (r *RateLimiter) Allow(ctx context.Context, licenseID int64) (bool, error) {
	key := fmt.Sprintf("tgphone:start_rl:%d", licenseID)

	count, err := incrWithTTL.Run(ctx, r.client, []string{key}, r.window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return count <= int64(r.limit), nil
}
