package pending

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisError implements redis.Error so HasErrorPrefix recognizes it and
// Script.Run takes the NOSCRIPT fallback path, as it would with a real server.
type redisError string

func (e redisError) Error() string { return string(e) }

func (redisError) RedisError() {}

// scriptRecorder evaluates the limiter's counter script in memory: INCR plus
// a TTL attached in the same call, so the test can assert the window is set
// exactly when the counter is created.
type scriptRecorder struct {
	counts map[string]int64
	ttlMS  map[string]int64
	evals  int
}

func newScriptRecorder() *scriptRecorder {
	return &scriptRecorder{counts: map[string]int64{}, ttlMS: map[string]int64{}}
}

func (s *scriptRecorder) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	s.evals++
	key := keys[0]
	s.counts[key]++
	if s.counts[key] == 1 {
		ms, ok := args[0].(int64)
		if !ok {
			return redis.NewCmdResult(nil, errors.New("window argument is not int64"))
		}
		s.ttlMS[key] = ms
	}
	return redis.NewCmdResult(s.counts[key], nil)
}

func (s *scriptRecorder) EvalSha(_ context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	// Force the Eval fallback, as a server without the cached script would.
	return redis.NewCmdResult(nil, redisError("NOSCRIPT No matching script"))
}

func (s *scriptRecorder) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return s.Eval(ctx, script, keys, args...)
}

func (s *scriptRecorder) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return s.EvalSha(ctx, sha1, keys, args...)
}

func (s *scriptRecorder) ScriptExists(_ context.Context, _ ...string) *redis.BoolSliceCmd {
	return nil
}

func (s *scriptRecorder) ScriptLoad(_ context.Context, _ string) *redis.StringCmd {
	return nil
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rec := newScriptRecorder()
	limiter := NewRateLimiter(rec, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, 7)
		if err != nil {
			t.Fatalf("Allow #%d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("Allow #%d = false, want true", i+1)
		}
	}

	ok, err := limiter.Allow(ctx, 7)
	if err != nil {
		t.Fatalf("Allow over limit: %v", err)
	}
	if ok {
		t.Fatal("Allow over limit = true, want false")
	}
}

func TestRateLimiterWindowSetWithCounter(t *testing.T) {
	rec := newScriptRecorder()
	limiter := NewRateLimiter(rec, 5, 10*time.Minute)
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, 7); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if _, err := limiter.Allow(ctx, 7); err != nil {
		t.Fatalf("Allow: %v", err)
	}

	key := "tgphone:start_rl:7"
	if got, want := rec.ttlMS[key], (10 * time.Minute).Milliseconds(); got != want {
		t.Fatalf("window ttl = %dms, want %dms", got, want)
	}
	if rec.evals != 2 {
		t.Fatalf("script evaluated %d times, want one per Allow", rec.evals)
	}
}

func TestRateLimiterKeysPerLicense(t *testing.T) {
	rec := newScriptRecorder()
	limiter := NewRateLimiter(rec, 1, time.Minute)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, 1); !ok {
		t.Fatal("first license blocked on first request")
	}
	if ok, _ := limiter.Allow(ctx, 2); !ok {
		t.Fatal("second license shares the first license's window")
	}
	if ok, _ := limiter.Allow(ctx, 1); ok {
		t.Fatal("first license not limited after its window filled")
	}
}
