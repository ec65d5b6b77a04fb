package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok, _ := c.Get(ctx, "k"); !ok || got != "v" {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected expired entry")
	}
}

func TestCacheKeyDistinguishesSources(t *testing.T) {
	if CacheKey(SourceFile, "a") == CacheKey(SourceImage, "a") {
		t.Fatalf("expected different keys per source")
	}
	if CacheKey(SourceFile, "a") != CacheKey(SourceFile, "a") {
		t.Fatalf("expected stable key")
	}
}

type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *goredis.StringCmd {
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	val, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	if f.err != nil {
		return goredis.NewStatusResult("", f.err)
	}
	f.data[key] = value.(string)
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func TestRedisCacheGetSet(t *testing.T) {
	fake := &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
	c := &RedisCache{rdb: fake}
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, "k", "text", time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if fake.ttls["k"] != time.Hour {
		t.Fatalf("expected ttl to be forwarded, got %s", fake.ttls["k"])
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || got != "text" {
		t.Fatalf("unexpected get result %q %v %v", got, ok, err)
	}
}

func TestRedisCacheWrapsErrors(t *testing.T) {
	boom := errors.New("connection refused")
	c := &RedisCache{rdb: &fakeRedis{err: boom}}
	if _, _, err := c.Get(context.Background(), "k"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
