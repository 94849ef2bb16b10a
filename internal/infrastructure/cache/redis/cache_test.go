package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeCommands struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func (f *fakeCommands) Get(_ context.Context, key string) *goredis.StringCmd {
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	value, ok := f.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(value, nil)
}

func (f *fakeCommands) Set(_ context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	if f.err != nil {
		return goredis.NewStatusResult("", f.err)
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func TestSignalCacheRoundTrip(t *testing.T) {
	fake := &fakeCommands{values: map[string]string{}, ttls: map[string]time.Duration{}}
	cache := &SignalCache{client: fake}

	if _, ok, err := cache.Get(context.Background(), "signal:perplexity:abc"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Set(context.Background(), "signal:perplexity:abc", 23.75, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if fake.values["hlc:signal:perplexity:abc"] != "23.75" || fake.ttls["hlc:signal:perplexity:abc"] != time.Minute {
		t.Fatalf("unexpected stored state: %v %v", fake.values, fake.ttls)
	}
	got, ok, err := cache.Get(context.Background(), "signal:perplexity:abc")
	if err != nil || !ok || got != 23.75 {
		t.Fatalf("Get() = %v, %v, %v", got, ok, err)
	}
}

func TestSignalCachePropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	cache := &SignalCache{client: &fakeCommands{err: boom}}

	if _, _, err := cache.Get(context.Background(), "k"); !errors.Is(err, boom) {
		t.Fatalf("expected get error, got %v", err)
	}
	if err := cache.Set(context.Background(), "k", 1, time.Second); !errors.Is(err, boom) {
		t.Fatalf("expected set error, got %v", err)
	}
}
