package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestIncrWithTTLStampsWindowOnce(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommands()
	client := &Client{store: fake}

	count, err := client.IncrWithTTL(ctx, "cm:rl:login", time.Minute)
	if err != nil {
		t.Fatalf("first increment failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
	if len(fake.expireCalls) != 1 || fake.expireCalls[0].ttl != time.Minute {
		t.Fatalf("expected one expire call with the window TTL, got %+v", fake.expireCalls)
	}

	count, err = client.IncrWithTTL(ctx, "cm:rl:login", time.Minute)
	if err != nil {
		t.Fatalf("second increment failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if len(fake.expireCalls) != 1 {
		t.Fatalf("ttl must not be re-stamped on later increments")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommands()
	client := &Client{store: fake}
	key := client.AccessSessionKey("access-1")

	if err := client.Set(ctx, key, "refresh-token", 10*time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "refresh-token" {
		t.Fatalf("expected stored token, got %q", got)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestSetNXIsFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeCommands()}

	won, err := client.SetNX(ctx, "cm:idempotency:a", "first", time.Minute)
	if err != nil || !won {
		t.Fatalf("first SetNX should win, got won=%v err=%v", won, err)
	}
	won, err = client.SetNX(ctx, "cm:idempotency:a", "second", time.Minute)
	if err != nil {
		t.Fatalf("second SetNX errored: %v", err)
	}
	if won {
		t.Fatalf("second SetNX must lose")
	}
	if got, _ := client.Get(ctx, "cm:idempotency:a"); got != "first" {
		t.Fatalf("first value must survive, got %q", got)
	}
}

func TestKeyNamespacing(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("POST:/v1/orders", "key-1"); got != "cm:idempotency:POST:/v1/orders:key-1" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.AccessSessionKey("abc"); got != "cm:session:access:abc" {
		t.Fatalf("unexpected session key %s", got)
	}
	if got := buildKey("a", "", "  b "); got != "cm:a:b" {
		t.Fatalf("blank segments must be dropped, got %s", got)
	}
}

func TestUninitializedClientFailsFast(t *testing.T) {
	ctx := context.Background()
	client := &Client{}
	if err := client.Set(ctx, "k", "v", 0); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected errNotInitialized, got %v", err)
	}
	if _, err := client.IncrWithTTL(ctx, "k", time.Second); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected errNotInitialized, got %v", err)
	}
}

type fakeCommands struct {
	data        map[string]string
	counters    map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		data:     make(map[string]string),
		counters: make(map[string]int64),
	}
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommands) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	value, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeCommands) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expireCalls = append(f.expireCalls, expireCall{key: key, ttl: ttl})
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
