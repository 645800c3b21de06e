package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/sibusisodev/campusmart-backend/pkg/config"
	redisclient "github.com/sibusisodev/campusmart-backend/pkg/redis"
)

type memorySessions struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{data: make(map[string]string)}
}

func (s *memorySessions) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = fmt.Sprint(value)
	return nil
}

func (s *memorySessions) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (s *memorySessions) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *memorySessions) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager() (*Manager, *memorySessions) {
	store := newMemorySessions()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestGenerateStoresSecret(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	token, err := manager.Generate(ctx, "access-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty refresh token")
	}
	if stored := store.data["sess:access-123"]; stored != token {
		t.Fatalf("stored secret %q does not match issued token %q", stored, token)
	}

	if _, err := manager.Generate(ctx, "  "); err == nil {
		t.Fatalf("blank access id must be rejected")
	}
}

func TestRotateSwapsSession(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	token, err := manager.Generate(ctx, "access-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, _, err := manager.Rotate(ctx, "access-123", "wrong-secret"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("wrong secret: expected ErrInvalidRefreshToken, got %v", err)
	}
	if _, _, err := manager.Rotate(ctx, "never-issued", token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("unknown access id: expected ErrInvalidRefreshToken, got %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, "access-123", token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newAccessID == "access-123" {
		t.Fatalf("rotation must issue a fresh access id")
	}
	if _, stale := store.data["sess:access-123"]; stale {
		t.Fatalf("old session left behind after rotation")
	}
	if stored := store.data["sess:"+newAccessID]; stored != newToken {
		t.Fatalf("new session not stored, got %q", stored)
	}

	// The rotated-out token is dead.
	if _, _, err := manager.Rotate(ctx, "access-123", token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("replaying the old token must fail, got %v", err)
	}
}

func TestRevokeAndHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	if _, err := manager.Generate(ctx, "access-9"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	alive, err := manager.HasSession(ctx, "access-9")
	if err != nil || !alive {
		t.Fatalf("expected live session, got alive=%v err=%v", alive, err)
	}

	if err := manager.Revoke(ctx, "access-9"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	alive, err = manager.HasSession(ctx, "access-9")
	if err != nil {
		t.Fatalf("has session after revoke: %v", err)
	}
	if alive {
		t.Fatalf("revoked session still reported alive")
	}
}

func TestNewManagerValidatesTTL(t *testing.T) {
	client := &redisclient.Client{}

	if _, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 60}); err == nil {
		t.Fatalf("zero refresh ttl must be rejected")
	}
	if _, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30}); err == nil {
		t.Fatalf("refresh ttl at or below access ttl must be rejected")
	}

	manager, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 10080})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if manager.ttl != 7*24*time.Hour {
		t.Fatalf("expected 7d ttl, got %s", manager.ttl)
	}
}
