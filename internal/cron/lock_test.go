package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type memLockStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMemLockStore() *memLockStore {
	return &memLockStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memLockStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memLockStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memLockStore) LockKey(name string) string { return "sf:lock:" + name }

func TestRedisLockExclusive(t *testing.T) {
	ctx := context.Background()
	store := newMemLockStore()
	first, err := NewRedisLock(store, "sf:lock:job", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, "sf:lock:job", time.Minute)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire should win, ok=%v err=%v", ok, err)
	}
	if store.ttls["sf:lock:job"] != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", store.ttls["sf:lock:job"])
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second acquire should lose")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release of unheld lock: %v", err)
	}
	if _, ok := store.data["sf:lock:job"]; !ok {
		t.Fatal("non-owner release must not delete the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("lock should be free after owner release")
	}
}

func TestRedisLockDoesNotReleaseTakenOverLock(t *testing.T) {
	ctx := context.Background()
	store := newMemLockStore()
	lock, _ := NewRedisLock(store, "k", time.Minute)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	// expiry followed by another owner
	store.data["k"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.data["k"] != "someone-else" {
		t.Fatal("foreign lock was deleted")
	}
}

func TestRedisLocksFactoryUsesNamespacedKeys(t *testing.T) {
	store := newMemLockStore()
	lock, err := RedisLocks(store, time.Minute)("coupon-expiry")
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("expected acquire")
	}
	if _, ok := store.data["sf:lock:coupon-expiry"]; !ok {
		t.Fatalf("expected namespaced key, got %v", store.data)
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", time.Minute); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewRedisLock(newMemLockStore(), "", time.Minute); err == nil {
		t.Fatal("expected error for empty key")
	}
}
