package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestCheckAndMarkProcessed_FirstTime(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.NewString()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", eventID)
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if already {
		t.Fatalf("expected first call to return false, got true")
	}
	if store.lastKey != "sf:idempotency:evt:processed:analytics:"+eventID {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}
}

func TestCheckAndMarkProcessed_AlreadyProcessed(t *testing.T) {
	manager, err := NewManager(&fakeStore{setNXResult: false}, 12*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", uuid.NewString())
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if !already {
		t.Fatalf("expected already processed, got false")
	}
}

func TestCheckAndMarkProcessed_Errors(t *testing.T) {
	manager, err := NewManager(&fakeStore{setNXError: errors.New("boom")}, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", uuid.NewString()); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", " "); err == nil {
		t.Fatal("expected error for blank event id")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.NewString()); err == nil {
		t.Fatal("expected error for blank consumer")
	}
}

func TestDeleteProcessed(t *testing.T) {
	store := &fakeStore{}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.NewString()
	if err := manager.Delete(context.Background(), "analytics", eventID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.lastDeleted != "sf:idempotency:evt:processed:analytics:"+eventID {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
}
