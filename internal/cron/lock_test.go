package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (f *fakeRedisStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireIsExclusive(t *testing.T) {
	store := newFakeRedisStore()
	first, err := NewRedisLock(store, "ux:cron:lock", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, err := NewRedisLock(store, "ux:cron:lock", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}

	ctx := context.Background()
	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to win, ok=%v err=%v", ok, err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire to lose")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release, ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseIgnoresForeignOwner(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "ux:cron:lock", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}

	ctx := context.Background()
	if ok, err := lock.Acquire(ctx); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	// simulate TTL expiry and another instance taking over
	store.values["ux:cron:lock"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["ux:cron:lock"] != "someone-else" {
		t.Fatal("expected foreign lock value untouched")
	}
}

func TestRedisLockReleaseWithoutAcquireIsNoop(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "ux:cron:lock", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
}
