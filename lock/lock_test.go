package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medorbit/telecare/utils"
)

// fakeKV is an in-memory stand-in for the redis cache, ignoring TTLs.
type fakeKV struct {
	mu       sync.Mutex
	data     map[string]string
	setErr   error
	setCalls int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) SetIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeKV) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeKV) set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
}

func (f *fakeKV) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	return value, ok
}

func testManager(kv *fakeKV, maxAttempts int) *Manager {
	return CreateManager(kv, Config{
		TTL:         time.Second,
		RetryDelay:  time.Millisecond,
		MaxAttempts: maxAttempts,
	})
}

func TestManager_AcquireAndRelease(t *testing.T) {
	kv := newFakeKV()
	manager := testManager(kv, 3)
	ctx := context.Background()

	token, err := manager.Acquire(ctx, "payment:c1:u1", 0)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if token == "" {
		t.Fatal("Acquire() returned empty token")
	}

	stored, ok := kv.get("lock:payment:c1:u1")
	if !ok {
		t.Fatal("lock key not written to store")
	}
	if stored != token {
		t.Errorf("stored token = %q, want %q", stored, token)
	}

	if released := manager.Release(ctx, "payment:c1:u1", token); !released {
		t.Error("Release() = false, want true")
	}
	if _, ok := kv.get("lock:payment:c1:u1"); ok {
		t.Error("lock key still present after release")
	}
}

func TestManager_AcquireBusy(t *testing.T) {
	kv := newFakeKV()
	kv.set("lock:slot:d1", "someone-else")
	manager := testManager(kv, 3)

	start := time.Now()
	_, err := manager.Acquire(context.Background(), "slot:d1", 0)
	if err == nil {
		t.Fatal("Acquire() expected error for held lock")
	}
	if !utils.IsKind(err, utils.KindLockBusy) {
		t.Errorf("Acquire() error kind = %v, want lock_busy", err)
	}
	if !utils.IsRetryable(err) {
		t.Error("lock busy error should be retryable")
	}
	// Two waits of the fixed delay between three attempts.
	if elapsed := time.Since(start); elapsed < 2*time.Millisecond {
		t.Errorf("Acquire() returned after %v, expected fixed delay between attempts", elapsed)
	}
}

func TestManager_AcquireAfterRelease(t *testing.T) {
	kv := newFakeKV()
	manager := testManager(kv, 1)
	ctx := context.Background()

	token1, err := manager.Acquire(ctx, "slot:d1", 0)
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	if _, err := manager.Acquire(ctx, "slot:d1", 0); !utils.IsKind(err, utils.KindLockBusy) {
		t.Errorf("second Acquire() error = %v, want lock_busy", err)
	}

	manager.Release(ctx, "slot:d1", token1)

	token2, err := manager.Acquire(ctx, "slot:d1", 0)
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	if token2 == token1 {
		t.Error("tokens must be unique per acquisition")
	}
}

func TestManager_ReleaseTokenMismatch(t *testing.T) {
	kv := newFakeKV()
	kv.set("lock:slot:d1", "new-holder-token")
	manager := testManager(kv, 1)

	if released := manager.Release(context.Background(), "slot:d1", "stale-token"); released {
		t.Error("Release() with stale token = true, want false")
	}
	if value, ok := kv.get("lock:slot:d1"); !ok || value != "new-holder-token" {
		t.Error("Release() with stale token must not delete the current holder's lock")
	}
}

func TestManager_ReleaseExpired(t *testing.T) {
	kv := newFakeKV()
	manager := testManager(kv, 1)

	if released := manager.Release(context.Background(), "slot:d1", "token"); released {
		t.Error("Release() on expired lock = true, want false")
	}
}

func TestManager_AcquireStoreUnavailable(t *testing.T) {
	kv := newFakeKV()
	kv.setErr = errors.New("connection refused")
	manager := testManager(kv, 50)

	_, err := manager.Acquire(context.Background(), "slot:d1", 0)
	if err == nil {
		t.Fatal("Acquire() expected error when store is down")
	}
	if !utils.IsKind(err, utils.KindUnavailable) {
		t.Errorf("Acquire() error kind = %v, want unavailable", err)
	}
	// A store failure is not contention: no point waiting out the full
	// attempt budget.
	if kv.setCalls != 1 {
		t.Errorf("store attempts = %d, want 1 (fail fast on store errors)", kv.setCalls)
	}
}

func TestManager_ContendersSerialize(t *testing.T) {
	kv := newFakeKV()
	manager := testManager(kv, 200)
	ctx := context.Background()

	const contenders = 8
	var inCritical, maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := manager.Acquire(ctx, "shared", 0)
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()

			manager.Release(ctx, "shared", token)
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInCritical)
	}
}
