package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newRedisTestStore(t *testing.T) (*miniredis.Miniredis, Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(mr.Addr(), time.Second)
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func TestRedisStoreSetThenGet(t *testing.T) {
	mr, store := newRedisTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "AboutData", "Your application description page.", 600*time.Second); err != nil {
		t.Fatalf("set error: %v", err)
	}
	got, err := store.Get(ctx, "AboutData")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if value, ok := got.Get(); !ok || value != "Your application description page." {
		t.Fatalf("unexpected value %q (present=%v)", value, ok)
	}
	if ttl := mr.TTL("AboutData"); ttl != 600*time.Second {
		t.Fatalf("expected ttl 600s, got %s", ttl)
	}
}

func TestRedisStoreExpiresAfterTTL(t *testing.T) {
	mr, store := newRedisTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "AboutData", "payload", 600*time.Second); err != nil {
		t.Fatalf("set error: %v", err)
	}
	mr.FastForward(601 * time.Second)

	got, err := store.Get(ctx, "AboutData")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.IsPresent() {
		t.Fatalf("entry should be absent after ttl elapsed")
	}
}

func TestRedisStoreMissIsNotAnError(t *testing.T) {
	_, store := newRedisTestStore(t)
	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("miss must not be an error: %v", err)
	}
	if got.IsPresent() {
		t.Fatalf("expected absent value")
	}
}

func TestRedisStoreKeepsEmptyString(t *testing.T) {
	_, store := newRedisTestStore(t)
	ctx := context.Background()
	if err := store.Set(ctx, "empty", "", time.Minute); err != nil {
		t.Fatalf("set error: %v", err)
	}
	got, err := store.Get(ctx, "empty")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if value, ok := got.Get(); !ok || value != "" {
		t.Fatalf("expected present empty string, got %q (present=%v)", value, ok)
	}
}

func TestRedisStoreSurfacesTransportErrors(t *testing.T) {
	mr, store := newRedisTestStore(t)
	mr.SetError("LOADING server is loading")
	ctx := context.Background()

	_, err := store.Get(ctx, "AboutData")
	var cacheErr *Error
	if !errors.As(err, &cacheErr) || cacheErr.Op != "get" {
		t.Fatalf("expected *Error on get, got %v", err)
	}

	err = store.Set(ctx, "AboutData", "v", time.Minute)
	if !errors.As(err, &cacheErr) || cacheErr.Op != "set" {
		t.Fatalf("expected *Error on set, got %v", err)
	}
}

func TestRedisStoreUnreachableServer(t *testing.T) {
	mr, store := newRedisTestStore(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := store.Get(ctx, "AboutData"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

func TestParseRedisConnection(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		addr     string
		password string
		db       int
		wantErr  bool
	}{
		{"host port", "localhost:6379", "localhost:6379", "", 0, false},
		{"host only", "cache", "cache:6379", "", 0, false},
		{"options", "redis.local:6380,password=secret,defaultDatabase=2,abortConnect=false", "redis.local:6380", "secret", 2, false},
		{"url", "redis://:secret@localhost:6379/3", "localhost:6379", "secret", 3, false},
		{"bad database", "localhost:6379,defaultDatabase=x", "", "", 0, true},
		{"unknown option", "localhost:6379,foo=bar", "", "", 0, true},
		{"empty", "", "", "", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := ParseRedisConnection(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.Addr != tc.addr || opts.Password != tc.password || opts.DB != tc.db {
				t.Fatalf("unexpected options: addr=%s password=%s db=%d", opts.Addr, opts.Password, opts.DB)
			}
		})
	}
}
