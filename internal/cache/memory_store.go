package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/samber/mo"
)

// memoryStore 使用 ttlcache 保存 Entry；逻辑过期以 Entry.ExpiresAt 为准，
// ttlcache 自带的 TTL 只负责后台清理。
type memoryStore struct {
	items     *ttlcache.Cache[string, Entry]
	now       func() time.Time
	closeOnce sync.Once
}

// MemoryOption 调整内存后端行为，主要用于测试注入时钟。
type MemoryOption func(*memoryStore)

// WithClock 替换内存后端使用的时钟。
func WithClock(now func() time.Time) MemoryOption {
	return func(s *memoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore 创建进程内缓存，并启动后台过期清理。
func NewMemoryStore(opts ...MemoryOption) Store {
	s := &memoryStore{
		items: ttlcache.New[string, Entry](
			ttlcache.WithDisableTouchOnHit[string, Entry](),
		),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.items.Start()
	return s
}

func (s *memoryStore) Get(ctx context.Context, key string) (mo.Option[string], error) {
	if err := ctx.Err(); err != nil {
		return mo.None[string](), newError("get", key, err)
	}
	item := s.items.Get(key)
	if item == nil {
		return mo.None[string](), nil
	}
	entry := item.Value()
	// 读路径只做被动过期，不删除条目；清理交给 ttlcache 后台任务。
	if entry.Expired(s.now()) {
		return mo.None[string](), nil
	}
	return mo.Some(entry.Value), nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := checkSet(key, ttl); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return newError("set", key, err)
	}
	s.items.Set(key, Entry{
		Key:       key,
		Value:     value,
		ExpiresAt: s.now().Add(ttl),
	}, ttl)
	return nil
}

func (s *memoryStore) Close() error {
	s.closeOnce.Do(s.items.Stop)
	return nil
}
