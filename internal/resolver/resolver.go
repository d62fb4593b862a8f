// Package resolver implements the cache-aside read path: check the cache,
// fall back to the content provider on a miss, populate the cache with a TTL
// and return the value. Cache failures never fail a resolution; provider
// failures are the only errors callers see.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/pagehub/pagehub/internal/cache"
	"github.com/pagehub/pagehub/internal/content"
	"github.com/pagehub/pagehub/internal/logging"
	"github.com/pagehub/pagehub/internal/metrics"
)

// Outcome 描述一次成功解析走的分支。
type Outcome string

const (
	OutcomeHit  Outcome = "hit"
	OutcomeMiss Outcome = "miss"
)

// Result 携带解析出的值以及是否命中缓存。
type Result struct {
	Value   string
	Outcome Outcome
}

// CacheHit 表示值来自缓存，内容源未被调用。
func (r Result) CacheHit() bool {
	return r.Outcome == OutcomeHit
}

// Error 由内容源失败派生，是解析链路唯一对外暴露的错误。
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options 控制解析器的可选依赖。
type Options struct {
	Logger  *logrus.Logger
	Metrics *metrics.Resolver
	// Backend 仅用于日志字段。
	Backend string
	// Coalesce 开启后，同一 key 并发未命中只会触发一次回源与写缓存。
	Coalesce bool
}

// Resolver 本身不持有可变状态，共享的只有注入的 Store。
type Resolver struct {
	store    cache.Store
	provider content.Provider
	logger   *logrus.Logger
	metrics  *metrics.Resolver
	backend  string
	coalesce bool
	group    singleflight.Group
}

// New 构造解析器。store 与 provider 由启动流程创建并负责生命周期。
func New(store cache.Store, provider content.Provider, opts Options) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("cache store is required")
	}
	if provider == nil {
		return nil, errors.New("content provider is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{
		store:    store,
		provider: provider,
		logger:   logger,
		metrics:  opts.Metrics,
		backend:  opts.Backend,
		coalesce: opts.Coalesce,
	}, nil
}

// Resolve 返回 key 对应的内容值。
func (r *Resolver) Resolve(ctx context.Context, key string, ttl time.Duration) (string, error) {
	result, err := r.Lookup(ctx, key, ttl)
	if err != nil {
		return "", err
	}
	return result.Value, nil
}

// Lookup 执行“查缓存 → 未命中回源 → 写缓存”，并报告命中情况。
func (r *Resolver) Lookup(ctx context.Context, key string, ttl time.Duration) (Result, error) {
	cached, err := r.store.Get(ctx, key)
	if err != nil {
		r.metrics.ObserveCacheError("get")
		r.logger.WithError(err).
			WithFields(logging.ContentFields(key, r.backend, false)).
			Warn("cache_get_failed")
	} else if value, ok := cached.Get(); ok {
		r.metrics.ObserveOutcome(metrics.OutcomeHit)
		r.logger.WithFields(logging.ContentFields(key, r.backend, true)).Debug("content_resolved")
		return Result{Value: value, Outcome: OutcomeHit}, nil
	}

	if !r.coalesce {
		return r.fetchAndPopulate(ctx, key, ttl)
	}

	// 共享调用沿用首个调用方的 ctx。
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.fetchAndPopulate(ctx, key, ttl)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (r *Resolver) fetchAndPopulate(ctx context.Context, key string, ttl time.Duration) (Result, error) {
	value, err := r.provider.Fetch(ctx, key)
	if err != nil {
		r.metrics.ObserveOutcome(metrics.OutcomeFetchError)
		r.logger.WithError(err).
			WithFields(logging.ContentFields(key, r.backend, false)).
			Error("content_fetch_failed")
		return Result{}, &Error{Key: key, Err: err}
	}

	if err := r.store.Set(ctx, key, value, ttl); err != nil {
		r.metrics.ObserveCacheError("set")
		r.logger.WithError(err).
			WithFields(logging.ContentFields(key, r.backend, false)).
			WithField("ttl_seconds", int64(ttl/time.Second)).
			Warn("cache_set_failed")
	}

	r.metrics.ObserveOutcome(metrics.OutcomeMiss)
	r.logger.WithFields(logging.ContentFields(key, r.backend, false)).Debug("content_resolved")
	return Result{Value: value, Outcome: OutcomeMiss}, nil
}
