package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Store 负责管理内容缓存的读写，所有请求共享同一实例。
type Store interface {
	// Get 返回未过期的缓存值；不存在或已过期时返回 mo.None，且不视为错误。
	Get(ctx context.Context, key string) (mo.Option[string], error)

	// Set 以 now+ttl 作为绝对过期时间写入，覆盖同名旧值。
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Close 释放底层连接，由进程启动流程负责调用。
	Close() error
}

// Entry 表示一条缓存记录；ExpiresAt 之后即视为不存在。
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired 判断在 now 时刻该条目是否已失效。
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Backend 枚举可选的缓存后端。
type Backend string

const (
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
)

// ParseBackend 将配置值标准化为 Backend。
func ParseBackend(raw string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(raw))); b {
	case BackendRedis, BackendMemory, BackendFile:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, raw)
	}
}

// Options 描述启动时构建 Store 所需的参数。
type Options struct {
	Backend         Backend
	RedisConnection string
	StoragePath     string
	DialTimeout     time.Duration
}

// NewStore 按 Backend 构建对应的 Store。redis 后端采用惰性连接，
// 启动时 Redis 不可用不会导致失败，读路径会退化为回源。
func NewStore(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendRedis:
		return NewRedisStore(opts.RedisConnection, opts.DialTimeout)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(opts.StoragePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

var (
	// ErrUnknownBackend 表示配置了未支持的缓存后端。
	ErrUnknownBackend = errors.New("unknown cache backend")
	// ErrInvalidTTL 表示写入时 TTL 非正数。
	ErrInvalidTTL = errors.New("ttl must be positive")
	// ErrInvalidKey 表示 key 为空或无法映射到后端存储。
	ErrInvalidKey = errors.New("invalid cache key")
)

// Error 包装后端读写失败，保留操作名与 key 以便日志定位。
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, key string, err error) error {
	return &Error{Op: op, Key: key, Err: err}
}

func checkSet(key string, ttl time.Duration) error {
	if key == "" {
		return newError("set", key, ErrInvalidKey)
	}
	if ttl <= 0 {
		return newError("set", key, ErrInvalidTTL)
	}
	return nil
}
