// Package content holds the authoritative sources consulted when a content key
// is missing from the cache. Providers never read or write the cache.
package content

import (
	"context"
	"errors"
	"fmt"
)

// Provider 为内容键生成权威值，可以是常量、计算结果或外部数据源。
type Provider interface {
	Fetch(ctx context.Context, key string) (string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, key string) (string, error)

// Fetch makes ProviderFunc satisfy Provider.
func (f ProviderFunc) Fetch(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

// ErrUnknownKey 表示内容源没有该键。
var ErrUnknownKey = errors.New("unknown content key")

// Error 包装内容源失败，是解析链路中唯一对用户可见的错误来源。
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("content %q: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Static 是固定 key → value 的内容源；构造后只读，并发安全。
type Static struct {
	values map[string]string
}

// NewStatic 复制传入的映射，调用方后续修改不会影响内容源。
func NewStatic(values map[string]string) *Static {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Static{values: copied}
}

// Fetch 返回静态值；未声明的键返回包装 ErrUnknownKey 的 *Error。
func (s *Static) Fetch(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Key: key, Err: err}
	}
	value, ok := s.values[key]
	if !ok {
		return "", &Error{Key: key, Err: ErrUnknownKey}
	}
	return value, nil
}
