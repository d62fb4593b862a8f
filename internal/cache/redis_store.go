package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/mo"
)

// redisStore 基于 go-redis 连接池实现 Store，客户端自身并发安全。
type redisStore struct {
	client *redis.Client
}

// NewRedisStore 解析连接串并创建 Redis 客户端，不会在此处发起网络连接。
func NewRedisStore(connection string, dialTimeout time.Duration) (Store, error) {
	opts, err := ParseRedisConnection(connection)
	if err != nil {
		return nil, err
	}
	if dialTimeout > 0 {
		opts.DialTimeout = dialTimeout
	}
	return &redisStore{client: redis.NewClient(opts)}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) (mo.Option[string], error) {
	value, err := s.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return mo.Some(value), nil
	case errors.Is(err, redis.Nil):
		return mo.None[string](), nil
	default:
		return mo.None[string](), newError("get", key, err)
	}
}

func (s *redisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := checkSet(key, ttl); err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return newError("set", key, err)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

// ParseRedisConnection 同时支持 redis:// URL 与
// "host:port,password=...,defaultDatabase=1,ssl=true" 形式的连接串。
func ParseRedisConnection(raw string) (*redis.Options, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("redis connection string required")
	}
	if strings.Contains(raw, "://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}

	parts := strings.Split(raw, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	if opts.Addr == "" {
		return nil, errors.New("redis address required")
	}
	if !strings.Contains(opts.Addr, ":") {
		opts.Addr += ":6379"
	}

	for _, part := range parts[1:] {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("invalid redis option %q", part)
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "password":
			opts.Password = value
		case "user", "username":
			opts.Username = value
		case "defaultdatabase":
			db, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid defaultDatabase %q: %w", value, err)
			}
			opts.DB = db
		case "connecttimeout":
			ms, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid connectTimeout %q: %w", value, err)
			}
			opts.DialTimeout = time.Duration(ms) * time.Millisecond
		case "ssl", "abortconnect", "allowadmin", "name":
			// ssl 需要 TLS 配置，交由 rediss:// URL 处理；其余选项在 go-redis 中无对应语义。
		default:
			return nil, fmt.Errorf("unsupported redis option %q", name)
		}
	}
	return opts, nil
}
