package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

var supportedBackends = map[string]struct{}{
	BackendRedis:  {},
	BackendMemory: {},
	BackendFile:   {},
}

const supportedBackendList = "redis|memory|file"

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.LogLevel != "" {
		if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
			return newFieldError("Global.LogLevel", fmt.Sprintf("无法识别: %s", g.LogLevel))
		}
	}
	switch g.Environment {
	case "", EnvironmentDevelopment, EnvironmentProduction:
	default:
		return newFieldError("Global.Environment", "仅支持 development/production")
	}
	if g.CacheTTL.DurationValue() <= 0 {
		return newFieldError("Global.CacheTTL", "必须大于 0")
	}
	if g.ConnectTimeout.DurationValue() < 0 {
		return newFieldError("Global.ConnectTimeout", "不能为负数")
	}

	backend := strings.ToLower(strings.TrimSpace(g.CacheBackend))
	if _, ok := supportedBackends[backend]; !ok {
		return newFieldError("Global.CacheBackend", "仅支持 "+supportedBackendList)
	}
	switch backend {
	case BackendRedis:
		if err := validateRedisConnection(g.RedisConnection); err != nil {
			return fmt.Errorf("Global.RedisConnection: %w", err)
		}
	case BackendFile:
		if strings.TrimSpace(g.StoragePath) == "" {
			return newFieldError("Global.StoragePath", "file 后端必须配置目录")
		}
	}

	if g.MongoDBConnection != "" {
		if err := validateMongoConnection(g.MongoDBConnection); err != nil {
			return fmt.Errorf("Global.MongoDBConnection: %w", err)
		}
	}

	seenKeys := map[string]struct{}{}
	for i := range c.Contents {
		entry := &c.Contents[i]
		if strings.TrimSpace(entry.Key) == "" {
			return newFieldError("Content[].Key", "不能为空")
		}
		if _, exists := seenKeys[entry.Key]; exists {
			return newFieldError(contentField(entry.Key, "Key"), "重复")
		}
		seenKeys[entry.Key] = struct{}{}

		if entry.TTL.DurationValue() < 0 {
			return newFieldError(contentField(entry.Key, "TTL"), "不能为负数")
		}
	}

	return nil
}

func validateRedisConnection(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("缺少 Redis 连接串")
	}
	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err != nil {
			return err
		}
		if parsed.Scheme != "redis" && parsed.Scheme != "rediss" {
			return fmt.Errorf("仅支持 redis/rediss: %s", raw)
		}
		if parsed.Host == "" {
			return fmt.Errorf("连接串缺少 Host: %s", raw)
		}
		return nil
	}
	if strings.Contains(raw, " ") {
		return errors.New("连接串不允许包含空格")
	}
	return nil
}

func validateMongoConnection(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if parsed.Scheme != "mongodb" && parsed.Scheme != "mongodb+srv" {
		return fmt.Errorf("仅支持 mongodb/mongodb+srv: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("连接串缺少 Host: %s", raw)
	}
	return nil
}
