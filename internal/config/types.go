package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"10m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// 运行环境，决定错误页展示方式以及是否下发 HSTS。
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// 缓存后端的可选值，启动时选定后不再变化。
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendFile   = "file"
)

// AboutContentKey/AboutContentValue 是 About 页面默认使用的内容键与正文。
const (
	AboutContentKey   = "AboutData"
	AboutContentValue = "Your application description page."
)

// GlobalConfig 描述全局运行时行为，所有页面共享同一份参数。
type GlobalConfig struct {
	ListenPort        int      `mapstructure:"ListenPort"`
	Environment       string   `mapstructure:"Environment"`
	LogLevel          string   `mapstructure:"LogLevel"`
	LogFilePath       string   `mapstructure:"LogFilePath"`
	LogMaxSize        int      `mapstructure:"LogMaxSize"`
	LogMaxBackups     int      `mapstructure:"LogMaxBackups"`
	LogCompress       bool     `mapstructure:"LogCompress"`
	StaticDir         string   `mapstructure:"StaticDir"`
	CacheBackend      string   `mapstructure:"CacheBackend"`
	RedisConnection   string   `mapstructure:"RedisConnection"`
	StoragePath       string   `mapstructure:"StoragePath"`
	MongoDBConnection string   `mapstructure:"MongoDBConnection"`
	ConnectTimeout    Duration `mapstructure:"ConnectTimeout"`
	CacheTTL          Duration `mapstructure:"CacheTTL"`
	CoalesceMisses    bool     `mapstructure:"CoalesceMisses"`
}

// ContentConfig 声明一条静态内容：缓存未命中时由它提供权威值。
type ContentConfig struct {
	Key   string   `mapstructure:"Key"`
	Value string   `mapstructure:"Value"`
	TTL   Duration `mapstructure:"TTL"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global   GlobalConfig    `mapstructure:",squash"`
	Contents []ContentConfig `mapstructure:"Content"`
}

// IsDevelopment 表示是否处于开发环境，开发环境直接返回错误详情。
func (g GlobalConfig) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(g.Environment), EnvironmentDevelopment)
}

// EffectiveTTL 返回特定内容生效的 TTL，未覆盖时回退至全局值。
func (c *Config) EffectiveTTL(key string) time.Duration {
	if entry, ok := c.Content(key); ok && entry.TTL.DurationValue() > 0 {
		return entry.TTL.DurationValue()
	}
	return c.Global.CacheTTL.DurationValue()
}

// Content 按 Key 查找内容声明。
func (c *Config) Content(key string) (ContentConfig, bool) {
	for _, entry := range c.Contents {
		if entry.Key == key {
			return entry, true
		}
	}
	return ContentConfig{}, false
}

// ContentValues 返回 key → value 映射，供静态内容源使用。
func (c *Config) ContentValues() map[string]string {
	values := make(map[string]string, len(c.Contents))
	for _, entry := range c.Contents {
		values[entry.Key] = entry.Value
	}
	return values
}

// ContentKeys 按配置顺序返回所有内容键，供日志字段使用。
func (c *Config) ContentKeys() []string {
	if len(c.Contents) == 0 {
		return nil
	}
	keys := make([]string, len(c.Contents))
	for i, entry := range c.Contents {
		keys[i] = entry.Key
	}
	return keys
}
