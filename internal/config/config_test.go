package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfgPath := testConfigPath(t, "valid.toml")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.CacheTTL.DurationValue() != 10*time.Minute {
		t.Fatalf("CacheTTL 应解析为 10m，得到 %s", cfg.Global.CacheTTL.DurationValue())
	}
	if cfg.Global.ListenPort != 5000 {
		t.Fatalf("ListenPort 应当被解析")
	}
	if cfg.Global.ConnectTimeout.DurationValue() != 5*time.Second {
		t.Fatalf("ConnectTimeout 应该自动填充默认值")
	}
	if cfg.Global.LogMaxSize != 100 {
		t.Fatalf("LogMaxSize 应该自动填充默认值")
	}
	if len(cfg.Contents) != 2 {
		t.Fatalf("应解析出 2 条内容，得到 %d", len(cfg.Contents))
	}
	if cfg.EffectiveTTL(AboutContentKey) != 600*time.Second {
		t.Fatalf("AboutData 的 TTL 应为 600s")
	}
	if cfg.EffectiveTTL("ContactData") != 10*time.Minute {
		t.Fatalf("内容未设置 TTL 时应退回全局 TTL")
	}
}

func TestLoadAddsAboutContentWhenAbsent(t *testing.T) {
	path := writeTempConfig(t, `
CacheBackend = "memory"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	entry, ok := cfg.Content(AboutContentKey)
	if !ok {
		t.Fatalf("缺省配置应自动补齐 %s", AboutContentKey)
	}
	if entry.Value != AboutContentValue {
		t.Fatalf("默认内容不符: %q", entry.Value)
	}
	if cfg.Global.CacheBackend != BackendMemory {
		t.Fatalf("CacheBackend 应为 memory，得到 %s", cfg.Global.CacheBackend)
	}
}

func TestLoadAllowsEnvironmentOverride(t *testing.T) {
	t.Setenv("PAGEHUB_REDISCONNECTION", "redis://cache.internal:6380/1")
	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.RedisConnection != "redis://cache.internal:6380/1" {
		t.Fatalf("环境变量应覆盖配置文件，得到 %s", cfg.Global.RedisConnection)
	}
}

func TestValidateRejectsBadContent(t *testing.T) {
	cfgPath := testConfigPath(t, "missing.toml")

	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("不合法的配置应返回错误")
	}
}

func TestEffectiveTTLOverrides(t *testing.T) {
	cfg := &Config{
		Global:   GlobalConfig{CacheTTL: Duration(time.Hour)},
		Contents: []ContentConfig{{Key: "k", TTL: Duration(2 * time.Hour)}},
	}
	if ttl := cfg.EffectiveTTL("k"); ttl != 2*time.Hour {
		t.Fatalf("覆盖 TTL 应该优先生效")
	}
	if ttl := cfg.EffectiveTTL("unknown"); ttl != time.Hour {
		t.Fatalf("未声明的内容应使用全局 TTL")
	}
}

func TestValidateEnforcesListenPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPort 超出范围应当报错")
	}
}

func TestBackendValidation(t *testing.T) {
	testCases := []struct {
		name      string
		backend   string
		redis     string
		storage   string
		shouldErr bool
	}{
		{"redis host port", BackendRedis, "localhost:6379", "", false},
		{"redis url", BackendRedis, "redis://:secret@localhost:6379/0", "", false},
		{"redis wrong scheme", BackendRedis, "http://localhost:6379", "", true},
		{"redis missing connection", BackendRedis, "", "", true},
		{"memory ok", BackendMemory, "", "", false},
		{"file ok", BackendFile, "", "./data", false},
		{"file missing storage", BackendFile, "", "", true},
		{"unsupported backend", "memcached", "", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Global.CacheBackend = tc.backend
			cfg.Global.RedisConnection = tc.redis
			cfg.Global.StoragePath = tc.storage
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error for backend %q", tc.backend)
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error for backend %q: %v", tc.backend, err)
			}
		})
	}
}

func TestValidateRejectsDuplicateContentKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Contents = append(cfg.Contents, ContentConfig{Key: AboutContentKey, Value: "dup"})
	err := cfg.Validate()
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("重复 Key 应返回 FieldError，得到 %v", err)
	}
	if fieldErr.Field != "Content[AboutData].Key" {
		t.Fatalf("字段路径不符: %s", fieldErr.Field)
	}
}

func TestValidateRejectsBadMongoConnection(t *testing.T) {
	cfg := validConfig()
	cfg.Global.MongoDBConnection = "postgres://localhost"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("非 mongodb 协议应当报错")
	}
}

func TestValidateRejectsUnknownEnvironment(t *testing.T) {
	cfg := validConfig()
	cfg.Global.Environment = "staging"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("未知环境应当报错")
	}
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort:      5000,
			Environment:     EnvironmentProduction,
			LogLevel:        "info",
			CacheBackend:    BackendRedis,
			RedisConnection: "localhost:6379",
			CacheTTL:        Duration(10 * time.Minute),
			ConnectTimeout:  Duration(time.Second),
		},
		Contents: []ContentConfig{
			{Key: AboutContentKey, Value: AboutContentValue},
		},
	}
}
