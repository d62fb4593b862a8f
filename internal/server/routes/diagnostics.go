package routes

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/pagehub/pagehub/internal/cache"
	"github.com/pagehub/pagehub/internal/content"
	"github.com/pagehub/pagehub/internal/resolver"
)

// healthProbeKey 只用于读探测，不会被写入。
const healthProbeKey = "__pagehub_health__"

const healthTimeout = 2 * time.Second

// ContentResolver 抽象解析器，便于测试注入。
type ContentResolver interface {
	Lookup(ctx context.Context, key string, ttl time.Duration) (resolver.Result, error)
}

// DatabasePinger 抽象数据库健康检查。
type DatabasePinger interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// Diagnostics 汇总诊断接口依赖；Metrics/Database 可以为空。
type Diagnostics struct {
	Resolver ContentResolver
	Store    cache.Store
	Database DatabasePinger
	Metrics  http.Handler
	Backend  string
	TTL      func(key string) time.Duration
}

// RegisterDiagnosticsRoutes 暴露 /-/content、/-/health 与 /-/metrics，供 SRE 排查缓存与依赖状态。
func RegisterDiagnosticsRoutes(app *fiber.App, d Diagnostics) {
	if app == nil {
		return
	}

	if d.Resolver != nil && d.TTL != nil {
		app.Get("/-/content/:key", func(c fiber.Ctx) error {
			key := strings.TrimSpace(c.Params("key"))
			if key == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content_key_required"})
			}
			result, err := d.Resolver.Lookup(requestContext(c), key, d.TTL(key))
			if err != nil {
				if errors.Is(err, content.ErrUnknownKey) {
					return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "content_not_found"})
				}
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "content_unavailable"})
			}
			return c.JSON(contentPayload{
				Key:      key,
				Value:    result.Value,
				CacheHit: result.CacheHit(),
			})
		})
	}

	app.Get("/-/health", func(c fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(requestContext(c), healthTimeout)
		defer cancel()

		payload := healthPayload{
			Cache:    probeCache(ctx, d.Store),
			Database: probeDatabase(ctx, d.Database),
			Backend:  d.Backend,
		}
		status := fiber.StatusOK
		if payload.Cache == statusDown || payload.Database == statusDown {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(payload)
	})

	if d.Metrics != nil {
		app.Get("/-/metrics", adaptor.HTTPHandler(d.Metrics))
	}
}

const (
	statusUp       = "up"
	statusDown     = "down"
	statusDisabled = "disabled"
)

type contentPayload struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	CacheHit bool   `json:"cache_hit"`
}

type healthPayload struct {
	Cache    string `json:"cache"`
	Database string `json:"database"`
	Backend  string `json:"cache_backend,omitempty"`
}

func requestContext(c fiber.Ctx) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func probeCache(ctx context.Context, store cache.Store) string {
	if store == nil {
		return statusDisabled
	}
	if _, err := store.Get(ctx, healthProbeKey); err != nil {
		return statusDown
	}
	return statusUp
}

func probeDatabase(ctx context.Context, db DatabasePinger) string {
	if db == nil || !db.Enabled() {
		return statusDisabled
	}
	if err := db.Ping(ctx); err != nil {
		return statusDown
	}
	return statusUp
}
