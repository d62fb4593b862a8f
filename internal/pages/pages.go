// Package pages implements the Home page actions. About is the only page whose
// message goes through the cache-aside resolver; the rest are static.
package pages

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/pagehub/pagehub/internal/logging"
	"github.com/pagehub/pagehub/internal/resolver"
	"github.com/pagehub/pagehub/internal/server"
)

// ContactMessage 是 Contact 页面固定展示的文本。
const ContactMessage = "Your contact page."

// ContentResolver 抽象解析器，便于测试注入。
type ContentResolver interface {
	Lookup(ctx context.Context, key string, ttl time.Duration) (resolver.Result, error)
}

// Options 描述页面处理器依赖。
type Options struct {
	Resolver ContentResolver
	Logger   *logrus.Logger
	Backend  string
	AboutKey string
	AboutTTL time.Duration
}

// Handler 承载 Home 控制器的全部动作。
type Handler struct {
	resolver ContentResolver
	logger   *logrus.Logger
	backend  string
	aboutKey string
	aboutTTL time.Duration
}

// NewHandler 校验依赖并构造处理器。
func NewHandler(opts Options) (*Handler, error) {
	if opts.Resolver == nil {
		return nil, errors.New("content resolver is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.AboutKey == "" {
		return nil, errors.New("about content key is required")
	}
	if opts.AboutTTL <= 0 {
		return nil, errors.New("about ttl must be positive")
	}
	return &Handler{
		resolver: opts.Resolver,
		logger:   opts.Logger,
		backend:  opts.Backend,
		aboutKey: opts.AboutKey,
		aboutTTL: opts.AboutTTL,
	}, nil
}

// Register 按 {controller=Home}/{action=Index}/{id?} 约定挂载路由，id 段可选且被忽略。
func Register(router fiber.Router, h *Handler) {
	if router == nil || h == nil {
		return
	}
	router.Get("/", h.Index)
	router.Get("/Home", h.Index)
	router.Get("/Home/Index/:id?", h.Index)
	router.Get("/Home/About/:id?", h.About)
	router.Get("/Home/Contact/:id?", h.Contact)
	router.Get("/Home/Privacy/:id?", h.Privacy)
	router.Get("/Home/Error/:id?", h.Error)
}

// Index renders the landing page.
func (h *Handler) Index(c fiber.Ctx) error {
	return c.Render("index", fiber.Map{"Title": "Home Page"})
}

// About 通过解析器获取描述文本；解析失败交给全局错误处理器渲染 Error 页面。
func (h *Handler) About(c fiber.Ctx) error {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := h.resolver.Lookup(ctx, h.aboutKey, h.aboutTTL)
	if err != nil {
		return err
	}

	h.logger.WithFields(logging.ContentFields(h.aboutKey, h.backend, result.CacheHit())).
		WithField("request_id", server.RequestID(c)).
		Debug("about_content")

	return c.Render("about", fiber.Map{
		"Title":   "About",
		"Message": result.Value,
	})
}

// Contact renders the static contact message.
func (h *Handler) Contact(c fiber.Ctx) error {
	return c.Render("contact", fiber.Map{
		"Title":   "Contact",
		"Message": ContactMessage,
	})
}

// Privacy renders the privacy policy page.
func (h *Handler) Privacy(c fiber.Ctx) error {
	return c.Render("privacy", fiber.Map{"Title": "Privacy Policy"})
}

// Error 渲染错误页面，响应禁止任何缓存。
func (h *Handler) Error(c fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, server.NoStoreCacheControl)
	c.Set(fiber.HeaderPragma, "no-cache")
	return c.Render(server.ErrorView, fiber.Map{
		"Title":     "Error",
		"RequestID": server.RequestID(c),
	})
}
