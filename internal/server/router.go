package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pagehub/pagehub/internal/logging"
)

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger      *logrus.Logger
	Views       fiber.Views
	Development bool
	StaticDir   string
	ListenPort  int
}

const (
	contextKeyRequestID = "_pagehub_request_id"

	// ErrorView is the template rendered for unhandled errors in production.
	ErrorView = "error"
	// LayoutView wraps every rendered page.
	LayoutView = "layout"

	hstsValue = "max-age=2592000"
)

// NewApp builds a Fiber application with request ID, access logging and
// structured error handling. Routes are registered by the caller.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Views == nil {
		return nil, errors.New("views are required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		Views:        opts.Views,
		ViewsLayout:  LayoutView,
		ErrorHandler: errorHandler(opts),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts))

	if dir := strings.TrimSpace(opts.StaticDir); dir != "" {
		app.Get("/static/*", static.New(dir))
	}

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID、写入安全响应头并输出访问日志。
func requestContextMiddleware(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		started := time.Now()
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		// HSTS 只在 HTTPS 请求上发送，浏览器会忽略明文响应中的该头。
		if !opts.Development && c.Scheme() == "https" {
			c.Set(fiber.HeaderStrictTransportSecurity, hstsValue)
		}

		err := c.Next()
		if isDiagnosticsPath(c.Path()) {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil {
			status = statusFromError(err)
		}
		opts.Logger.WithFields(logging.RequestFields(reqID, c.Method(), c.Path(), status)).
			WithField("elapsed_ms", time.Since(started).Milliseconds()).
			Info("request")
		return err
	}
}

// errorHandler 开发环境直接返回错误详情；生产环境渲染 Error 视图，且不允许缓存。
func errorHandler(opts AppOptions) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := statusFromError(err)
		reqID := RequestID(c)

		entry := opts.Logger.WithError(err).WithFields(logrus.Fields{
			"action":     "request_failed",
			"request_id": reqID,
			"path":       c.Path(),
			"status":     code,
		})
		if code >= fiber.StatusInternalServerError {
			entry.Error("unhandled error")
		} else {
			entry.Debug("request rejected")
		}

		c.Set(fiber.HeaderCacheControl, NoStoreCacheControl)

		if opts.Development {
			return c.Status(code).JSON(fiber.Map{
				"error":      err.Error(),
				"status":     code,
				"request_id": reqID,
			})
		}

		renderErr := c.Status(code).Render(ErrorView, fiber.Map{
			"Title":     "Error",
			"RequestID": reqID,
			"Status":    code,
		})
		if renderErr != nil {
			opts.Logger.WithError(renderErr).WithField("action", "render_error_view").Error("error view failed")
			return c.Status(code).JSON(fiber.Map{"error": "internal_error", "request_id": reqID})
		}
		return nil
	}
}

// NoStoreCacheControl mirrors a response that must never be cached.
const NoStoreCacheControl = "no-store, no-cache"

func statusFromError(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}

