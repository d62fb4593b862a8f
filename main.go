package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/pagehub/pagehub/internal/cache"
	"github.com/pagehub/pagehub/internal/config"
	"github.com/pagehub/pagehub/internal/content"
	"github.com/pagehub/pagehub/internal/database"
	"github.com/pagehub/pagehub/internal/logging"
	"github.com/pagehub/pagehub/internal/metrics"
	"github.com/pagehub/pagehub/internal/pages"
	"github.com/pagehub/pagehub/internal/resolver"
	"github.com/pagehub/pagehub/internal/server"
	"github.com/pagehub/pagehub/internal/server/routes"
	"github.com/pagehub/pagehub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

const shutdownTimeout = 10 * time.Second

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["contents"] = cfg.ContentKeys()
		fields["cache_backend"] = cfg.Global.CacheBackend
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动遵循“配置 → 缓存 → MongoDB → 内容源 → 解析器 → Fiber server”顺序，
	// 所有请求共享同一个 Store 与数据库客户端。
	application, err := buildApplication(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化应用失败: %v\n", err)
		return 1
	}
	defer application.Close()

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["environment"] = cfg.Global.Environment
	fields["cache_backend"] = cfg.Global.CacheBackend
	fields["mongodb"] = application.db.Enabled()
	fields["contents"] = cfg.ContentKeys()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := startHTTPServer(ctx, application.app, cfg.Global.ListenPort, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// application 持有进程级资源，Close 负责按逆序释放。
type application struct {
	app   *fiber.App
	store cache.Store
	db    *database.Client
}

func (a *application) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = a.db.Close(ctx)
}

// buildApplication 组装缓存、数据库、解析器与 Fiber 路由。
func buildApplication(cfg *config.Config, logger *logrus.Logger) (*application, error) {
	backend, err := cache.ParseBackend(cfg.Global.CacheBackend)
	if err != nil {
		return nil, err
	}
	store, err := cache.NewStore(cache.Options{
		Backend:         backend,
		RedisConnection: cfg.Global.RedisConnection,
		StoragePath:     cfg.Global.StoragePath,
		DialTimeout:     cfg.Global.ConnectTimeout.DurationValue(),
	})
	if err != nil {
		return nil, fmt.Errorf("初始化缓存失败: %w", err)
	}

	db, err := database.Connect(cfg.Global.MongoDBConnection, cfg.Global.ConnectTimeout.DurationValue())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("初始化 MongoDB 失败: %w", err)
	}
	a := &application{store: store, db: db}

	resolverMetrics := metrics.NewResolver()
	contentResolver, err := resolver.New(store, content.NewStatic(cfg.ContentValues()), resolver.Options{
		Logger:   logger,
		Metrics:  resolverMetrics,
		Backend:  string(backend),
		Coalesce: cfg.Global.CoalesceMisses,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	views := pages.NewViews()
	if err := views.Load(); err != nil {
		a.Close()
		return nil, err
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:      logger,
		Views:       views,
		Development: cfg.Global.IsDevelopment(),
		StaticDir:   cfg.Global.StaticDir,
		ListenPort:  cfg.Global.ListenPort,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	handler, err := pages.NewHandler(pages.Options{
		Resolver: contentResolver,
		Logger:   logger,
		Backend:  string(backend),
		AboutKey: config.AboutContentKey,
		AboutTTL: cfg.EffectiveTTL(config.AboutContentKey),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	pages.Register(app, handler)

	routes.RegisterDiagnosticsRoutes(app, routes.Diagnostics{
		Resolver: contentResolver,
		Store:    store,
		Database: db,
		Metrics:  resolverMetrics.Handler(),
		Backend:  string(backend),
		TTL:      cfg.EffectiveTTL,
	})

	a.app = app
	return a, nil
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("pagehub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 PAGEHUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("PAGEHUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// startHTTPServer 阻塞直到监听失败或收到退出信号，收到信号后优雅关闭。
func startHTTPServer(ctx context.Context, app *fiber.App, port int, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.WithField("action", "shutdown").Info("收到退出信号，正在关闭")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
