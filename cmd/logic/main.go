package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"hanakoi.game.logic/internal/ai"
	"hanakoi.game.logic/internal/config"
	"hanakoi.game.logic/internal/connection"
	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
	"hanakoi.game.logic/internal/game/usecase"
	"hanakoi.game.logic/internal/handler"
	"hanakoi.game.logic/internal/health"
	"hanakoi.game.logic/internal/lock"
	hkNats "hanakoi.game.logic/internal/nats"
	"hanakoi.game.logic/internal/repository"
	"hanakoi.game.logic/internal/snowflake"
	"hanakoi.game.logic/internal/task"
	"hanakoi.game.logic/internal/timeout"
)

func main() {
	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// 加载配置
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接 NATS
	natsClient, err := hkNats.NewClient(cfg.NATS)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 定时调度器
	scheduler := task.NewScheduler(cfg.Game.SchedulerTick, cfg.Game.SchedulerSlots, cfg.Game.SchedulerWorkers)
	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	// 基础组件
	ids := snowflake.NewNode(cfg.App.NodeID)
	gameRepo := repository.NewGameRepository(db)
	gameStore := game.NewStore(gameRepo, evictTimeout(cfg.Game))
	locations := connection.NewStore(redisClient)
	timeouts := timeout.NewManager(scheduler, timeoutConfig(cfg.Game))

	// 事件总线与消费通道
	bus := event.NewBus()
	bus.Register(hkNats.NewClientPusher(natsClient.Conn(), locations))
	bus.Register(repository.NewReplayLog(db, ids))
	bus.Register(ai.NewOpponent())
	bus.Start()
	defer bus.Stop()

	// 对局用例服务
	gameService := usecase.NewService(
		gameStore,
		lock.NewKeyedMutex(),
		timeouts,
		bus,
		gameRepo,
		koikoi.NewDeckGenerator(),
		ids,
	)

	// 启动上行指令订阅
	gameHandler := handler.NewGameHandler(gameService, locations)
	subscriber := hkNats.NewCommandSubscriber(natsClient.Conn(), gameHandler, hkNats.SubscriberConfig{})
	if err := subscriber.Start(ctx); err != nil {
		logger.Error("Failed to start subscriber", "error", err)
		os.Exit(1)
	}

	// 启动健康检查 HTTP 服务
	healthChecker := health.NewChecker(natsClient.Conn(), redisClient, db, scheduler, gameStore)
	go startHealthServer(healthChecker, logger)

	logger.Info("Logic service started", "name", cfg.App.Name)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()
	subscriber.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := gameStore.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Game store shutdown failed", "error", err)
	}

	logger.Info("Logic service stopped")
}

// timeoutConfig 组装超时配置, 缺省项用默认值
func timeoutConfig(cfg config.GameConfig) timeout.Config {
	out := timeout.DefaultConfig()
	if cfg.ActionSeconds > 0 {
		out.ActionSeconds = cfg.ActionSeconds
	}
	if cfg.ActionBuffer > 0 {
		out.ActionBuffer = cfg.ActionBuffer
	}
	if cfg.DisconnectTimeout > 0 {
		out.Disconnect = cfg.DisconnectTimeout
	}
	if cfg.IdleTimeout > 0 {
		out.Idle = cfg.IdleTimeout
	}
	if cfg.ConfirmTimeout > 0 {
		out.Confirm = cfg.ConfirmTimeout
	}
	if cfg.AcceleratedTimeout > 0 {
		out.Accelerated = cfg.AcceleratedTimeout
	}
	return out
}

// evictTimeout 不活跃对局淘汰时限
func evictTimeout(cfg config.GameConfig) time.Duration {
	if cfg.EvictTimeout > 0 {
		return cfg.EvictTimeout
	}
	return 30 * time.Minute
}

// startHealthServer 启动健康检查 HTTP 服务
func startHealthServer(healthChecker *health.Checker, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/health", healthChecker)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if healthChecker.IsHealthy(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready"))
		}
	})

	server := &http.Server{
		Addr:    ":8081",
		Handler: mux,
	}

	logger.Info("Health check server started", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Health check server failed", "error", err)
	}
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
