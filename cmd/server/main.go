package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/koopa0/system-design/14-mao-card-game/internal/config"
	"github.com/koopa0/system-design/14-mao-card-game/internal/events"
	"github.com/koopa0/system-design/14-mao-card-game/internal/room"
	"github.com/koopa0/system-design/14-mao-card-game/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// 解析命令行參數（優先於配置檔與環境變數）
	var (
		configPath = flag.String("config", "", "YAML 配置檔路徑")
		port       = flag.Int("port", 0, "服務器端口（0 表示使用配置）")
		logLevel   = flag.String("log-level", "", "日誌級別 (debug, info, warn, error)")
		logFormat  = flag.String("log-format", "", "日誌格式 (text, json)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)

	// 對外事件：沒設定 NATS 就不發布
	var publisher events.Publisher = events.Nop{}
	if cfg.Events.NATSURL != "" {
		p, err := events.NewNATSPublisher(events.Config{
			URL:           cfg.Events.NATSURL,
			SubjectPrefix: cfg.Events.SubjectPrefix,
		}, logger)
		if err != nil {
			return err
		}
		publisher = p
		logger.Info("NATS 事件發布已啟用", "url", cfg.Events.NATSURL)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("關閉事件發布失敗", "error", err)
		}
	}()

	manager := room.NewManager(logger, room.Config{
		SweepInterval: cfg.Rooms.SweepInterval,
		MaxAge:        cfg.Rooms.MaxAge,
	})
	hub := transport.NewHub(manager, publisher, logger, cfg.Server.AllowedOrigins)
	handler := transport.NewHandler(manager, hub, logger, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Mao 遊戲服務器啟動",
			"addr", server.Addr,
			"log_level", cfg.Log.Level,
			"log_format", cfg.Log.Format)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("收到關閉信號，開始優雅關閉...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// 停止接受新連接；WebSocket 是 hijacked 連線，由 hub 自行關閉
		err := server.Shutdown(shutdownCtx)
		hub.Stop()
		manager.Stop()
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("服務器已關閉")
	return nil
}

// setupLogger 設置日誌
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: level == "debug",
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
