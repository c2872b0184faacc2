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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-flood-watch/internal/api"
	"github.com/mr1hm/go-flood-watch/internal/archive"
	"github.com/mr1hm/go-flood-watch/internal/broadcast"
	"github.com/mr1hm/go-flood-watch/internal/config"
	"github.com/mr1hm/go-flood-watch/internal/logging"
	"github.com/mr1hm/go-flood-watch/internal/notify"
	"github.com/mr1hm/go-flood-watch/internal/refresh"
	"github.com/mr1hm/go-flood-watch/internal/report"
	"github.com/mr1hm/go-flood-watch/internal/repository"
	"github.com/mr1hm/go-flood-watch/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	loc, err := cfg.Display.Location()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "display_zone", loc.String())

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Seed.OnStart {
		seeded, err := db.ReplaceAll(ctx, seed.Stations(time.Now(), loc))
		if err != nil {
			logging.Fatalf("Failed to seed database: %v", err)
		}
		slog.Info("database seeded", "count", len(seeded))
	}

	formatter := report.New(report.Config{
		Title:        cfg.Report.Title,
		Subtitle:     cfg.Report.Subtitle,
		ProductLabel: cfg.Report.ProductLabel,
		Location:     loc,
		Compress:     true,
	})

	// Fan-out for SSE clients and the notifier
	broadcaster := broadcast.NewBroadcaster()

	refresher := refresh.NewRefresher(db, broadcaster, cfg.Refresh.Interval)
	refresher.Start(ctx)

	var sender notify.Sender = notify.LogSender{}
	if cfg.Notify.TelegramEnabled() {
		tg, err := notify.DialTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, loc)
		if err != nil {
			slog.Error("telegram unavailable, logging alerts instead", "error", err)
		} else {
			sender = tg
		}
	}
	notifier := notify.NewNotifier(broadcaster, sender, cfg.NotifyMinLevel(), cfg.Notify.Workers, cfg.Notify.BufferSize)
	notifier.Start(ctx)

	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		archiver = archive.NewArchiver(db, formatter, cfg.Archive.Dir, cfg.Report.FileStem)
		if err := archiver.Start(cfg.Archive.Schedule); err != nil {
			logging.Fatalf("Failed to schedule report archive: %v", err)
		}
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestID())
	router.Use(api.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  []string{"GET", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", api.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", api.RequestIDHeader},
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.RateBurst))

	handler := api.NewHandler(db, broadcaster, api.ExportConfig{
		Formatter: formatter,
		Location:  loc,
		FileStem:  cfg.Report.FileStem,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	refresher.Stop()
	if archiver != nil {
		archiver.Stop()
	}
	broadcaster.Close() // Ends SSE streams and the notifier subscription
	notifier.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
