package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sethkontny/aaventure/internal/cache"
	"github.com/sethkontny/aaventure/internal/config"
	"github.com/sethkontny/aaventure/internal/handler"
	"github.com/sethkontny/aaventure/internal/hub"
	"github.com/sethkontny/aaventure/internal/identity"
	"github.com/sethkontny/aaventure/internal/registry"
	"github.com/sethkontny/aaventure/internal/service"
	"github.com/sethkontny/aaventure/internal/store"
	"github.com/sethkontny/aaventure/pkg/database"
	pkglog "github.com/sethkontny/aaventure/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		pkglog.L().Fatal().Err(err).Msg("failed to load config")
	}

	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db,
		&store.MessageModel{}, &store.ReportModel{}, &store.UserModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	messageStore := store.NewGormMessageStore(db)
	reportStore := store.NewGormReportStore(db)
	userStore := store.NewGormUserStore(db)

	var historyCache cache.HistoryCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisHistoryCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		historyCache = redisCache
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis history cache connected")
	} else {
		historyCache = cache.NewNoopHistoryCache()
	}
	defer historyCache.Close()

	reg := registry.New()
	wsHub := hub.New()

	presence := service.NewPresencePublisher(wsHub)
	reg.SetListener(presence)

	chatSvc := service.NewChatService(
		reg, wsHub, messageStore, historyCache, cfg.Cache.TTL,
		cfg.Chat.HistoryLimit, cfg.Chat.MaxMessageLength,
	)
	signalSvc := service.NewSignalService(reg, wsHub)
	ephemeralSvc := service.NewEphemeralService(reg, wsHub)
	moderationSvc := service.NewModerationService(reg, wsHub, messageStore, reportStore)

	resolver := identity.NewJWTResolver(cfg.Auth.JWTSecret, cfg.Auth.Issuer, userStore)

	wsHandler := handler.NewWSHandler(
		wsHub, reg, resolver,
		chatSvc, signalSvc, ephemeralSvc, moderationSvc,
		cfg.WebSocket,
	)
	httpHandler := handler.NewHTTPHandler(chatSvc, wsHandler)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": wsHub.Len()})
	})
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("meetroom core listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("stopped")
}
