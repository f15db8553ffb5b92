package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/render"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/config"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/db"
	adminapi "github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api/admin/control/endpoints"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogging(cfg.LogLevel, cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.Init(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	defer db.DB.Close()

	if err := db.RunMigrations(db.DB, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := db.NewStore(db.DB)

	renderer, err := render.New(render.DefaultOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize renderer")
	}

	deps := adminapi.LayoutDeps{
		Renderer: renderer,
		Notifier: middleware.NopNotifier{},
		Storage:  InitStorage(cfg),
		Hub:      adminapi.NewLayoutHub(),
	}

	if cfg.RedisAddress != "" {
		cache := redis.New(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cache.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("address", cfg.RedisAddress).Msg("redis unreachable, previews will not be cached")
		} else {
			deps.Cache = cache
			defer cache.Close()
		}
		cancel()
	}

	if cfg.MQTTBrokerURL != "" {
		notifier, err := middleware.NewMQTTNotifier(cfg.MQTTBrokerURL, "medusa-canvas-"+uuid.NewString())
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.MQTTBrokerURL).Msg("mqtt unavailable, screens will not be notified")
		} else {
			deps.Notifier = notifier
			defer notifier.Close()
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg, store, deps)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("address", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
}
