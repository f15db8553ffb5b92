package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/config"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/db"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api"
	authapi "github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api/admin/control/endpoints"
	clientapi "github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, store db.Store, deps adminapi.LayoutDeps) {
	r.Use(middleware.PrometheusMetrics())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		authapi.AuthPublicModule(cfg.JWTSecret, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Users:     store,
	},
		adminapi.ScreenModule(store),
		adminapi.OverlayModule(store, deps),
		authapi.AuthSessionModule(cfg.JWTSecret, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/tv",
	},
		clientapi.LayoutModule(store),
	)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// published previews
	if !cfg.UseSpaces {
		r.Static("/uploads", cfg.UploadDir)
	}
}
