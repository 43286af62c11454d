package main

import (
	"context"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/cache"
	"github.com/antonkh/kupid/internal/config"
	"github.com/antonkh/kupid/internal/db"
	"github.com/antonkh/kupid/internal/logger"
	"github.com/antonkh/kupid/internal/notify"
	"github.com/antonkh/kupid/internal/server"
	"github.com/antonkh/kupid/internal/service/captcha"
	"github.com/antonkh/kupid/internal/service/discovery"
	"github.com/antonkh/kupid/internal/service/match"
	"github.com/antonkh/kupid/internal/service/moderation"
	"github.com/antonkh/kupid/internal/service/profile"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	notifier := notify.NewTelegramNotifier(cfg.Telegram.Token, log)

	appCtx := app.New(cfg, database, redisCache, log, notifier)

	registrars := []server.Registrar{
		captcha.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
		discovery.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		moderation.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, log, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
