package app

import (
	"log/slog"

	"github.com/antonkh/kupid/internal/cache"
	"github.com/antonkh/kupid/internal/config"
	"github.com/antonkh/kupid/internal/notify"
	"gorm.io/gorm"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Cfg        *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Notifier   notify.Notifier
}

// New creates a new AppContext
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, notifier notify.Notifier) *AppContext {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &AppContext{
		Cfg:        cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Notifier:   notifier,
	}
}
