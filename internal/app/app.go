// Package app wires configuration into the concrete stores, oracles and
// notifiers shared by the server and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"ouvidoria/backend/internal/config"
	"ouvidoria/backend/internal/eligibility"
	"ouvidoria/backend/internal/feed"
	"ouvidoria/backend/internal/notify"
	"ouvidoria/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Deps holds the long-lived resources opened from a Config.
type Deps struct {
	Config config.Config
	Logger *slog.Logger
	Store  storage.Storage
	Oracle eligibility.Oracle
	// Redis is nil unless REDIS_ADDR is set.
	Redis *redis.Client

	closers []func() error
}

// Open connects every backend cfg names. On error, whatever was already
// opened is closed again.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (d *Deps, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	d = &Deps{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = d.Close()
			d = nil
		}
	}()

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		d.closers = append(d.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		d.Redis = rdb
	}

	if err := d.openStore(); err != nil {
		return nil, err
	}
	if err := d.openOracle(); err != nil {
		return nil, err
	}

	logger.Info("dependencies ready",
		"store", cfg.StoreDriver,
		"eligibility", cfg.EligibilitySource,
		"redis", d.Redis != nil,
	)
	return d, nil
}

func (d *Deps) openStore() error {
	switch d.Config.StoreDriver {
	case config.StoreFile:
		s, err := storage.NewFileStore(d.Config.StorePath, d.Logger)
		if err != nil {
			return err
		}
		d.Store = s

	case config.StoreSQLite:
		s, err := storage.OpenSQLite(d.Config.StorePath)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, s.Close)
		d.Store = s

	case config.StorePostgres:
		db, err := gorm.Open(postgres.Open(d.Config.DatabaseURL), &gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			d.closers = append(d.closers, sqlDB.Close)
		}
		s := storage.NewStorageService(db)
		if err := s.Migrate(); err != nil {
			return fmt.Errorf("migrate complaints: %w", err)
		}
		d.Store = s

	default:
		return fmt.Errorf("unknown store driver %q", d.Config.StoreDriver)
	}
	return nil
}

func (d *Deps) openOracle() error {
	switch d.Config.EligibilitySource {
	case config.EligibilityFile:
		d.Oracle = eligibility.NewFileList(d.Config.EligibilityFile, d.Logger)

	case config.EligibilityRedis:
		if d.Redis == nil {
			return errors.New("redis eligibility source needs REDIS_ADDR")
		}
		d.Oracle = eligibility.NewRedisSet(d.Redis, d.Config.EligibilityRedisKey)

	case config.EligibilityPostgres:
		p, err := eligibility.OpenPostgres(d.Config.DatabaseURL)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, p.Close)
		d.Oracle = p

	default:
		return fmt.Errorf("unknown eligibility source %q", d.Config.EligibilitySource)
	}
	return nil
}

// Notifier assembles every configured announcement channel. hub may be nil.
// A Telegram bot that fails to authorize is skipped with a warning.
func (d *Deps) Notifier(hub *feed.Hub) notify.Notifier {
	var m notify.Multi

	if d.Config.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(d.Config.TelegramBotToken, d.Config.TelegramAdminChatID, d.Config.NotifyTimeout, d.Logger)
		if err != nil {
			d.Logger.Warn("telegram notifier disabled", "error", err)
		} else {
			m = append(m, notify.Named{Name: "telegram", Notifier: tg})
		}
	}
	if d.Redis != nil {
		m = append(m, notify.Named{Name: "redis", Notifier: notify.NewRedisPublisher(d.Redis, config.NewComplaintChannel)})
	}
	if hub != nil {
		m = append(m, notify.Named{Name: "feed", Notifier: hub})
	}

	if len(m) == 0 {
		return notify.Nop{}
	}
	return m
}

// Close releases resources in reverse opening order.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
