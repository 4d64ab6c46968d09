package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/bot"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/config"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/filter"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/forwarder"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/retention"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/storage"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/telegram"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/transform"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("create bot api", "error", err)
		os.Exit(1)
	}

	engine := filter.New(filter.StorageDirectory{Users: store}, log)
	disp := forwarder.New(store, store, engine, telegram.NewClient(api), copyTransform, log)

	b := bot.New(api, store, cfg, disp, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := disp.Reload(ctx); err != nil {
		log.Error("load routing table", "error", err)
		os.Exit(1)
	}
	disp.Start(ctx)
	defer disp.Stop()

	keeper := retention.New(store, cfg.RetentionDays, log)
	if err := keeper.Start(ctx); err != nil {
		log.Error("start retention job", "error", err)
		os.Exit(1)
	}
	defer keeper.Stop()

	log.Info("starting bot")

	b.Run(ctx)

	log.Info("bot stopped")
}

// copyTransform adapts the transform package to the dispatcher's
// transformer signature.
func copyTransform(text string, p model.TextProcessing, adv model.Advanced) (string, forwarder.SendOptions) {
	res := transform.Apply(text, p, adv)
	return res.Text, forwarder.SendOptions{ReplyMarkup: res.ReplyMarkup}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
