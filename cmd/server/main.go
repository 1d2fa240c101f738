package main

import (
	"context"
	"flag"
	"log/slog"
	"lovealbum/bot"
	"lovealbum/impl/auth"
	"lovealbum/impl/core"
	"lovealbum/internal/album"
	"lovealbum/internal/config"
	"lovealbum/internal/database"
	"lovealbum/internal/http-server/api"
	"lovealbum/internal/registry"
	"lovealbum/internal/watcher"
	"lovealbum/lib/logger"
	"lovealbum/lib/sl"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, *logPath)
	log.Info("starting lovealbum", slog.String("config", *configPath), slog.String("env", conf.Env))

	// the bot keeps the plain logger so its own send failures are never forwarded back to it
	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, log, bot.Config{
			AdminIds: conf.Telegram.AdminIds,
		})
		if err != nil {
			log.Error("telegram bot", sl.Err(err))
		} else if conf.Telegram.ForwardLogs {
			log = slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, slog.LevelWarn))
			log.Info("forwarding warnings to telegram admins")
		}
	}

	db, err := database.New(conf, log)
	if err != nil {
		log.Error("database", sl.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	var opts []registry.Option
	if !conf.Album.SeedDemo {
		opts = append(opts, registry.WithoutSeed())
	}
	reg := registry.New(db, log, opts...)
	albums := album.NewRepository(db, reg.Now, log)

	handler := core.New(reg, albums, core.Config{
		PublicURL:  conf.Album.PublicURL,
		EntryDelay: conf.Album.EntryDelay,
		DraftTTL:   conf.Album.DraftTTL,
		SessionTTL: conf.Album.SessionTTL,
	}, log)
	handler.SetAuthService(auth.New(conf.Admin.Users))
	handler.Start()
	defer handler.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if tgBot != nil {
		tgBot.SetCore(handler)
		go func() {
			if err := tgBot.Start(); err != nil {
				log.Error("telegram bot", sl.Err(err))
			}
		}()
		defer tgBot.Stop()
	}

	if conf.Album.WatchInterval > 0 {
		codeWatcher := watcher.New(reg, reg.Now, conf.Album.ClosingNotice, log)
		if tgBot != nil {
			codeWatcher.WithHandler(tgBot.CodeEvent)
		}
		codeWatcher.Start(conf.Album.WatchInterval)
		defer codeWatcher.Stop()
	}

	server, err := api.New(conf, log, handler)
	if err != nil {
		log.Error("api server", sl.Err(err))
		return
	}
	go func() {
		if err := server.Start(); err != nil {
			log.Error("api server", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("api server shutdown", sl.Err(err))
	}
}
