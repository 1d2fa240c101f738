// Package bot is the Telegram admin panel for access codes.
//
//   - tgbot.go     TgBot struct and lifecycle (Start/Stop)
//   - commands.go  /start and /help
//   - admin.go     /codes, /addcode, /gencode, /delcode, /extend
//   - callbacks.go inline delete/extend buttons under each code
//   - menus.go     command menus, admin chats get the full list
//   - messaging.go log forwarding: errors go out at once, warnings in a digest
//   - digest.go    DigestBuffer for batched delivery
//   - helpers.go   Sanitize, plainResponse, reportError, code list formatting
//
// Only chats listed in the config as admins may run code commands.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"lovealbum/impl/core"
	"lovealbum/lib/sl"
	"slices"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
)

const commandTimeout = 10 * time.Second

type Config struct {
	AdminIds       []int64
	DigestInterval time.Duration
}

// Core is the code administration the bot exposes.
type Core interface {
	ListCodes(ctx context.Context) ([]core.CodeStatus, error)
	AddCode(ctx context.Context, code string) (*core.CodeStatus, error)
	GenerateCode(ctx context.Context) (*core.CodeStatus, error)
	DeleteCode(ctx context.Context, code string) error
	ExtendCode(ctx context.Context, code string, hours int) (*core.CodeStatus, error)
}

type TgBot struct {
	log      *slog.Logger
	api      *tgbotapi.Bot
	core     Core
	adminIds []int64
	updater  *ext.Updater
	digest   *DigestBuffer
	config   Config
}

func NewTgBot(apiKey string, log *slog.Logger, cfg Config) (*TgBot, error) {
	if cfg.DigestInterval == 0 {
		cfg.DigestInterval = 15 * time.Minute
	}

	tgBot := &TgBot{
		log:      log.With(sl.Module("tgbot")),
		adminIds: slices.Clone(cfg.AdminIds),
		config:   cfg,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api
	tgBot.digest = NewDigestBuffer(tgBot.plainResponse, cfg.DigestInterval)

	return tgBot, nil
}

// SetCore connects the bot to the code registry; until then code commands are ignored.
func (t *TgBot) SetCore(c Core) {
	t.core = c
}

// Start polls for updates and blocks until Stop.
func (t *TgBot) Start() error {
	t.digest.StartTicker()

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	dispatcher.AddHandler(handlers.NewCommand("codes", t.codes))
	dispatcher.AddHandler(handlers.NewCommand("addcode", t.addCode))
	dispatcher.AddHandler(handlers.NewCommand("gencode", t.genCode))
	dispatcher.AddHandler(handlers.NewCommand("delcode", t.delCode))
	dispatcher.AddHandler(handlers.NewCommand("extend", t.extend))

	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbDelete), t.onDeleteCallback))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbExtend), t.onExtendCallback))

	t.setDefaultCommands()
	t.syncAdminMenus()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.digest != nil {
		t.digest.Stop()
	}
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

func (t *TgBot) isAdmin(chatId int64) bool {
	return slices.Contains(t.adminIds, chatId)
}

func (t *TgBot) commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}
