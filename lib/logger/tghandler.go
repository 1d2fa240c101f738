package logger

import (
	"context"
	"fmt"
	"log/slog"
	"lovealbum/bot"
	"sync"
)

// Forwarder receives formatted log lines, already escaped for Telegram MarkdownV2.
type Forwarder interface {
	SendMessageWithLevel(msg string, level slog.Level)
}

// TelegramHandler is a slog.Handler that also forwards records to Telegram admins.
type TelegramHandler struct {
	handler  slog.Handler
	out      Forwarder
	minLevel slog.Level
	mu       *sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, out Forwarder, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		out:      out,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
	}
}

// Enabled keeps the wrapped handler's own level; forwarding is filtered in Handle.
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}
	if record.Level < h.minLevel || h.out == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.out.SendMessageWithLevel(h.format(record), record.Level)
	return nil
}

func (h *TelegramHandler) format(record slog.Record) string {
	var msg string
	if h.group != "" {
		msg = fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), bot.Sanitize(h.group), bot.Sanitize(record.Message))
	} else {
		msg = fmt.Sprintf("*%s* `%s`", record.Level.String(), bot.Sanitize(record.Message))
	}

	line := func(attr slog.Attr) {
		if attr.Key == "error" {
			msg += fmt.Sprintf("\n%s: ```error %s ```", attr.Key, bot.Sanitize(attr.Value.String()))
		} else {
			msg += bot.Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		}
	}
	for _, attr := range h.attrs {
		line(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		line(attr)
		return true
	})
	return msg
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		out:      h.out,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		out:      h.out,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    h.attrs,
		group:    group,
	}
}
