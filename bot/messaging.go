package bot

import (
	"fmt"
	"log/slog"
	"lovealbum/internal/watcher"
	"lovealbum/lib/clock"
)

// SendMessageWithLevel forwards a log line to the admins. Errors are sent
// right away, lower levels are collected into the periodic digest.
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	if level >= slog.LevelError {
		t.NotifyAdmins(msg)
		return
	}
	for _, id := range t.adminIds {
		t.digest.Add(id, msg, level)
	}
}

func (t *TgBot) NotifyAdmins(msg string) {
	for _, id := range t.adminIds {
		t.plainResponse(id, msg)
	}
}

// CodeEvent tells the admins about an edit window milestone.
func (t *TgBot) CodeEvent(e watcher.Event) {
	t.NotifyAdmins(formatCodeEvent(e))
}

func formatCodeEvent(e watcher.Event) string {
	code := Sanitize(e.Code)
	switch e.Type {
	case watcher.EventRedeemed:
		return fmt.Sprintf("💌 Code `%s` was used, the album is being built\\. %s left to edit\\.",
			code, Sanitize(clock.HoursMinutes(e.Remaining)))
	case watcher.EventClosing:
		return fmt.Sprintf("⏳ Code `%s` can be edited for %s more\\.",
			code, Sanitize(clock.HoursMinutes(e.Remaining)))
	case watcher.EventClosed:
		return fmt.Sprintf("🔒 Code `%s` is now view\\-only\\. Use `/extend %s` to reopen it\\.", code, code)
	}
	return fmt.Sprintf("Code `%s`: %s", code, Sanitize(string(e.Type)))
}
