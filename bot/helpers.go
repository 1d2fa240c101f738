package bot

import (
	"fmt"
	"log/slog"
	"lovealbum/impl/core"
	"lovealbum/lib/sl"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}

	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
		_, _ = t.api.SendMessage(chatId, err.Error(), &tgbotapi.SendMessageOpts{})
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Error("sending safe message", sl.Err(err))
		}
	}
}

// Sanitize escapes the characters MarkdownV2 reserves.
func Sanitize(input string) string {
	reservedChars := "\\_{}#+-.!|()[]=*>~`"
	var sb strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sb.WriteRune('\\')
		}
		sb.WriteRune(char)
	}
	return sb.String()
}

func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		// Try to split at newline
		cutAt := maxLen
		nlIdx := strings.LastIndex(text[:maxLen], "\n")
		if nlIdx > 0 {
			cutAt = nlIdx + 1
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}

// sendWithKeyboard sends a message with an inline keyboard attached.
func (t *TgBot) sendWithKeyboard(chatId int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if text == "" {
		return
	}
	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode:   "MarkdownV2",
		ReplyMarkup: keyboard,
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message with keyboard", sl.Err(err))
		// Fallback: try without markdown
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
			ReplyMarkup: keyboard,
		})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Error("sending message with keyboard fallback", sl.Err(err))
		}
	}
}

// reportError logs the error and tells the admin what failed.
func (t *TgBot) reportError(chatId int64, command string, err error) {
	t.log.Error("bot command failed",
		slog.String("command", command),
		slog.Int64("user_id", chatId),
		sl.Err(err),
	)
	t.plainResponse(chatId, fmt.Sprintf(
		"Command `%s` failed\nError: `%s`",
		Sanitize(command), Sanitize(err.Error()),
	))
}

func stageIcon(stage string) string {
	switch stage {
	case "editable":
		return "✏️"
	case "view_only":
		return "🔒"
	}
	return "🆕"
}

// formatCodes renders the code list, one line per code, in registry order.
func formatCodes(list []core.CodeStatus) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Access codes* \\(%d total\\)\n\n", len(list)))
	for _, status := range list {
		sb.WriteString(fmt.Sprintf("%s `%s` \\| %s \\| %s\n",
			stageIcon(status.Stage),
			Sanitize(status.Code),
			Sanitize(status.Stage),
			Sanitize(status.Remaining),
		))
	}
	return sb.String()
}

func formatNewCode(code, link string) string {
	return fmt.Sprintf("New code: `%s`\nAlbum link: %s", Sanitize(code), Sanitize(link))
}

func formatExtended(code, remaining string, redeemed bool) string {
	if !redeemed {
		return fmt.Sprintf("Code `%s` is not used yet, its window starts on first use\\.", Sanitize(code))
	}
	return fmt.Sprintf("Code `%s` is editable for %s\\.", Sanitize(code), Sanitize(remaining))
}
