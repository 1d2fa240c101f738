package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// Callback data prefixes for inline keyboard buttons.
// Telegram limits callback data to 64 bytes, codes are capped well below that.
const (
	cbDelete = "d:" // d:<code>
	cbExtend = "x:" // x:<code>
)

func buildCodeButtons(code string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{
				{Text: "Extend 24h ⏳", CallbackData: cbExtend + code},
				{Text: "Delete ✗", CallbackData: cbDelete + code},
			},
		},
	}
}

// removeKeyboard strips the buttons from the message the callback came from.
func (t *TgBot) removeKeyboard(chatId int64, cq *tgbotapi.CallbackQuery) {
	if msg := cq.Message; msg != nil {
		if im, ok := msg.(tgbotapi.Message); ok {
			_, _, _ = t.api.EditMessageReplyMarkup(&tgbotapi.EditMessageReplyMarkupOpts{
				ChatId:      chatId,
				MessageId:   im.MessageId,
				ReplyMarkup: tgbotapi.InlineKeyboardMarkup{},
			})
		}
	}
}

func (t *TgBot) onDeleteCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	chatId := cq.From.Id

	if !t.isAdmin(chatId) || t.core == nil {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Not authorized", ShowAlert: true})
		return nil
	}

	code := strings.TrimPrefix(cq.Data, cbDelete)
	c, cancel := t.commandContext()
	defer cancel()
	if err := t.core.DeleteCode(c, code); err != nil {
		t.reportError(chatId, "delete:"+code, err)
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Error occurred"})
		return nil
	}

	t.removeKeyboard(chatId, cq)
	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: fmt.Sprintf("%s deleted", code)})
	return nil
}

func (t *TgBot) onExtendCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	chatId := cq.From.Id

	if !t.isAdmin(chatId) || t.core == nil {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Not authorized", ShowAlert: true})
		return nil
	}

	code := strings.TrimPrefix(cq.Data, cbExtend)
	c, cancel := t.commandContext()
	defer cancel()
	status, err := t.core.ExtendCode(c, code, defaultExtendHours)
	if err != nil {
		t.reportError(chatId, "extend:"+code, err)
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Error occurred"})
		return nil
	}

	answer := fmt.Sprintf("%s: %s left", status.Code, status.Remaining)
	if !status.Redeemed() {
		answer = fmt.Sprintf("%s is not used yet", status.Code)
	}
	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: answer})
	return nil
}
