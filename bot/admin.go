package bot

import (
	"errors"
	"fmt"
	"lovealbum/entity"
	"strconv"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

const defaultExtendHours = 24

// requireCore answers non-admins and reports whether the command may proceed.
func (t *TgBot) requireCore(chatId int64) bool {
	if !t.isAdmin(chatId) {
		t.plainResponse(chatId, "Admin access required\\.")
		return false
	}
	if t.core == nil {
		t.plainResponse(chatId, "Code registry is not connected\\.")
		return false
	}
	return true
}

// codes lists every code with its stage. Redeemed codes get extend/delete buttons.
func (t *TgBot) codes(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireCore(chatId) {
		return nil
	}

	c, cancel := t.commandContext()
	defer cancel()
	list, err := t.core.ListCodes(c)
	if err != nil {
		t.reportError(chatId, "/codes", err)
		return nil
	}

	if len(list) == 0 {
		t.plainResponse(chatId, "No access codes yet\\. Use /gencode to create one\\.")
		return nil
	}

	for _, part := range splitMessage(formatCodes(list), maxTelegramMessageLen) {
		t.plainResponse(chatId, part)
	}

	for _, status := range list {
		if !status.Redeemed() {
			continue
		}
		t.sendWithKeyboard(chatId,
			fmt.Sprintf("`%s` %s", Sanitize(status.Code), Sanitize(status.Remaining)),
			buildCodeButtons(status.Code),
		)
	}
	return nil
}

func (t *TgBot) addCode(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireCore(chatId) {
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, "Usage: `/addcode <code>`")
		return nil
	}

	c, cancel := t.commandContext()
	defer cancel()
	status, err := t.core.AddCode(c, args[1])
	if err != nil {
		t.reportError(chatId, "/addcode", err)
		return nil
	}

	t.sendWithKeyboard(chatId, formatNewCode(status.Code, status.Link), buildCodeButtons(status.Code))
	return nil
}

func (t *TgBot) genCode(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireCore(chatId) {
		return nil
	}

	c, cancel := t.commandContext()
	defer cancel()
	status, err := t.core.GenerateCode(c)
	if err != nil {
		t.reportError(chatId, "/gencode", err)
		return nil
	}

	t.sendWithKeyboard(chatId, formatNewCode(status.Code, status.Link), buildCodeButtons(status.Code))
	return nil
}

func (t *TgBot) delCode(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireCore(chatId) {
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, "Usage: `/delcode <code>`")
		return nil
	}
	code := entity.NormalizeCode(args[1])

	c, cancel := t.commandContext()
	defer cancel()
	if err := t.core.DeleteCode(c, code); err != nil {
		t.reportError(chatId, "/delcode", err)
		return nil
	}

	t.plainResponse(chatId, fmt.Sprintf("Code `%s` and its album deleted\\.", Sanitize(code)))
	return nil
}

func (t *TgBot) extend(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireCore(chatId) {
		return nil
	}

	code, hours, err := parseExtendArgs(strings.Fields(ctx.EffectiveMessage.Text)[1:])
	if err != nil {
		t.plainResponse(chatId, "Usage: `/extend <code> [hours]`\n"+Sanitize(err.Error()))
		return nil
	}

	c, cancel := t.commandContext()
	defer cancel()
	status, err := t.core.ExtendCode(c, code, hours)
	if errors.Is(err, entity.ErrCodeNotFound) {
		t.plainResponse(chatId, fmt.Sprintf("Code `%s` not found\\.", Sanitize(code)))
		return nil
	}
	if err != nil {
		t.reportError(chatId, "/extend", err)
		return nil
	}

	t.plainResponse(chatId, formatExtended(status.Code, status.Remaining, status.Redeemed()))
	return nil
}

// parseExtendArgs reads "<code> [hours]"; hours default to a fresh 24 hour window.
func parseExtendArgs(args []string) (string, int, error) {
	if len(args) < 1 {
		return "", 0, errors.New("code is required")
	}
	code := entity.NormalizeCode(args[0])
	hours := defaultExtendHours
	if len(args) > 1 {
		h, err := strconv.Atoi(args[1])
		if err != nil || h <= 0 {
			return "", 0, fmt.Errorf("invalid hours: %s", args[1])
		}
		hours = h
	}
	return code, hours, nil
}
