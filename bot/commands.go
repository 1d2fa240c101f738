package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// start greets the chat. Non-admins get their chat id so it can be added to the config.
func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.isAdmin(chatId) {
		t.plainResponse(chatId, fmt.Sprintf(
			"This bot manages love album access codes\\.\nYour chat id is `%d`; ask the owner to add it to the admin list\\.",
			chatId,
		))
		return nil
	}
	t.setAdminCommands(chatId)
	t.plainResponse(chatId, "Welcome back\\! Send /codes to see all access codes\\.")
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id

	var sb strings.Builder
	sb.WriteString("*Available Commands*\n\n")
	sb.WriteString("`/start` \\- Show your chat id\n")
	sb.WriteString("`/help` \\- Show this help\n")

	if t.isAdmin(chatId) {
		sb.WriteString("\n*Access Codes:*\n")
		sb.WriteString("`/codes` \\- List all codes with their status\n")
		sb.WriteString("`/addcode <code>` \\- Add a code\n")
		sb.WriteString("`/gencode` \\- Generate a random code\n")
		sb.WriteString("`/delcode <code>` \\- Delete a code and its album\n")
		sb.WriteString("`/extend <code> [hours]` \\- Reopen the edit window, 24 hours by default\n")
	}

	t.plainResponse(chatId, sb.String())
	return nil
}
