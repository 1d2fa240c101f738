package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// Command lists for Telegram's menu button. Admin chats get the code
// commands through BotCommandScopeChat; everyone else sees the default.

var commandsAnonymous = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show your chat id"},
	{Command: "help", Description: "Show available commands"},
}

var commandsAdmin = []tgbotapi.BotCommand{
	{Command: "codes", Description: "List access codes"},
	{Command: "gencode", Description: "Generate a random code"},
	{Command: "addcode", Description: "Add a code"},
	{Command: "delcode", Description: "Delete a code and its album"},
	{Command: "extend", Description: "Reopen the edit window"},
	{Command: "help", Description: "Show available commands"},
}

func (t *TgBot) setDefaultCommands() {
	_, err := t.api.SetMyCommands(commandsAnonymous, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", "error", err)
	}
}

func (t *TgBot) setAdminCommands(chatId int64) {
	_, err := t.api.SetMyCommands(commandsAdmin, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeChat{ChatId: chatId},
	})
	if err != nil {
		t.log.Warn("setting admin commands", "chat_id", chatId, "error", err)
	}
}

func (t *TgBot) syncAdminMenus() {
	for _, chatId := range t.adminIds {
		t.setAdminCommands(chatId)
	}
}
