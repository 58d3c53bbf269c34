// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Start greets the sender. Only the admin gets a working console.
func (a *AdminCommands) Start(senderID int64, firstName string) string {
	logCtx := a.logger.WithFields(logrus.Fields{
		"command":   "/start",
		"sender_id": senderID,
	})
	logCtx.Info("Processing /start command")

	if a.adminID != 0 && senderID == a.adminID {
		logCtx.Info("User identified as Admin")
		return fmt.Sprintf("Hello, %s! The notifier is running. Use /help for the list of commands.", firstName)
	}
	logCtx.Info("User is unknown")
	return "Hello! This bot only answers its administrator."
}

// Help describes the admin commands.
func (a *AdminCommands) Help(senderID int64) string {
	logCtx := a.logger.WithFields(logrus.Fields{
		"command":   "/help",
		"sender_id": senderID,
	})
	logCtx.Info("Processing /help command")

	if a.adminID == 0 || senderID != a.adminID {
		return "No commands are available to you."
	}

	var helpText strings.Builder
	helpText.WriteString("Admin commands:\n\n")
	helpText.WriteString("/types\n - Show the supported notification types.\n\n")
	helpText.WriteString("/list [active|all]\n - List notifications. Active ones by default.\n\n")
	helpText.WriteString("/upcoming\n - Show the next scheduled occurrences.\n\n")
	helpText.WriteString("/delete <uuid>\n - Delete a notification and its history.\n\n")
	helpText.WriteString("/pause <uuid>\n - Stop a notification from sending.\n\n")
	helpText.WriteString("/resume <uuid>\n - Re-activate a notification.\n\n")
	helpText.WriteString("/help\n - Show this message.")
	return helpText.String()
}

// RegisterBotCommands wires /start and /help.
func RegisterBotCommands(b *telebot.Bot, cmds *AdminCommands) {
	b.Handle("/start", func(c telebot.Context) error {
		return c.Send(cmds.Start(c.Sender().ID, c.Sender().FirstName))
	})
	b.Handle("/help", func(c telebot.Context) error {
		return c.Send(cmds.Help(c.Sender().ID))
	})
}
