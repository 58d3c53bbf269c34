// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// messenger is the subset of *telebot.Bot the sender needs.
type messenger interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Sender implements push.Sender by posting to a fixed Telegram chat.
type Sender struct {
	bot    messenger
	chatID int64
	logger *logrus.Entry
}

func NewSender(b messenger, chatID int64, logger *logrus.Entry) *Sender {
	return &Sender{bot: b, chatID: chatID, logger: logger}
}

// SendMessage delivers text to the configured chat and describes the outcome.
func (s *Sender) SendMessage(ctx context.Context, text string) string {
	if err := ctx.Err(); err != nil {
		return "ERROR: " + err.Error()
	}

	msg, err := s.bot.Send(&telebot.Chat{ID: s.chatID}, text, &telebot.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", s.chatID).Error("Telegram send failed")
		return "ERROR: " + err.Error()
	}

	s.logger.WithFields(logrus.Fields{
		"chat_id":    s.chatID,
		"message_id": msg.ID,
	}).Debug("Telegram message sent")
	return fmt.Sprintf("TELEGRAM OK: message %d", msg.ID)
}
