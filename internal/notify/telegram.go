package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
)

// TelegramChannel mirrors every notification into the operations chat so
// admins see marketplace activity in real time. The recipient address is
// included in the text; delivery always targets the admin chat.
type TelegramChannel struct {
	bot    *bot.Bot
	chatID int64
}

func NewTelegramChannel(token string, chatID int64) (*TelegramChannel, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramChannel{bot: b, chatID: chatID}, nil
}

func (c *TelegramChannel) Send(ctx context.Context, recipient, subject, body string) error {
	text := fmt.Sprintf("%s\nto: %s\n\n%s", subject, recipient, body)

	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: c.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}
