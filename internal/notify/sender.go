package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mr1hm/go-flood-watch/internal/models"
)

// Sender delivers one alert.
type Sender interface {
	Send(ctx context.Context, alert models.Alert) error
}

// TelegramSender posts alerts to a single chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	loc    *time.Location
}

func NewTelegramSender(bot *tgbotapi.BotAPI, chatID int64, loc *time.Location) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID, loc: loc}
}

// DialTelegram authorizes token against the Bot API.
func DialTelegram(token string, chatID int64, loc *time.Location) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %w", err)
	}
	slog.Info("authorized on telegram", "account", bot.Self.UserName)
	return NewTelegramSender(bot, chatID, loc), nil
}

func (s *TelegramSender) Send(ctx context.Context, alert models.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, alert.Text(s.loc))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("error sending alert for %q: %w", alert.Station, err)
	}
	return nil
}

// LogSender writes alerts to the log when no chat is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, alert models.Alert) error {
	slog.Warn("flood alert",
		"id", alert.ObservationID,
		"station", alert.Station,
		"from", alert.From.String(),
		"to", alert.To.String(),
		"water_level", alert.WaterLevel,
	)
	return nil
}
