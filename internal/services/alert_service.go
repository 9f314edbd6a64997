package services

import (
	"context"
	"fmt"
	"html"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"practico/internal/models"
)

// AlertService notifies operators about business events.
type AlertService interface {
	PaymentSucceeded(ctx context.Context, u *models.User, e *models.PaymentEntry) error
}

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramAlerts struct {
	bot    messageSender
	chatID int64
}

// NewTelegramAlerts connects the bot. Empty token or chat id gives a no-op service.
func NewTelegramAlerts(botToken string, chatID int64) (AlertService, error) {
	if botToken == "" || chatID == 0 {
		log.Printf("[tg][skip] token or chatID empty (token? %v chatID=%d)", botToken != "", chatID)
		return NoopAlerts{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	log.Printf("[tg] authorized as @%s", bot.Self.UserName)
	return &TelegramAlerts{bot: bot, chatID: chatID}, nil
}

func (t *TelegramAlerts) PaymentSucceeded(ctx context.Context, u *models.User, e *models.PaymentEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := fmt.Sprintf("<b>New premium member</b>\n%s &lt;%s&gt;\n%s %s (%s)",
		html.EscapeString(u.Name), html.EscapeString(u.Email),
		html.EscapeString(e.Amount), html.EscapeString(e.Currency), html.EscapeString(e.Country))
	if e.PaymentID != nil {
		text += "\npayment: " + html.EscapeString(*e.PaymentID)
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	return nil
}

type NoopAlerts struct{}

func (NoopAlerts) PaymentSucceeded(context.Context, *models.User, *models.PaymentEntry) error {
	return nil
}
