// Package telegram delivers offline chat notifications through the Telegram Bot API.
package telegram

import (
	"fmt"
	"log"

	"repairdesk/backend/internal/config"
	"repairdesk/backend/internal/localization"
	"repairdesk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier tells users with a linked Telegram chat about messages they missed.
type Notifier struct {
	BotAPI    *tgbotapi.BotAPI
	Localizer *localization.Localizer
}

func NewNotifier(token string, localizer *localization.Localizer) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to start Telegram bot: %w", err)
	}
	bot.Debug = false
	log.Printf("Authorized on Telegram account %s", bot.Self.UserName)

	return &Notifier{BotAPI: bot, Localizer: localizer}, nil
}

// NotifyOffline sends receiver a short preview of msg. Receivers without a linked
// chat are skipped.
func (n *Notifier) NotifyOffline(receiver, sender *models.User, msg *models.ChatMessage) error {
	if receiver == nil || receiver.TelegramChatID == nil {
		return nil
	}
	text := FormatNotification(n.Localizer, receiver.Language, sender.DisplayName(), msg.Body)
	if _, err := n.BotAPI.Send(tgbotapi.NewMessage(*receiver.TelegramChatID, text)); err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", *receiver.TelegramChatID, err)
	}
	return nil
}

// FormatNotification renders the localized notification text for lang.
func FormatNotification(l *localization.Localizer, lang, senderName, body string) string {
	if lang == "" {
		lang = localization.DefaultLanguage
	}
	preview := Truncate(body, config.NotificationPreview)
	return l.Format(lang, "offline_message_notification", senderName, preview) +
		"\n\n" + l.GetString(lang, "offline_message_footer")
}

// Truncate shortens s to at most limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 0 {
		return ""
	}
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}
