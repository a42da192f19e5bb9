package notifier

import (
	"fmt"

	"tonpoints/internal/service"
	"tonpoints/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramNotifier delivers reward-granted events as bot messages. Delivery
// is fire-and-forget: the credit is already committed when an event reaches
// this layer, so a send failure is only logged.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

func NewTelegram(botToken string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

func (n *TelegramNotifier) RewardGranted(event service.RewardEvent) {
	go func() {
		log := logger.Logger()

		text := fmt.Sprintf("🎉 +%d points (%s)", event.Amount, event.Reason)
		msg := tgbotapi.NewMessage(event.TelegramID, text)
		if _, err := n.bot.Send(msg); err != nil {
			log.Warn("failed to deliver reward notification",
				zap.String("event_id", event.ID),
				zap.Int64("telegram_id", event.TelegramID),
				zap.Error(err))
		}
	}()
}

// Noop drops all events. Used when no bot token is configured.
type Noop struct{}

func (Noop) RewardGranted(service.RewardEvent) {}
