package notify

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramLimit is the Bot API message length cap.
const telegramLimit = 4000

// TelegramSender sends notifications to one chat. The bot is created on
// first use because NewBotAPI performs a getMe round trip.
type TelegramSender struct {
	token    string
	endpoint string
	chatID   int64

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

func NewTelegramSender(token, chatID, endpoint string) (*TelegramSender, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid telegram chat id %q", ErrNotConfigured, chatID)
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &TelegramSender{token: token, endpoint: endpoint, chatID: id}, nil
}

func (t *TelegramSender) Name() string { return "telegram" }

func (t *TelegramSender) client() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(t.token, t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	t.bot = bot
	return bot, nil
}

// Send returns the id of the last message sent; long texts are split.
func (t *TelegramSender) Send(ctx context.Context, m Message) (string, error) {
	bot, err := t.client()
	if err != nil {
		return "", err
	}
	var last int
	for _, chunk := range splitMessage(m.Text(), telegramLimit) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		sent, err := bot.Send(tgbotapi.NewMessage(t.chatID, chunk))
		if err != nil {
			return "", fmt.Errorf("telegram: send: %w", err)
		}
		last = sent.MessageID
	}
	return strconv.Itoa(last), nil
}
