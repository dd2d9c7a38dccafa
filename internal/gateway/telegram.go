package gateway

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var _ Messenger = (*TelegramGateway)(nil)

type TelegramGateway struct {
	Bot      *tgbotapi.BotAPI
	Commands *Commands

	ctx    context.Context
	cancel context.CancelFunc
}

func NewTelegramGateway(token string, commands *Commands) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	ctx, cancel := context.WithCancel(context.Background())
	return &TelegramGateway{
		Bot:      bot,
		Commands: commands,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

func (tg *TelegramGateway) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		user := "unknown"
		if update.Message.From != nil {
			user = update.Message.From.UserName
		}
		log.Printf("[%s] %s", user, update.Message.Text)

		reply := tg.Commands.Handle(tg.ctx, update.Message.Text)
		if err := tg.Send(strconv.FormatInt(update.Message.Chat.ID, 10), reply); err != nil {
			log.Printf("Error replying to chat %d: %v", update.Message.Chat.ID, err)
		}
	}
	return nil
}

// Send posts plain text; card text comes from the model and is not safe to
// parse as Markdown.
func (tg *TelegramGateway) Send(chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	msg := tgbotapi.NewMessage(id, text)
	_, err = tg.Bot.Send(msg)
	return err
}

func (tg *TelegramGateway) Stop() error {
	tg.cancel()
	tg.Bot.StopReceivingUpdates()
	return nil
}
