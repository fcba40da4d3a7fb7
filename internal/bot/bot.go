// Package bot реализует телеграм-интерфейс генерации историй: линейный
// диалог сбора параметров поверх того же конвейера, что и HTTP API.
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Config содержит настройки телеграм-бота.
type Config struct {
	Token         string
	PollTimeout   int           // секунды ожидания long poll
	SessionTTL    time.Duration // простой, после которого сессия вытесняется
	SweepInterval time.Duration
}

// Bot связывает транспорт Telegram с машиной диалога.
type Bot struct {
	api      *tgbotapi.BotAPI
	flow     *Flow
	sessions *SessionStore
	cfg      Config
}

// New создает бота и проверяет токен у Telegram API.
func New(cfg Config, pipeline StoryPipeline) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	sessions := NewSessionStore(cfg.SessionTTL)

	log.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")

	return &Bot{
		api:      api,
		flow:     NewFlow(sessions, pipeline),
		sessions: sessions,
		cfg:      cfg,
	}, nil
}

// Run запускает long-poll цикл и фоновую уборку сессий; блокируется до
// отмены контекста.
func (b *Bot) Run(ctx context.Context) {
	go b.sessions.RunSweeper(ctx, b.cfg.SweepInterval)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollTimeout
	updates := b.api.GetUpdatesChan(u)

	log.Info().Msg("telegram bot initialized and ready")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Info().Msg("telegram bot stopped")
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	chatID := msg.Chat.ID
	userID := msg.From.ID

	// Команды перехватываются до диспетчеризации по шагу сессии
	var replies []Reply
	if msg.IsCommand() {
		replies = b.flow.HandleCommand(userID, msg.Command())
	} else {
		replies = b.flow.HandleMessage(ctx, userID, msg.Text)
	}

	for _, reply := range replies {
		b.send(chatID, reply)
	}
}

// send конвертирует Reply в сообщение Telegram и отправляет его.
func (b *Bot) send(chatID int64, reply Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)

	switch {
	case len(reply.Keyboard) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Keyboard))
		for _, row := range reply.Keyboard {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, buttons)
		}
		keyboard := tgbotapi.NewReplyKeyboard(rows...)
		keyboard.OneTimeKeyboard = true
		keyboard.ResizeKeyboard = true
		msg.ReplyMarkup = keyboard
	case reply.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	if reply.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}

	if _, err := b.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send telegram message")
	}
}
