package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramOpts параметры необходимые для инициализации сервиса TelegramBotService.
type TelegramOpts struct {
	Token   string `mapstructure:"token" yaml:"token" validate:"required"`
	ChatID  int64  `mapstructure:"chat_id" yaml:"chat_id"`
	Message string `mapstructure:"message" yaml:"message" validate:"required"`
}

// ChatStore хранилище чатов, подписанных на рассылку выгрузки.
type ChatStore interface {
	SaveChat(ctx context.Context, chatID int64, title string) error
	RemoveChat(ctx context.Context, chatID int64) error
	ListChats(ctx context.Context) ([]int64, error)
}

// botAPI часть tgbotapi.BotAPI, которой пользуется сервис.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramBotService сервис предназначенный для взаимодействия с telegram.
type TelegramBotService struct {
	opts   TelegramOpts
	logger *slog.Logger
	bot    botAPI
	chats  ChatStore
}

// NewTelegramBot создает экземпляр сервиса для работы с telegram ботом.
func NewTelegramBot(opts TelegramOpts, chats ChatStore, logger *slog.Logger) (*TelegramBotService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(opts.Token)
	if err != nil {
		logger.Error("Failed to create Telegram bot", "error", err)
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}

	logger.Info("Telegram bot created successfully",
		"bot_user", bot.Self.UserName,
		"chat_id", opts.ChatID,
	)
	return newTelegramBot(opts, bot, chats, logger), nil
}

func newTelegramBot(opts TelegramOpts, bot botAPI, chats ChatStore, logger *slog.Logger) *TelegramBotService {
	return &TelegramBotService{
		opts:   opts,
		logger: logger,
		bot:    bot,
		chats:  chats,
	}
}

// Start принимает команды бота до отмены контекста: /start подписывает
// чат на рассылку, /stop отписывает.
func (s *TelegramBotService) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.bot.StopReceivingUpdates()
			s.logger.Info("Telegram listener stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.handleUpdate(ctx, update)
		}
	}
}

func (s *TelegramBotService) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() || s.chats == nil {
		return
	}

	chatID := msg.Chat.ID
	var reply string
	switch msg.Command() {
	case "start":
		title := msg.Chat.Title
		if title == "" {
			title = msg.Chat.UserName
		}
		if err := s.chats.SaveChat(ctx, chatID, title); err != nil {
			s.logger.Error("Failed to subscribe chat", "chat_id", chatID, "error", err)
			return
		}
		reply = "Chat subscribed to CodeBeamer exports"
	case "stop":
		if err := s.chats.RemoveChat(ctx, chatID); err != nil {
			s.logger.Error("Failed to unsubscribe chat", "chat_id", chatID, "error", err)
			return
		}
		reply = "Chat unsubscribed"
	default:
		return
	}

	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, reply)); err != nil {
		s.logger.Warn("Failed to reply", "chat_id", chatID, "error", err)
	}
}

// recipients возвращает чат из конфигурации и все подписанные чаты без повторов.
func (s *TelegramBotService) recipients(ctx context.Context) []int64 {
	seen := map[int64]bool{}
	var ids []int64
	add := func(id int64) {
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	add(s.opts.ChatID)
	if s.chats != nil {
		stored, err := s.chats.ListChats(ctx)
		if err != nil {
			s.logger.Error("Failed to list subscribed chats", "error", err)
		}
		for _, id := range stored {
			add(id)
		}
	}
	return ids
}

// SendFile отправляет файл по переданному пути во все чаты рассылки.
func (s *TelegramBotService) SendFile(ctx context.Context, path string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			s.logger.Error("File not found", "path", path, "error", err)
			return fmt.Errorf("file not found at %q: %w", path, err)
		}
		s.logger.Error("Failed to access file", "path", path, "error", err)
		return fmt.Errorf("access file at %q: %w", path, err)
	}

	chats := s.recipients(ctx)
	if len(chats) == 0 {
		s.logger.Warn("No chats to send file to", "path", path)
		return nil
	}

	var errs []error
	for _, chatID := range chats {
		msg := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
		msg.Caption = s.opts.Message

		if _, err := s.bot.Send(msg); err != nil {
			s.logger.Error("Failed to send file",
				"path", path,
				"chat_id", chatID,
				"error", err)
			errs = append(errs, fmt.Errorf("send file to %d: %w", chatID, err))
			continue
		}

		s.logger.Info("File sent successfully",
			"path", path,
			"chat_id", chatID)
	}
	return errors.Join(errs...)
}
