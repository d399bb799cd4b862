package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/DevN0mad/cbremote/internal/models"
)

func (s *Storage) SaveChat(ctx context.Context, chatID int64, title string) error {
	db := s.db.WithContext(ctx)

	var chat models.Chat
	if err := db.Where("chat_id = ?", chatID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			chat = models.Chat{
				ChatID:  chatID,
				Title:   title,
				AddedAt: time.Now(),
			}
			if err := db.Create(&chat).Error; err != nil {
				s.logger.Error("failed to create chat", "chat_id", chatID, "title", title, "error", err)
				return fmt.Errorf("create chat: %w", err)
			}
			s.logger.Info("chat subscribed", "chat_id", chatID, "title", title)
			return nil
		}

		s.logger.Error("failed to load chat", "chat_id", chatID, "error", err)
		return fmt.Errorf("load chat: %w", err)
	}

	chat.Title = title
	if err := db.Save(&chat).Error; err != nil {
		s.logger.Error("failed to update chat", "chat_id", chatID, "title", title, "error", err)
		return fmt.Errorf("update chat: %w", err)
	}

	s.logger.Info("chat updated", "chat_id", chatID, "title", title)
	return nil
}

func (s *Storage) RemoveChat(ctx context.Context, chatID int64) error {
	db := s.db.WithContext(ctx)

	if err := db.Where("chat_id = ?", chatID).Delete(&models.Chat{}).Error; err != nil {
		s.logger.Error("failed to remove chat", "chat_id", chatID, "error", err)
		return fmt.Errorf("remove chat: %w", err)
	}

	s.logger.Info("chat unsubscribed", "chat_id", chatID)
	return nil
}

// ListChats возвращает идентификаторы подписанных чатов в порядке подписки.
func (s *Storage) ListChats(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&models.Chat{}).Order("id").Pluck("chat_id", &ids).Error; err != nil {
		s.logger.Error("failed to list chats", "error", err)
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return ids, nil
}

func (s *Storage) GetChats(ctx context.Context) ([]models.Chat, error) {
	var chats []models.Chat
	if err := s.db.WithContext(ctx).Order("id").Find(&chats).Error; err != nil {
		s.logger.Error("failed to select chats", "error", err)
		return []models.Chat{}, fmt.Errorf("select chats: %w", err)
	}

	if len(chats) == 0 {
		s.logger.Info("no chats found")
	}

	return chats, nil
}
