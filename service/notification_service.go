package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookclub/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationService struct {
	db          *gorm.DB
	hubNotifier HubNotifier
}

// HubNotifier 用于向在线用户做 WebSocket 推送
type HubNotifier interface {
	SendNotification(userID uuid.UUID, notification interface{}) bool
	IsUserOnline(userID uuid.UUID) bool
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// SetHubNotifier 注入 Hub 通知器
func (s *NotificationService) SetHubNotifier(notifier HubNotifier) {
	s.hubNotifier = notifier
}

// Create 创建通知并推送给在线用户
// deepLinkURI 为空时客户端落到默认页
func (s *NotificationService) Create(userID uuid.UUID, notifType, title string, body *string, deepLinkURI *string, metadata map[string]interface{}) (*model.Notification, error) {
	notification := &model.Notification{
		ID:               uuid.New(),
		UserID:           userID,
		NotificationType: notifType,
		Title:            title,
		Body:             body,
		DeepLinkURI:      deepLinkURI,
	}

	if metadata != nil {
		metadataBytes, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("invalid metadata: %w", err)
		}
		notification.Metadata = metadataBytes
	}

	if err := s.db.Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	// 只推送给在线用户，离线用户下次拉取列表时看到
	if s.hubNotifier != nil && s.hubNotifier.IsUserOnline(userID) {
		s.hubNotifier.SendNotification(userID, notification)
	}

	return notification, nil
}

// CreateForUsers 批量创建同一通知
func (s *NotificationService) CreateForUsers(userIDs []uuid.UUID, notifType, title string, body *string, deepLinkURI *string, metadata map[string]interface{}) (int, error) {
	sent := 0
	for _, uid := range userIDs {
		if _, err := s.Create(uid, notifType, title, body, deepLinkURI, metadata); err != nil {
			continue
		}
		sent++
	}
	return sent, nil
}

// List 通知列表
func (s *NotificationService) List(userID uuid.UUID, limit, offset int, unreadOnly bool) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []model.Notification
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	return notifications, nil
}

// GetDetail 查看通知详情，自动标记已读
func (s *NotificationService) GetDetail(userID, notificationID uuid.UUID) (*model.Notification, error) {
	var notification model.Notification
	err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("notification not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query notification: %w", err)
	}

	if !notification.IsRead {
		now := time.Now()
		if err := s.db.Model(&notification).
			Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
			return nil, fmt.Errorf("failed to mark as read: %w", err)
		}
		notification.IsRead = true
		notification.ReadAt = &now
	}

	return &notification, nil
}

// MarkAllAsRead 全部标记已读
func (s *NotificationService) MarkAllAsRead(userID uuid.UUID) error {
	now := time.Now()
	err := s.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
	if err != nil {
		return fmt.Errorf("failed to mark all as read: %w", err)
	}
	return nil
}

// UnreadCount 未读数量
func (s *NotificationService) UnreadCount(userID uuid.UUID) (int, error) {
	var count int64
	err := s.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return int(count), nil
}

// Delete 删除通知
func (s *NotificationService) Delete(userID, notificationID uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&model.Notification{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}
