package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bookclub/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageService struct {
	db          *gorm.DB
	broadcaster ClubBroadcaster
}

// ClubBroadcaster 把新消息实时推给在线的俱乐部成员
type ClubBroadcaster interface {
	BroadcastToClubMembers(clubID uuid.UUID, payload interface{})
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// SetBroadcaster 注入 Hub 广播器
func (s *MessageService) SetBroadcaster(b ClubBroadcaster) {
	s.broadcaster = b
}

// SendMessage 发送文本消息，仅限成员
// 发送者名称/头像按发送时刻快照落库
func (s *MessageService) SendMessage(clubID, senderID uuid.UUID, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content cannot be blank")
	}

	isMember, err := s.isClubMember(clubID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("you are not a member of this club")
	}

	sender, err := s.getUser(senderID)
	if err != nil {
		return nil, err
	}

	message := &model.Message{
		ID:             uuid.New(),
		ClubID:         clubID,
		SenderID:       senderID,
		SenderName:     sender.Name,
		SenderPhotoURL: sender.PhotoURL,
		MessageType:    model.MessageTypeText,
		Content:        &content,
	}
	if err := s.db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.broadcast(clubID, message)
	return message, nil
}

// PostBookIndication 向消息流写入 book_indication 消息（书目确认时调用）
func (s *MessageService) PostBookIndication(clubID, readerID uuid.UUID, payload model.BookIndicationPayload) (*model.Message, error) {
	reader, err := s.getUser(readerID)
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal book payload: %w", err)
	}

	content := payload.Title
	message := &model.Message{
		ID:             uuid.New(),
		ClubID:         clubID,
		SenderID:       readerID,
		SenderName:     reader.Name,
		SenderPhotoURL: reader.PhotoURL,
		MessageType:    model.MessageTypeBookIndication,
		Content:        &content,
		Metadata:       metadata,
	}
	if err := s.db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.broadcast(clubID, message)
	return message, nil
}

// GetMessages 消息历史，仅限成员；非成员拿不到消息流
func (s *MessageService) GetMessages(clubID, userID uuid.UUID, limit, offset int) ([]model.Message, error) {
	isMember, err := s.isClubMember(clubID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("you are not a member of this club")
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var messages []model.Message
	err = s.db.Where("club_id = ?", clubID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	// 反转为时间正序，最新消息在最后
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *MessageService) isClubMember(clubID, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&model.ClubMember{}).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (s *MessageService) getUser(userID uuid.UUID) (*model.User, error) {
	var user model.User
	err := s.db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *MessageService) broadcast(clubID uuid.UUID, message *model.Message) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToClubMembers(clubID, map[string]interface{}{
		"type": "message",
		"data": message,
	})
}
