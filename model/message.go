package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// 消息类型
const (
	MessageTypeText           = "text"
	MessageTypeBookIndication = "book_indication"
)

// Message 俱乐部消息表
type Message struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ClubID uuid.UUID `json:"club_id" gorm:"type:uuid;not null;index"`

	// 发送者信息为发送时刻的快照，之后改名/换头像不回写
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;index"`
	SenderName     string    `json:"sender_name" gorm:"type:varchar(100);not null"`
	SenderPhotoURL *string   `json:"sender_photo_url,omitempty" gorm:"type:text"`

	MessageType string          `json:"message_type" gorm:"type:varchar(20);not null"` // 'text' | 'book_indication'
	Content     *string         `json:"content,omitempty" gorm:"type:text"`
	Metadata    json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"` // book_indication 消息携带书目载荷

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"` // 服务端时间戳
}

func (Message) TableName() string {
	return "messages"
}

// BookIndicationPayload book_indication 消息的元数据结构
type BookIndicationPayload struct {
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`
	CycleDays   int       `json:"cycle_days"`
	CycleEndsAt time.Time `json:"cycle_ends_at"`
}
