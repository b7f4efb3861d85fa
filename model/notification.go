package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// 通知类型
const (
	NotificationTypeJoinRequest     = "join_request"     // 有人申请加入你管理的俱乐部
	NotificationTypeRequestApproved = "request_approved" // 入会申请已通过
	NotificationTypeReaderDrawn     = "reader_drawn"     // 你被抽中为本周期指定人
	NotificationTypeBookIndicated   = "book_indicated"   // 俱乐部有了新书目
	NotificationTypeFriendRequest   = "friend_request"   // 收到好友请求
	NotificationTypeFriendAccepted  = "friend_accepted"  // 好友请求被接受
)

// Notification 通知表
type Notification struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	NotificationType string          `json:"notification_type" gorm:"type:varchar(30);not null"`
	Title            string          `json:"title" gorm:"type:varchar(200);not null"`
	Body             *string         `json:"body,omitempty" gorm:"type:text"`
	DeepLinkURI      *string         `json:"deep_link_uri,omitempty" gorm:"type:text"` // 客户端点击后打开的页面，缺省进默认页
	Metadata         json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	IsRead           bool            `json:"is_read" gorm:"default:false"`
	ReadAt           *time.Time      `json:"read_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
