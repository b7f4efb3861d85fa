package model

import (
	"time"

	"github.com/google/uuid"
)

// 好友请求状态
const (
	FriendRequestStatusPending = "pending"
)

// Friend 好友边：对称存储，双方各持一行，携带对方信息快照
type Friend struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_friend_edge"`
	FriendID       uuid.UUID `json:"friend_id" gorm:"type:uuid;not null;uniqueIndex:idx_friend_edge"`
	FriendName     string    `json:"friend_name" gorm:"type:varchar(100);not null"`
	FriendPhotoURL *string   `json:"friend_photo_url,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Friend) TableName() string {
	return "friends"
}

// FriendRequest 好友请求表，双方信息均为发起时刻的快照
type FriendRequest struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SenderID         uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;index"`
	SenderName       string    `json:"sender_name" gorm:"type:varchar(100);not null"`
	SenderPhotoURL   *string   `json:"sender_photo_url,omitempty" gorm:"type:text"`
	ReceiverID       uuid.UUID `json:"receiver_id" gorm:"type:uuid;not null;index"`
	ReceiverName     string    `json:"receiver_name" gorm:"type:varchar(100);not null"`
	ReceiverPhotoURL *string   `json:"receiver_photo_url,omitempty" gorm:"type:text"`
	Status           string    `json:"status" gorm:"type:varchar(20);not null;default:pending"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}
