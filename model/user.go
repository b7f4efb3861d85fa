package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User 用户表
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null"`
	NameLower    string    `json:"-" gorm:"type:varchar(100);not null;index"` // 小写规范化，用于前缀搜索
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	PhotoURL     *string   `json:"photo_url,omitempty" gorm:"type:text"`
	CoverURL     *string   `json:"cover_url,omitempty" gorm:"type:text"`
	Bio          *string   `json:"bio,omitempty" gorm:"type:text"`
	FriendsCount int       `json:"friends_count" gorm:"default:0"` // 好友数量，非负
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// NormalizeName 名称小写规范化（前缀搜索用）
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UserProfile 对外暴露的用户资料（不含邮箱等私有字段）
type UserProfile struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PhotoURL     *string   `json:"photo_url,omitempty"`
	CoverURL     *string   `json:"cover_url,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	FriendsCount int       `json:"friends_count"`
}

// Profile 转换为对外资料
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:           u.ID,
		Name:         u.Name,
		PhotoURL:     u.PhotoURL,
		CoverURL:     u.CoverURL,
		Bio:          u.Bio,
		FriendsCount: u.FriendsCount,
	}
}
