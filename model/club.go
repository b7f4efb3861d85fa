package model

import (
	"time"

	"github.com/google/uuid"
)

// 阅读周期状态
const (
	CycleStateNoDraw    = "no_draw"   // 尚未抽取指定人
	CycleStateDrawn     = "drawn"     // 已抽取，等待指定书目
	CycleStateIndicated = "indicated" // 已指定书目，周期进行中（或已到期）
)

// Club 俱乐部表
type Club struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	IsPrivate   bool      `json:"is_private" gorm:"default:false"`
	InviteCode  *string   `json:"invite_code,omitempty" gorm:"type:varchar(12);index"` // 仅私密俱乐部持有
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	MaxMembers  int       `json:"max_members" gorm:"not null"`
	CoverURL    *string   `json:"cover_url,omitempty" gorm:"type:text"`
	CycleDays   int       `json:"cycle_days" gorm:"not null"` // 阅读周期长度（天）

	// 当前周期状态：三段推进 no_draw -> drawn -> indicated
	// 回退到 no_draw 时书目和截止时间一并清空，不允许部分清空
	CurrentReaderID *uuid.UUID `json:"current_reader_id,omitempty" gorm:"type:uuid"`
	BookTitle       *string    `json:"book_title,omitempty" gorm:"type:varchar(255)"`
	BookAuthor      *string    `json:"book_author,omitempty" gorm:"type:varchar(255)"`
	BookPublisher   *string    `json:"book_publisher,omitempty" gorm:"type:varchar(255)"`
	BookCoverURL    *string    `json:"book_cover_url,omitempty" gorm:"type:text"`
	CycleEndsAt     *time.Time `json:"cycle_ends_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Club) TableName() string {
	return "clubs"
}

// CycleState 当前周期所处阶段
func (c *Club) CycleState() string {
	switch {
	case c.CurrentReaderID == nil:
		return CycleStateNoDraw
	case c.BookTitle == nil:
		return CycleStateDrawn
	default:
		return CycleStateIndicated
	}
}

// RemainingDays 周期剩余天数：max(0, ceil((ends_at - now) / 1 天))
func (c *Club) RemainingDays(now time.Time) int {
	if c.CycleEndsAt == nil {
		return 0
	}
	d := c.CycleEndsAt.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// CycleEnded 周期是否已结束（剩余不足 1 天）
// 到期不靠后台任务，纯粹在读取时按墙钟推导
func (c *Club) CycleEnded(now time.Time) bool {
	return c.CycleEndsAt != nil && c.RemainingDays(now) < 1
}

// ClubMember 俱乐部成员表：成员资格即访问权限
type ClubMember struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ClubID   uuid.UUID `json:"club_id" gorm:"type:uuid;not null;uniqueIndex:idx_club_member"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_club_member;index"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`

	// 展示用，从 users 表补充，不落库
	Name     *string `json:"name,omitempty" gorm:"-"`
	PhotoURL *string `json:"photo_url,omitempty" gorm:"-"`
}

func (ClubMember) TableName() string {
	return "club_members"
}

// JoinRequest 入会申请表：与 club_members 互斥，批准时在同一事务内迁移
type JoinRequest struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ClubID    uuid.UUID `json:"club_id" gorm:"type:uuid;not null;uniqueIndex:idx_join_request"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_join_request;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	Name     *string `json:"name,omitempty" gorm:"-"`
	PhotoURL *string `json:"photo_url,omitempty" gorm:"-"`
}

func (JoinRequest) TableName() string {
	return "join_requests"
}

// ClubDetail 俱乐部详情（含成员与派生周期信息）
type ClubDetail struct {
	Club
	Members       []ClubMember `json:"members"`
	MemberCount   int          `json:"member_count"`
	CycleState    string       `json:"cycle_state"`
	RemainingDays int          `json:"remaining_days"`
	CycleEnded    bool         `json:"cycle_ended"`
	IsMember      bool         `json:"is_member"`
	IsOwner       bool         `json:"is_owner"`
}
