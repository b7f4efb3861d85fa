package service

import (
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"bookclub/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CycleService 阅读周期状态机
// no_draw -> drawn -> indicated，到期后由会长重新抽取
type CycleService struct {
	db       *gorm.DB
	msgSvc   *MessageService
	notifSvc *NotificationService
}

func NewCycleService(db *gorm.DB) *CycleService {
	return &CycleService{db: db}
}

// SetMessageService 注入消息服务（书目指定后向俱乐部发 book_indication 消息）
func (s *CycleService) SetMessageService(msgSvc *MessageService) {
	s.msgSvc = msgSvc
}

// SetNotificationService 注入通知服务
func (s *CycleService) SetNotificationService(notifSvc *NotificationService) {
	s.notifSvc = notifSvc
}

// IndicateBookRequest 指定书目请求
// CycleDays 按字符串接收，"0"、空串、非数字一律拒绝
type IndicateBookRequest struct {
	Title     string `json:"title" binding:"required"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
	CoverURL  string `json:"cover_url"`
	CycleDays string `json:"cycle_days"`
}

// clearCycleUpdates 周期字段整体写入：换 reader 的同时书目和截止时间一并清空
// 绝不部分清空
func clearCycleUpdates(readerID interface{}) map[string]interface{} {
	return map[string]interface{}{
		"current_reader_id": readerID,
		"book_title":        nil,
		"book_author":       nil,
		"book_publisher":    nil,
		"book_cover_url":    nil,
		"cycle_ends_at":     nil,
	}
}

// DrawReader 从成员集合里等概率抽取本周期指定人（仅会长）
func (s *CycleService) DrawReader(clubID, adminID uuid.UUID) (*model.Club, error) {
	var club model.Club
	if err := s.db.Where("id = ?", clubID).First(&club).Error; err != nil {
		return nil, fmt.Errorf("club not found")
	}
	if club.OwnerID != adminID {
		return nil, fmt.Errorf("only the club owner can draw the next reader")
	}

	// 进行中的周期不允许重抽
	if club.CycleState() == model.CycleStateIndicated && !club.CycleEnded(time.Now()) {
		return nil, fmt.Errorf("current cycle has not ended yet")
	}

	var members []model.ClubMember
	if err := s.db.Where("club_id = ?", clubID).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("club has no members to draw from")
	}

	drawn := members[rand.Intn(len(members))].UserID

	// 单次更新：写入新 reader 的同时清空书目和截止时间
	if err := s.db.Model(&model.Club{}).Where("id = ?", clubID).
		Updates(clearCycleUpdates(drawn)).Error; err != nil {
		return nil, fmt.Errorf("failed to update cycle: %w", err)
	}

	if s.notifSvc != nil {
		deepLink := fmt.Sprintf("bookclub://clubs/%s/cycle", clubID)
		body := fmt.Sprintf("You were drawn to pick the next book for %s", club.Name)
		s.notifSvc.Create(drawn, model.NotificationTypeReaderDrawn,
			"It's your turn", &body, &deepLink,
			map[string]interface{}{"club_id": clubID})
	}

	club.CurrentReaderID = &drawn
	club.BookTitle = nil
	club.BookAuthor = nil
	club.BookPublisher = nil
	club.BookCoverURL = nil
	club.CycleEndsAt = nil
	return &club, nil
}

// ConfirmBookIndication 当前指定人确认书目，截止时间 = now + cycleDays 天
// 校验失败时周期状态保持不变
func (s *CycleService) ConfirmBookIndication(clubID, readerID uuid.UUID, req *IndicateBookRequest) (*model.Club, error) {
	days, err := strconv.Atoi(strings.TrimSpace(req.CycleDays))
	if err != nil || days <= 0 {
		return nil, fmt.Errorf("cycle days must be a positive integer")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("book title is required")
	}

	var club model.Club
	if err := s.db.Where("id = ?", clubID).First(&club).Error; err != nil {
		return nil, fmt.Errorf("club not found")
	}
	if club.CurrentReaderID == nil || *club.CurrentReaderID != readerID {
		return nil, fmt.Errorf("only the drawn member can indicate the book")
	}

	endsAt := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	updates := map[string]interface{}{
		"book_title":     title,
		"book_author":    req.Author,
		"book_publisher": req.Publisher,
		"book_cover_url": req.CoverURL,
		"cycle_ends_at":  endsAt,
	}
	if err := s.db.Model(&model.Club{}).Where("id = ?", clubID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update cycle: %w", err)
	}

	payload := model.BookIndicationPayload{
		Title:       title,
		Author:      req.Author,
		Publisher:   req.Publisher,
		CoverURL:    req.CoverURL,
		CycleDays:   days,
		CycleEndsAt: endsAt,
	}

	// 向俱乐部消息流发一条 book_indication 消息
	if s.msgSvc != nil {
		if _, err := s.msgSvc.PostBookIndication(clubID, readerID, payload); err != nil {
			log.Printf("[WARN] failed to post book indication message: %v", err)
		}
	}

	// 通知其他成员
	if s.notifSvc != nil {
		var members []model.ClubMember
		if err := s.db.Where("club_id = ? AND user_id != ?", clubID, readerID).Find(&members).Error; err == nil {
			ids := make([]uuid.UUID, len(members))
			for i, m := range members {
				ids[i] = m.UserID
			}
			deepLink := fmt.Sprintf("bookclub://clubs/%s", clubID)
			body := fmt.Sprintf("%s is the next book for %s", title, club.Name)
			s.notifSvc.CreateForUsers(ids, model.NotificationTypeBookIndicated,
				"New book indicated", &body, &deepLink,
				map[string]interface{}{"club_id": clubID})
		}
	}

	club.BookTitle = &title
	club.CycleEndsAt = &endsAt
	return &club, nil
}

// ResetCycle 会长把周期回退到 no_draw，书目和截止时间一并清空
func (s *CycleService) ResetCycle(clubID, adminID uuid.UUID) error {
	var club model.Club
	if err := s.db.Where("id = ?", clubID).First(&club).Error; err != nil {
		return fmt.Errorf("club not found")
	}
	if club.OwnerID != adminID {
		return fmt.Errorf("only the club owner can reset the cycle")
	}

	if err := s.db.Model(&model.Club{}).Where("id = ?", clubID).
		Updates(clearCycleUpdates(nil)).Error; err != nil {
		return fmt.Errorf("failed to reset cycle: %w", err)
	}
	return nil
}
