package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookclub/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ClubService struct {
	db       *gorm.DB
	rdb      *redis.Client
	notifSvc *NotificationService
}

func NewClubService(db *gorm.DB) *ClubService {
	return &ClubService{db: db}
}

func NewClubServiceWithRedis(db *gorm.DB, rdb *redis.Client) *ClubService {
	return &ClubService{db: db, rdb: rdb}
}

// SetNotificationService 注入通知服务
func (s *ClubService) SetNotificationService(notifSvc *NotificationService) {
	s.notifSvc = notifSvc
}

// CreateClubRequest 建会请求
type CreateClubRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	IsPrivate   bool    `json:"is_private"`
	MaxMembers  int     `json:"max_members"`
	CycleDays   int     `json:"cycle_days"`
	CoverURL    *string `json:"cover_url"`
}

// UpdateClubRequest 改会请求（nil 字段不改动）
type UpdateClubRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	CoverURL    *string `json:"cover_url"`
	MaxMembers  *int    `json:"max_members"`
	CycleDays   *int    `json:"cycle_days"`
}

// CreateClub 创建俱乐部，创建者在同一事务内成为首个成员
// 邀请码仅私密俱乐部持有
func (s *ClubService) CreateClub(ownerID uuid.UUID, req *CreateClubRequest) (*model.Club, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("club name is required")
	}
	if req.MaxMembers < 2 {
		return nil, fmt.Errorf("max members must be at least 2")
	}
	if req.CycleDays < 1 {
		return nil, fmt.Errorf("cycle days must be a positive integer")
	}

	club := &model.Club{
		ID:          uuid.New(),
		Name:        name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		OwnerID:     ownerID,
		MaxMembers:  req.MaxMembers,
		CoverURL:    req.CoverURL,
		CycleDays:   req.CycleDays,
	}
	if req.IsPrivate {
		code := generateInviteCode()
		club.InviteCode = &code
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(club).Error; err != nil {
			return fmt.Errorf("failed to create club: %w", err)
		}

		owner := &model.ClubMember{
			ID:     uuid.New(),
			ClubID: club.ID,
			UserID: ownerID,
		}
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("failed to add owner as member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return club, nil
}

// GetClubDetail 获取俱乐部详情（含成员和派生周期信息）
// 私密俱乐部仅成员可见，非成员走邀请码入口
func (s *ClubService) GetClubDetail(clubID, userID uuid.UUID) (*model.ClubDetail, error) {
	club, err := s.getClub(clubID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.IsMember(clubID, userID)
	if err != nil {
		return nil, err
	}
	if club.IsPrivate && !isMember {
		return nil, fmt.Errorf("club not found")
	}

	members, err := s.listMembers(clubID)
	if err != nil {
		return nil, err
	}

	// 邀请码只让会长看到
	if club.OwnerID != userID {
		club.InviteCode = nil
	}

	now := time.Now()
	return &model.ClubDetail{
		Club:          *club,
		Members:       members,
		MemberCount:   len(members),
		CycleState:    club.CycleState(),
		RemainingDays: club.RemainingDays(now),
		CycleEnded:    club.CycleEnded(now),
		IsMember:      isMember,
		IsOwner:       club.OwnerID == userID,
	}, nil
}

// ListPublicClubs 公开俱乐部列表（可按名称模糊搜索）
func (s *ClubService) ListPublicClubs(search string, limit, offset int) ([]model.Club, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	query := s.db.Where("is_private = ?", false)
	search = strings.TrimSpace(search)
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var clubs []model.Club
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&clubs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query clubs: %w", err)
	}

	// 列表里不透出邀请码
	for i := range clubs {
		clubs[i].InviteCode = nil
	}
	return clubs, nil
}

// ListUserClubs 用户加入的俱乐部列表
func (s *ClubService) ListUserClubs(userID uuid.UUID) ([]model.Club, error) {
	var clubs []model.Club
	err := s.db.Table("clubs c").
		Select("c.*").
		Joins("INNER JOIN club_members cm ON c.id = cm.club_id AND cm.user_id = ?", userID).
		Order("c.created_at DESC").
		Find(&clubs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query clubs: %w", err)
	}

	for i := range clubs {
		if clubs[i].OwnerID != userID {
			clubs[i].InviteCode = nil
		}
	}
	return clubs, nil
}

// UpdateClub 更新俱乐部信息（仅会长）
func (s *ClubService) UpdateClub(clubID, userID uuid.UUID, req *UpdateClubRequest) (*model.Club, error) {
	club, err := s.getClub(clubID)
	if err != nil {
		return nil, err
	}
	if club.OwnerID != userID {
		return nil, fmt.Errorf("only the club owner can update the club")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("club name cannot be blank")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CoverURL != nil {
		updates["cover_url"] = *req.CoverURL
	}
	if req.MaxMembers != nil {
		if *req.MaxMembers < 2 {
			return nil, fmt.Errorf("max members must be at least 2")
		}
		// 上限不允许压到现有成员数以下
		var count int64
		if err := s.db.Model(&model.ClubMember{}).Where("club_id = ?", clubID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count members: %w", err)
		}
		if int64(*req.MaxMembers) < count {
			return nil, fmt.Errorf("max members cannot be below current member count")
		}
		updates["max_members"] = *req.MaxMembers
	}
	if req.CycleDays != nil {
		if *req.CycleDays < 1 {
			return nil, fmt.Errorf("cycle days must be a positive integer")
		}
		updates["cycle_days"] = *req.CycleDays
	}

	if len(updates) > 0 {
		if err := s.db.Model(&model.Club{}).Where("id = ?", clubID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update club: %w", err)
		}
	}

	return s.getClub(clubID)
}

// FindByInviteCode 通过邀请码定位私密俱乐部
// 可见性只管发现，入会仍然要走申请/批准
func (s *ClubService) FindByInviteCode(code string) (*model.Club, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("invite code is required")
	}

	var club model.Club
	err := s.db.Where("invite_code = ?", code).First(&club).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invalid invite code")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query club: %w", err)
	}

	club.InviteCode = nil
	return &club, nil
}

// RequestToJoin 申请加入俱乐部
// members 与 join_requests 互斥：已是成员或已有待审申请都拒绝
func (s *ClubService) RequestToJoin(clubID, userID uuid.UUID) error {
	club, err := s.getClub(clubID)
	if err != nil {
		return err
	}

	isMember, err := s.IsMember(clubID, userID)
	if err != nil {
		return err
	}
	if isMember {
		return fmt.Errorf("you are already a member of this club")
	}

	var pending int64
	err = s.db.Model(&model.JoinRequest{}).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		Count(&pending).Error
	if err != nil {
		return fmt.Errorf("failed to check pending request: %w", err)
	}
	if pending > 0 {
		return fmt.Errorf("join request already pending")
	}

	request := &model.JoinRequest{
		ID:     uuid.New(),
		ClubID: clubID,
		UserID: userID,
	}
	if err := s.db.Create(request).Error; err != nil {
		return fmt.Errorf("failed to create join request: %w", err)
	}

	// 通知会长有新申请
	if s.notifSvc != nil {
		deepLink := fmt.Sprintf("bookclub://clubs/%s/requests", clubID)
		body := fmt.Sprintf("New join request for %s", club.Name)
		s.notifSvc.Create(club.OwnerID, model.NotificationTypeJoinRequest,
			"New join request", &body, &deepLink,
			map[string]interface{}{"club_id": clubID, "user_id": userID})
	}

	return nil
}

// ListJoinRequests 待审申请列表（仅会长）
func (s *ClubService) ListJoinRequests(clubID, userID uuid.UUID) ([]model.JoinRequest, error) {
	club, err := s.getClub(clubID)
	if err != nil {
		return nil, err
	}
	if club.OwnerID != userID {
		return nil, fmt.Errorf("only the club owner can view join requests")
	}

	var requests []model.JoinRequest
	err = s.db.Where("club_id = ?", clubID).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query join requests: %w", err)
	}

	s.fillRequestUserInfo(requests)
	return requests, nil
}

// ApproveRequest 批准入会申请（仅会长）
// 容量检查和名额占用在同一事务内完成；有 Redis 时加分布式锁，
// 把同一俱乐部的并发批准串行化，避免超员
func (s *ClubService) ApproveRequest(clubID, adminID, targetID uuid.UUID) error {
	club, err := s.getClub(clubID)
	if err != nil {
		return err
	}
	if club.OwnerID != adminID {
		return fmt.Errorf("only the club owner can approve join requests")
	}

	if s.rdb != nil {
		lockKey := fmt.Sprintf("lock:club_join:%s", clubID)
		ctx := context.Background()

		// 最多等 3 秒抢锁
		lockAcquired := false
		for i := 0; i < 30; i++ {
			ok, err := s.rdb.SetNX(ctx, lockKey, "1", 5*time.Second).Result()
			if err == nil && ok {
				lockAcquired = true
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
		if !lockAcquired {
			return fmt.Errorf("failed to acquire lock for join approval")
		}
		defer s.rdb.Del(ctx, lockKey)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 锁内重查申请，可能已被撤回或处理
		var request model.JoinRequest
		err := tx.Where("club_id = ? AND user_id = ?", clubID, targetID).First(&request).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("join request not found")
		}
		if err != nil {
			return fmt.Errorf("failed to query join request: %w", err)
		}

		var memberCount int64
		if err := tx.Model(&model.ClubMember{}).Where("club_id = ?", clubID).Count(&memberCount).Error; err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		if memberCount >= int64(club.MaxMembers) {
			return fmt.Errorf("club is full")
		}

		// 申请行迁入成员表，二者互斥在同一事务内保持
		if err := tx.Delete(&request).Error; err != nil {
			return fmt.Errorf("failed to delete join request: %w", err)
		}
		member := &model.ClubMember{
			ID:     uuid.New(),
			ClubID: clubID,
			UserID: targetID,
		}
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.notifSvc != nil {
		deepLink := fmt.Sprintf("bookclub://clubs/%s", clubID)
		body := fmt.Sprintf("You are now a member of %s", club.Name)
		s.notifSvc.Create(targetID, model.NotificationTypeRequestApproved,
			"Join request approved", &body, &deepLink,
			map[string]interface{}{"club_id": clubID})
	}

	return nil
}

// DenyRequest 拒绝入会申请（仅会长）：只移除申请，不做其他动作
func (s *ClubService) DenyRequest(clubID, adminID, targetID uuid.UUID) error {
	club, err := s.getClub(clubID)
	if err != nil {
		return err
	}
	if club.OwnerID != adminID {
		return fmt.Errorf("only the club owner can deny join requests")
	}

	result := s.db.Where("club_id = ? AND user_id = ?", clubID, targetID).
		Delete(&model.JoinRequest{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete join request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("join request not found")
	}
	return nil
}

// CancelJoinRequest 申请人撤回自己的申请
func (s *ClubService) CancelJoinRequest(clubID, userID uuid.UUID) error {
	result := s.db.Where("club_id = ? AND user_id = ?", clubID, userID).
		Delete(&model.JoinRequest{})
	if result.Error != nil {
		return fmt.Errorf("failed to cancel join request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("join request not found")
	}
	return nil
}

// KickMember 移除成员（仅会长，不能移除会长自己）
func (s *ClubService) KickMember(clubID, adminID, targetID uuid.UUID) error {
	club, err := s.getClub(clubID)
	if err != nil {
		return err
	}
	if club.OwnerID != adminID {
		return fmt.Errorf("only the club owner can remove members")
	}
	if targetID == club.OwnerID {
		return fmt.Errorf("cannot remove the club owner")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("club_id = ? AND user_id = ?", clubID, targetID).
			Delete(&model.ClubMember{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove member: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("target user is not a member")
		}

		// 被移除的人如果恰好是当前周期指定人，周期整体回退
		if club.CurrentReaderID != nil && *club.CurrentReaderID == targetID {
			if err := tx.Model(&model.Club{}).Where("id = ?", clubID).
				Updates(clearCycleUpdates(nil)).Error; err != nil {
				return fmt.Errorf("failed to reset cycle: %w", err)
			}
		}
		return nil
	})
}

// LeaveClub 成员退出（会长不能退出，需先转让或解散——未实现转让，直接拒绝）
func (s *ClubService) LeaveClub(clubID, userID uuid.UUID) error {
	club, err := s.getClub(clubID)
	if err != nil {
		return err
	}
	if club.OwnerID == userID {
		return fmt.Errorf("the club owner cannot leave the club")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("club_id = ? AND user_id = ?", clubID, userID).
			Delete(&model.ClubMember{})
		if result.Error != nil {
			return fmt.Errorf("failed to leave club: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("you are not a member of this club")
		}

		if club.CurrentReaderID != nil && *club.CurrentReaderID == userID {
			if err := tx.Model(&model.Club{}).Where("id = ?", clubID).
				Updates(clearCycleUpdates(nil)).Error; err != nil {
				return fmt.Errorf("failed to reset cycle: %w", err)
			}
		}
		return nil
	})
}

// IsMember 成员资格检查：在 club_members 表里即有访问权限
func (s *ClubService) IsMember(clubID, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&model.ClubMember{}).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

// MemberIDs 成员 ID 列表（Hub 广播用）
func (s *ClubService) MemberIDs(clubID uuid.UUID) ([]uuid.UUID, error) {
	var members []model.ClubMember
	if err := s.db.Where("club_id = ?", clubID).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

func (s *ClubService) getClub(clubID uuid.UUID) (*model.Club, error) {
	var club model.Club
	err := s.db.Where("id = ?", clubID).First(&club).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("club not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query club: %w", err)
	}
	return &club, nil
}

func (s *ClubService) listMembers(clubID uuid.UUID) ([]model.ClubMember, error) {
	var members []model.ClubMember
	err := s.db.Where("club_id = ?", clubID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}

	// 补充展示信息
	userIDs := make([]uuid.UUID, len(members))
	for i, m := range members {
		userIDs[i] = m.UserID
	}
	userMap, err := s.batchGetUsers(userIDs)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if u, ok := userMap[members[i].UserID]; ok {
			name := u.Name
			members[i].Name = &name
			members[i].PhotoURL = u.PhotoURL
		}
	}
	return members, nil
}

func (s *ClubService) fillRequestUserInfo(requests []model.JoinRequest) {
	if len(requests) == 0 {
		return
	}
	userIDs := make([]uuid.UUID, len(requests))
	for i, r := range requests {
		userIDs[i] = r.UserID
	}
	userMap, err := s.batchGetUsers(userIDs)
	if err != nil {
		return
	}
	for i := range requests {
		if u, ok := userMap[requests[i].UserID]; ok {
			name := u.Name
			requests[i].Name = &name
			requests[i].PhotoURL = u.PhotoURL
		}
	}
}

func (s *ClubService) batchGetUsers(userIDs []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	result := make(map[uuid.UUID]*model.User)
	if len(userIDs) == 0 {
		return result, nil
	}

	var users []model.User
	if err := s.db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	for i := range users {
		result[users[i].ID] = &users[i]
	}
	return result, nil
}

// generateInviteCode 8 位大写邀请码
func generateInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
