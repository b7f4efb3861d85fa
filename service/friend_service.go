package service

import (
	"errors"
	"fmt"

	"bookclub/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 两个用户之间的关系，任一时刻只处于其中一种
const (
	RelationNone            = "none"
	RelationPendingSent     = "pending_sent"
	RelationPendingReceived = "pending_received"
	RelationFriends         = "friends"
)

type FriendService struct {
	db       *gorm.DB
	notifSvc *NotificationService
}

func NewFriendService(db *gorm.DB) *FriendService {
	return &FriendService{db: db}
}

// SetNotificationService 注入通知服务
func (s *FriendService) SetNotificationService(notifSvc *NotificationService) {
	s.notifSvc = notifSvc
}

// SendFriendRequest 发起好友请求
// 自己、已是好友、任一方向已有待处理请求，均拒绝
func (s *FriendService) SendFriendRequest(senderID, receiverID uuid.UUID) (*model.FriendRequest, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("cannot send a friend request to yourself")
	}

	relation, err := s.RelationWith(senderID, receiverID)
	if err != nil {
		return nil, err
	}
	switch relation {
	case RelationFriends:
		return nil, fmt.Errorf("you are already friends")
	case RelationPendingSent:
		return nil, fmt.Errorf("friend request already pending")
	case RelationPendingReceived:
		return nil, fmt.Errorf("this user already sent you a friend request")
	}

	sender, err := s.getUser(senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.getUser(receiverID)
	if err != nil {
		return nil, err
	}

	// 双方信息按此刻快照落库
	request := &model.FriendRequest{
		ID:               uuid.New(),
		SenderID:         sender.ID,
		SenderName:       sender.Name,
		SenderPhotoURL:   sender.PhotoURL,
		ReceiverID:       receiver.ID,
		ReceiverName:     receiver.Name,
		ReceiverPhotoURL: receiver.PhotoURL,
		Status:           model.FriendRequestStatusPending,
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	if s.notifSvc != nil {
		deepLink := "bookclub://friends/requests"
		body := fmt.Sprintf("%s wants to be your friend", sender.Name)
		s.notifSvc.Create(receiverID, model.NotificationTypeFriendRequest,
			"New friend request", &body, &deepLink,
			map[string]interface{}{"request_id": request.ID, "sender_id": senderID})
	}

	return request, nil
}

// AcceptFriendRequest 接受好友请求
// 单个事务内：双侧建边、双方计数 +1、删除请求
// 对重复投递幂等：已存在的边不重复建、不重复计数，请求删除后重入直接报不存在
func (s *FriendService) AcceptFriendRequest(receiverID, requestID uuid.UUID) error {
	var request model.FriendRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND receiver_id = ? AND status = ?",
			requestID, receiverID, model.FriendRequestStatusPending).
			First(&request).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("friend request not found")
		}
		if err != nil {
			return fmt.Errorf("failed to query friend request: %w", err)
		}

		// 发送方视角的边
		if err := s.createEdgeIfAbsent(tx, request.SenderID, request.ReceiverID,
			request.ReceiverName, request.ReceiverPhotoURL); err != nil {
			return err
		}
		// 接收方视角的边
		if err := s.createEdgeIfAbsent(tx, request.ReceiverID, request.SenderID,
			request.SenderName, request.SenderPhotoURL); err != nil {
			return err
		}

		if err := tx.Delete(&request).Error; err != nil {
			return fmt.Errorf("failed to delete friend request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.notifSvc != nil {
		deepLink := "bookclub://friends"
		body := fmt.Sprintf("%s accepted your friend request", request.ReceiverName)
		s.notifSvc.Create(request.SenderID, model.NotificationTypeFriendAccepted,
			"Friend request accepted", &body, &deepLink,
			map[string]interface{}{"friend_id": request.ReceiverID})
	}

	return nil
}

// createEdgeIfAbsent 建边并给持有方计数 +1；边已存在则两者都跳过
func (s *FriendService) createEdgeIfAbsent(tx *gorm.DB, userID, friendID uuid.UUID, friendName string, friendPhotoURL *string) error {
	var count int64
	err := tx.Model(&model.Friend{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check friend edge: %w", err)
	}
	if count > 0 {
		return nil
	}

	edge := &model.Friend{
		ID:             uuid.New(),
		UserID:         userID,
		FriendID:       friendID,
		FriendName:     friendName,
		FriendPhotoURL: friendPhotoURL,
	}
	if err := tx.Create(edge).Error; err != nil {
		return fmt.Errorf("failed to create friend edge: %w", err)
	}

	if err := tx.Model(&model.User{}).
		Where("id = ?", userID).
		Update("friends_count", gorm.Expr("friends_count + 1")).Error; err != nil {
		return fmt.Errorf("failed to increment friends count: %w", err)
	}
	return nil
}

// DeclineFriendRequest 接收方拒绝请求
func (s *FriendService) DeclineFriendRequest(receiverID, requestID uuid.UUID) error {
	return s.deleteRequest(requestID, "receiver_id", receiverID)
}

// CancelFriendRequest 发送方撤回请求
func (s *FriendService) CancelFriendRequest(senderID, requestID uuid.UUID) error {
	return s.deleteRequest(requestID, "sender_id", senderID)
}

func (s *FriendService) deleteRequest(requestID uuid.UUID, ownerColumn string, ownerID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND "+ownerColumn+" = ? AND status = ?",
			requestID, ownerID, model.FriendRequestStatusPending).
			Delete(&model.FriendRequest{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete friend request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("friend request not found")
		}
		return nil
	})
}

// RemoveFriend 解除好友关系
// 单个事务内删双侧边并各自计数 -1；并发重复删除时第二次直接报不存在
func (s *FriendService) RemoveFriend(userID, targetID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		removed := false
		for _, pair := range [][2]uuid.UUID{{userID, targetID}, {targetID, userID}} {
			result := tx.Where("user_id = ? AND friend_id = ?", pair[0], pair[1]).
				Delete(&model.Friend{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete friend edge: %w", result.Error)
			}
			if result.RowsAffected > 0 {
				removed = true
				// 计数只在真正删到边时才减，且不允许减到负数
				if err := tx.Model(&model.User{}).
					Where("id = ? AND friends_count > 0", pair[0]).
					Update("friends_count", gorm.Expr("friends_count - 1")).Error; err != nil {
					return fmt.Errorf("failed to decrement friends count: %w", err)
				}
			}
		}
		if !removed {
			return fmt.Errorf("friend not found")
		}
		return nil
	})
}

// ListFriends 好友列表
func (s *FriendService) ListFriends(userID uuid.UUID) ([]model.Friend, error) {
	var friends []model.Friend
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&friends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	return friends, nil
}

// ListReceivedRequests 收到的待处理请求
func (s *FriendService) ListReceivedRequests(userID uuid.UUID) ([]model.FriendRequest, error) {
	var requests []model.FriendRequest
	err := s.db.Where("receiver_id = ? AND status = ?", userID, model.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query friend requests: %w", err)
	}
	return requests, nil
}

// ListSentRequests 发出的待处理请求
func (s *FriendService) ListSentRequests(userID uuid.UUID) ([]model.FriendRequest, error) {
	var requests []model.FriendRequest
	err := s.db.Where("sender_id = ? AND status = ?", userID, model.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query friend requests: %w", err)
	}
	return requests, nil
}

// RelationWith userID 相对 otherID 的关系
func (s *FriendService) RelationWith(userID, otherID uuid.UUID) (string, error) {
	var count int64
	err := s.db.Model(&model.Friend{}).
		Where("user_id = ? AND friend_id = ?", userID, otherID).
		Count(&count).Error
	if err != nil {
		return "", fmt.Errorf("failed to check friendship: %w", err)
	}
	if count > 0 {
		return RelationFriends, nil
	}

	var request model.FriendRequest
	err = s.db.Where(
		"((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
		userID, otherID, otherID, userID, model.FriendRequestStatusPending).
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RelationNone, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check friend request: %w", err)
	}

	if request.SenderID == userID {
		return RelationPendingSent, nil
	}
	return RelationPendingReceived, nil
}

func (s *FriendService) getUser(userID uuid.UUID) (*model.User, error) {
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
