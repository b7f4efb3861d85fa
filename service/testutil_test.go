package service

import (
	"fmt"
	"testing"

	"bookclub/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的共享内存库
// 不用裸 :memory:，连接池里每个连接会各拿一个空库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.Club{},
		&model.ClubMember{},
		&model.JoinRequest{},
		&model.Message{},
		&model.Friend{},
		&model.FriendRequest{},
		&model.Notification{},
	)
	require.NoError(t, err)

	return db
}

// createTestUser 注册一个随机邮箱的用户
func createTestUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()

	email := fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8])
	user, err := NewUserService(db).Register(name, email, "password123")
	require.NoError(t, err)
	return user
}

// createTestClub 建一个公开俱乐部，owner 自动成为首个成员
func createTestClub(t *testing.T, db *gorm.DB, ownerID uuid.UUID, maxMembers, cycleDays int) *model.Club {
	t.Helper()

	club, err := NewClubService(db).CreateClub(ownerID, &CreateClubRequest{
		Name:       "club-" + uuid.New().String()[:8],
		MaxMembers: maxMembers,
		CycleDays:  cycleDays,
	})
	require.NoError(t, err)
	return club
}

// addMember 走完整的申请-批准流程把用户加进俱乐部
func addMember(t *testing.T, db *gorm.DB, club *model.Club, userID uuid.UUID) {
	t.Helper()

	svc := NewClubService(db)
	require.NoError(t, svc.RequestToJoin(club.ID, userID))
	require.NoError(t, svc.ApproveRequest(club.ID, club.OwnerID, userID))
}
