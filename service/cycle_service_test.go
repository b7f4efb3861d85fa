package service

import (
	"testing"
	"time"

	"bookclub/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDrawReader_OnlyFromMembers 抽取结果必须来自成员集合
//
// 验证闭环：
// 1. 多次抽取，每次的 current_reader_id 都在成员集合内
// 2. 抽取后周期进入 drawn，书目字段为空
func TestDrawReader_OnlyFromMembers(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleService(db)

	owner := createTestUser(t, db, "Owner")
	a := createTestUser(t, db, "A")
	b := createTestUser(t, db, "B")
	outsider := createTestUser(t, db, "Outsider")
	club := createTestClub(t, db, owner.ID, 10, 30)
	addMember(t, db, club, a.ID)
	addMember(t, db, club, b.ID)

	memberSet := map[uuid.UUID]bool{owner.ID: true, a.ID: true, b.ID: true}

	for i := 0; i < 20; i++ {
		updated, err := svc.DrawReader(club.ID, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.CurrentReaderID)
		assert.True(t, memberSet[*updated.CurrentReaderID], "抽取结果必须是成员")
		assert.NotEqual(t, outsider.ID, *updated.CurrentReaderID)
		assert.Equal(t, model.CycleStateDrawn, updated.CycleState())
		assert.Nil(t, updated.BookTitle)
	}
}

// TestDrawReader_SingleMemberAlwaysDrawn 单成员俱乐部每次都抽中该成员
func TestDrawReader_SingleMemberAlwaysDrawn(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleService(db)

	owner := createTestUser(t, db, "Owner")
	club := createTestClub(t, db, owner.ID, 10, 30)

	for i := 0; i < 5; i++ {
		updated, err := svc.DrawReader(club.ID, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.CurrentReaderID)
		assert.Equal(t, owner.ID, *updated.CurrentReaderID)
	}
}

// TestDrawReader_OnlyOwner 非会长不能抽取
func TestDrawReader_OnlyOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleService(db)

	owner := createTestUser(t, db, "Owner")
	member := createTestUser(t, db, "Member")
	club := createTestClub(t, db, owner.ID, 10, 30)
	addMember(t, db, club, member.ID)

	_, err := svc.DrawReader(club.ID, member.ID)
	assert.EqualError(t, err, "only the club owner can draw the next reader")
}

// TestDrawReader_BlockedMidCycle 进行中的周期不允许重抽，到期后放行
//
// 验证闭环：
// 1. 抽取 -> 指定书目，周期进行中
// 2. 此时重抽被拒绝
// 3. 把截止时间改到过去模拟到期，重抽成功且书目被清空
func TestDrawReader_BlockedMidCycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleService(db)

	owner := createTestUser(t, db, "Owner")
	club := createTestClub(t, db, owner.ID, 10, 30)

	_, err := svc.DrawReader(club.ID, owner.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmBookIndication(club.ID, owner.ID, &IndicateBookRequest{
		Title: "Dune", CycleDays: "14",
	})
	require.NoError(t, err)

	_, err = svc.DrawReader(club.ID, owner.ID)
	assert.EqualError(t, err, "current cycle has not ended yet")

	// 模拟到期
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&model.Club{}).Where("id = ?", club.ID).
		Update("cycle_ends_at", past).Error)

	updated, err := svc.DrawReader(club.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CycleStateDrawn, updated.CycleState())
	assert.Nil(t, updated.BookTitle)
	assert.Nil(t, updated.CycleEndsAt)
}

// TestConfirmBookIndication 指定书目后周期进入 indicated，截止时间正确
func TestConfirmBookIndication(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleService(db)

	owner := createTestUser(t, db, "Owner")
	club := createTestClub(t, db, owner.ID, 10, 30)

	_, err := svc.DrawReader(club.ID, owner.ID)
	require.NoError(t, err)

	before := time.Now()
	updated, err := svc.ConfirmBookIndication(club.ID, owner.ID, &IndicateBookRequest{
		Title:     "The Left Hand of Darkness",
		Author:    "Ursula K. Le Guin",
		CycleDays: "14",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CycleEndsAt)
	assert.Equal(t, model.CycleStateIndicated, updated.CycleState())

	// 截止时间 = now + 14 天
	expected := before.Add(14 * 24 * time.Hour)
	assert.WithinDuration(t, expected, *updated.CycleEndsAt, time.Minute)

	var reloaded model.Club
	require.NoError(t, db.Where("id = ?", club.ID).First(&reloaded).Error)
	require.NotNil(t, reloaded.BookTitle)
	assert.Equal(t, "The Left Hand of Darkness", *reloaded.BookTitle)
}

// TestConfirmBookIndication_InvalidCycleDays 非法周期天数一律拒绝且状态不变
//
// "0"、空串、负数、非数字都不接受，失败后周期仍停在 drawn
func TestConfirmBookIndication_InvalidCycleDays(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleService(db)

	owner := createTestUser(t, db, "Owner")
	club := createTestClub(t, db, owner.ID, 10, 30)

	_, err := svc.DrawReader(club.ID, owner.ID)
	require.NoError(t, err)

	for _, days := range []string{"0", "", "-3", "abc", "1.5"} {
		_, err := svc.ConfirmBookIndication(club.ID, owner.ID, &IndicateBookRequest{
			Title: "Dune", CycleDays: days,
		})
		assert.EqualError(t, err, "cycle days must be a positive integer", "cycle_days=%q", days)

		// 状态保持 drawn，书目没有被写入
		var reloaded model.Club
		require.NoError(t, db.Where("id = ?", club.ID).First(&reloaded).Error)
		assert.Equal(t, model.CycleStateDrawn, reloaded.CycleState())
		assert.Nil(t, reloaded.BookTitle)
		assert.Nil(t, reloaded.CycleEndsAt)
	}
}

// TestConfirmBookIndication_OnlyDrawnMember 只有被抽中的人能指定书目
func TestConfirmBookIndication_OnlyDrawnMember(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleService(db)

	owner := createTestUser(t, db, "Owner")
	member := createTestUser(t, db, "Member")
	club := createTestClub(t, db, owner.ID, 10, 30)
	addMember(t, db, club, member.ID)

	// 未抽取时任何人指定都被拒绝
	_, err := svc.ConfirmBookIndication(club.ID, owner.ID, &IndicateBookRequest{
		Title: "Dune", CycleDays: "14",
	})
	assert.EqualError(t, err, "only the drawn member can indicate the book")
}

// TestConfirmBookIndication_PostsMessage 书目确认后消息流里出现 book_indication 消息
func TestConfirmBookIndication_PostsMessage(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleService(db)
	msgSvc := NewMessageService(db)
	svc.SetMessageService(msgSvc)

	owner := createTestUser(t, db, "Owner")
	club := createTestClub(t, db, owner.ID, 10, 30)

	_, err := svc.DrawReader(club.ID, owner.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmBookIndication(club.ID, owner.ID, &IndicateBookRequest{
		Title: "Dune", Author: "Frank Herbert", CycleDays: "21",
	})
	require.NoError(t, err)

	messages, err := msgSvc.GetMessages(club.ID, owner.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, model.MessageTypeBookIndication, messages[0].MessageType)
	require.NotNil(t, messages[0].Content)
	assert.Equal(t, "Dune", *messages[0].Content)
	assert.NotEmpty(t, messages[0].Metadata)
}

// TestResetCycle 会长回退周期，书目和截止时间一并清空
func TestResetCycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleService(db)

	owner := createTestUser(t, db, "Owner")
	member := createTestUser(t, db, "Member")
	club := createTestClub(t, db, owner.ID, 10, 30)
	addMember(t, db, club, member.ID)

	_, err := svc.DrawReader(club.ID, owner.ID)
	require.NoError(t, err)

	err = svc.ResetCycle(club.ID, member.ID)
	assert.EqualError(t, err, "only the club owner can reset the cycle")

	require.NoError(t, svc.ResetCycle(club.ID, owner.ID))

	var reloaded model.Club
	require.NoError(t, db.Where("id = ?", club.ID).First(&reloaded).Error)
	assert.Equal(t, model.CycleStateNoDraw, reloaded.CycleState())
	assert.Nil(t, reloaded.CurrentReaderID)
	assert.Nil(t, reloaded.BookTitle)
	assert.Nil(t, reloaded.CycleEndsAt)
}
