package service

import (
	"testing"

	"bookclub/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateClub_OwnerBecomesFirstMember 建会后创建者立即是成员
//
// 验证闭环：
// 1. 建会成功，公开俱乐部不持有邀请码
// 2. 成员表里有且只有 owner 一行
// 3. 详情里 is_owner、is_member 均为 true
func TestCreateClub_OwnerBecomesFirstMember(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	club := createTestClub(t, db, owner.ID, 10, 30)

	assert.Nil(t, club.InviteCode, "公开俱乐部不应持有邀请码")

	detail, err := svc.GetClubDetail(club.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.MemberCount)
	assert.True(t, detail.IsOwner)
	assert.True(t, detail.IsMember)
	assert.Equal(t, model.CycleStateNoDraw, detail.CycleState)
}

// TestCreateClub_PrivateGetsInviteCode 私密俱乐部持有邀请码且可按码查到
func TestCreateClub_PrivateGetsInviteCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	club, err := svc.CreateClub(owner.ID, &CreateClubRequest{
		Name:       "Secret Readers",
		IsPrivate:  true,
		MaxMembers: 10,
		CycleDays:  30,
	})
	require.NoError(t, err)
	require.NotNil(t, club.InviteCode)

	found, err := svc.FindByInviteCode(*club.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, club.ID, found.ID)
}

// TestJoinFlow_ApproveMovesRequestToMembership 批准后申请行消失、成员行出现
//
// 验证闭环：
// 1. 申请后出现在待审列表
// 2. 重复申请被拒绝
// 3. 批准后成为成员，且申请表中无残留（成员与申请互斥）
func TestJoinFlow_ApproveMovesRequestToMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	joiner := createTestUser(t, db, "Joiner")
	club := createTestClub(t, db, owner.ID, 10, 30)

	require.NoError(t, svc.RequestToJoin(club.ID, joiner.ID))

	// 重复申请
	err := svc.RequestToJoin(club.ID, joiner.ID)
	assert.EqualError(t, err, "join request already pending")

	requests, err := svc.ListJoinRequests(club.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, joiner.ID, requests[0].UserID)

	require.NoError(t, svc.ApproveRequest(club.ID, owner.ID, joiner.ID))

	isMember, err := svc.IsMember(club.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	// 申请行已迁走
	var count int64
	db.Model(&model.JoinRequest{}).Where("club_id = ?", club.ID).Count(&count)
	assert.EqualValues(t, 0, count)

	// 已是成员再申请
	err = svc.RequestToJoin(club.ID, joiner.ID)
	assert.EqualError(t, err, "you are already a member of this club")
}

// TestApproveRequest_ClubFull 满员时批准被拒绝，申请原样保留
func TestApproveRequest_ClubFull(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	first := createTestUser(t, db, "First")
	second := createTestUser(t, db, "Second")

	// 上限 2：owner + 1 个名额
	club := createTestClub(t, db, owner.ID, 2, 30)
	addMember(t, db, club, first.ID)

	require.NoError(t, svc.RequestToJoin(club.ID, second.ID))
	err := svc.ApproveRequest(club.ID, owner.ID, second.ID)
	assert.EqualError(t, err, "club is full")

	// 申请没有被消耗，拒绝后仍可撤回
	var count int64
	db.Model(&model.JoinRequest{}).Where("club_id = ? AND user_id = ?", club.ID, second.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	isMember, err := svc.IsMember(club.ID, second.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
}

// TestApproveRequest_OnlyOwner 非会长批准被拒绝
func TestApproveRequest_OnlyOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	member := createTestUser(t, db, "Member")
	joiner := createTestUser(t, db, "Joiner")
	club := createTestClub(t, db, owner.ID, 10, 30)
	addMember(t, db, club, member.ID)

	require.NoError(t, svc.RequestToJoin(club.ID, joiner.ID))

	err := svc.ApproveRequest(club.ID, member.ID, joiner.ID)
	assert.EqualError(t, err, "only the club owner can approve join requests")
}

// TestDenyRequest_OnlyRemovesRequest 拒绝只删申请，不产生成员
func TestDenyRequest_OnlyRemovesRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	joiner := createTestUser(t, db, "Joiner")
	club := createTestClub(t, db, owner.ID, 10, 30)

	require.NoError(t, svc.RequestToJoin(club.ID, joiner.ID))
	require.NoError(t, svc.DenyRequest(club.ID, owner.ID, joiner.ID))

	isMember, err := svc.IsMember(club.ID, joiner.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	// 拒绝后可以重新申请
	require.NoError(t, svc.RequestToJoin(club.ID, joiner.ID))
}

// TestCancelJoinRequest 申请人撤回自己的申请
func TestCancelJoinRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	joiner := createTestUser(t, db, "Joiner")
	club := createTestClub(t, db, owner.ID, 10, 30)

	require.NoError(t, svc.RequestToJoin(club.ID, joiner.ID))
	require.NoError(t, svc.CancelJoinRequest(club.ID, joiner.ID))

	// 重复撤回
	err := svc.CancelJoinRequest(club.ID, joiner.ID)
	assert.EqualError(t, err, "join request not found")
}

// TestKickMember_ResetsCycleWhenReaderKicked 被踢的人正是当前指定人时周期整体清空
func TestKickMember_ResetsCycleWhenReaderKicked(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)
	cycleSvc := NewCycleService(db)

	owner := createTestUser(t, db, "Owner")
	member := createTestUser(t, db, "Member")
	club := createTestClub(t, db, owner.ID, 10, 30)
	addMember(t, db, club, member.ID)

	// 反复抽到 member 为止（只有两个成员）
	var drawnMember bool
	for i := 0; i < 50; i++ {
		updated, err := cycleSvc.DrawReader(club.ID, owner.ID)
		require.NoError(t, err)
		if *updated.CurrentReaderID == member.ID {
			drawnMember = true
			break
		}
	}
	require.True(t, drawnMember, "两成员俱乐部 50 次抽取应至少命中一次非会长成员")

	require.NoError(t, svc.KickMember(club.ID, owner.ID, member.ID))

	var reloaded model.Club
	require.NoError(t, db.Where("id = ?", club.ID).First(&reloaded).Error)
	assert.Nil(t, reloaded.CurrentReaderID)
	assert.Nil(t, reloaded.BookTitle)
	assert.Nil(t, reloaded.CycleEndsAt)
	assert.Equal(t, model.CycleStateNoDraw, reloaded.CycleState())
}

// TestKickMember_Permissions 仅会长可踢人，且不能踢自己
func TestKickMember_Permissions(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	member := createTestUser(t, db, "Member")
	club := createTestClub(t, db, owner.ID, 10, 30)
	addMember(t, db, club, member.ID)

	err := svc.KickMember(club.ID, member.ID, owner.ID)
	assert.EqualError(t, err, "only the club owner can remove members")

	err = svc.KickMember(club.ID, owner.ID, owner.ID)
	assert.EqualError(t, err, "cannot remove the club owner")
}

// TestLeaveClub 成员可退出，会长不能退出
func TestLeaveClub(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	member := createTestUser(t, db, "Member")
	club := createTestClub(t, db, owner.ID, 10, 30)
	addMember(t, db, club, member.ID)

	err := svc.LeaveClub(club.ID, owner.ID)
	assert.EqualError(t, err, "the club owner cannot leave the club")

	require.NoError(t, svc.LeaveClub(club.ID, member.ID))

	isMember, err := svc.IsMember(club.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
}

// TestGetClubDetail_PrivateHiddenFromNonMembers 私密俱乐部对非成员不可见
// 邀请码只回给会长
func TestGetClubDetail_PrivateHiddenFromNonMembers(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	member := createTestUser(t, db, "Member")
	outsider := createTestUser(t, db, "Outsider")

	club, err := svc.CreateClub(owner.ID, &CreateClubRequest{
		Name:       "Hidden Club",
		IsPrivate:  true,
		MaxMembers: 10,
		CycleDays:  30,
	})
	require.NoError(t, err)
	addMember(t, db, club, member.ID)

	_, err = svc.GetClubDetail(club.ID, outsider.ID)
	assert.EqualError(t, err, "club not found")

	// 普通成员可见但拿不到邀请码
	detail, err := svc.GetClubDetail(club.ID, member.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.InviteCode)

	detail, err = svc.GetClubDetail(club.ID, owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.InviteCode)
}

// TestUpdateClub_MaxMembersFloor 上限不能降到现有成员数之下
func TestUpdateClub_MaxMembersFloor(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")
	a := createTestUser(t, db, "A")
	b := createTestUser(t, db, "B")
	club := createTestClub(t, db, owner.ID, 10, 30)
	addMember(t, db, club, a.ID)
	addMember(t, db, club, b.ID)

	two := 2
	_, err := svc.UpdateClub(club.ID, owner.ID, &UpdateClubRequest{MaxMembers: &two})
	assert.EqualError(t, err, "max members cannot be below current member count")

	five := 5
	updated, err := svc.UpdateClub(club.ID, owner.ID, &UpdateClubRequest{MaxMembers: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.MaxMembers)
}

// TestListPublicClubs 公开列表不含私密俱乐部，支持名称模糊搜索
func TestListPublicClubs(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db)

	owner := createTestUser(t, db, "Owner")

	_, err := svc.CreateClub(owner.ID, &CreateClubRequest{
		Name: "Sci-Fi Lovers", MaxMembers: 10, CycleDays: 30,
	})
	require.NoError(t, err)
	_, err = svc.CreateClub(owner.ID, &CreateClubRequest{
		Name: "History Buffs", MaxMembers: 10, CycleDays: 30,
	})
	require.NoError(t, err)
	_, err = svc.CreateClub(owner.ID, &CreateClubRequest{
		Name: "Secret Sci-Fi", IsPrivate: true, MaxMembers: 10, CycleDays: 30,
	})
	require.NoError(t, err)

	clubs, err := svc.ListPublicClubs("", 20, 0)
	require.NoError(t, err)
	assert.Len(t, clubs, 2)

	clubs, err = svc.ListPublicClubs("sci-fi", 20, 0)
	require.NoError(t, err)
	require.Len(t, clubs, 1)
	assert.Equal(t, "Sci-Fi Lovers", clubs[0].Name)
}
