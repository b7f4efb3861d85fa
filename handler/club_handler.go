package handler

import (
	"strconv"

	"bookclub/middleware"
	"bookclub/service"
	"bookclub/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ClubHandler struct {
	clubSvc  *service.ClubService
	cycleSvc *service.CycleService

	defaultMaxMembers int
	defaultCycleDays  int
}

func NewClubHandler(clubSvc *service.ClubService, cycleSvc *service.CycleService, defaultMaxMembers, defaultCycleDays int) *ClubHandler {
	return &ClubHandler{
		clubSvc:           clubSvc,
		cycleSvc:          cycleSvc,
		defaultMaxMembers: defaultMaxMembers,
		defaultCycleDays:  defaultCycleDays,
	}
}

// CreateClub 创建俱乐部
func (h *ClubHandler) CreateClub(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req service.CreateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	// 未填的上限/周期用服务端默认值
	if req.MaxMembers == 0 {
		req.MaxMembers = h.defaultMaxMembers
	}
	if req.CycleDays == 0 {
		req.CycleDays = h.defaultCycleDays
	}

	club, err := h.clubSvc.CreateClub(userID, &req)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessResponse(c, club)
}

// ListClubs 公开俱乐部列表（发现页）
func (h *ClubHandler) ListClubs(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	search := c.Query("search")

	clubs, err := h.clubSvc.ListPublicClubs(search, limit, offset)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"clubs": clubs})
}

// ListMyClubs 我加入的俱乐部
func (h *ClubHandler) ListMyClubs(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubs, err := h.clubSvc.ListUserClubs(userID)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"clubs": clubs})
}

// GetClub 俱乐部详情
func (h *ClubHandler) GetClub(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}

	detail, err := h.clubSvc.GetClubDetail(clubID, userID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}

	utils.SuccessResponse(c, detail)
}

// UpdateClub 更新俱乐部信息（仅会长）
func (h *ClubHandler) UpdateClub(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}

	var req service.UpdateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	club, err := h.clubSvc.UpdateClub(clubID, userID, &req)
	if err != nil {
		utils.Forbidden(c, err.Error())
		return
	}

	utils.SuccessResponse(c, club)
}

// JoinClub 申请加入
func (h *ClubHandler) JoinClub(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}

	if err := h.clubSvc.RequestToJoin(clubID, userID); err != nil {
		utils.Conflict(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "join request sent", nil)
}

// FindByInviteCode 邀请码查私密俱乐部
func (h *ClubHandler) FindByInviteCode(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	club, err := h.clubSvc.FindByInviteCode(req.InviteCode)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}

	utils.SuccessResponse(c, club)
}

// ListJoinRequests 待审申请列表（仅会长）
func (h *ClubHandler) ListJoinRequests(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}

	requests, err := h.clubSvc.ListJoinRequests(clubID, userID)
	if err != nil {
		utils.Forbidden(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"requests": requests})
}

// ApproveRequest 批准入会
func (h *ClubHandler) ApproveRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}
	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	if err := h.clubSvc.ApproveRequest(clubID, userID, targetID); err != nil {
		utils.Conflict(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "request approved", nil)
}

// DenyRequest 拒绝入会
func (h *ClubHandler) DenyRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}
	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	if err := h.clubSvc.DenyRequest(clubID, userID, targetID); err != nil {
		utils.Forbidden(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "request denied", nil)
}

// CancelJoinRequest 撤回自己的申请
func (h *ClubHandler) CancelJoinRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}

	if err := h.clubSvc.CancelJoinRequest(clubID, userID); err != nil {
		utils.NotFound(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "join request cancelled", nil)
}

// KickMember 移除成员（仅会长）
func (h *ClubHandler) KickMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := h.clubSvc.KickMember(clubID, userID, req.UserID); err != nil {
		utils.Forbidden(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "member removed", nil)
}

// LeaveClub 退出俱乐部
func (h *ClubHandler) LeaveClub(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}

	if err := h.clubSvc.LeaveClub(clubID, userID); err != nil {
		utils.Forbidden(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "left the club", nil)
}

// DrawReader 抽取本周期指定人（仅会长）
func (h *ClubHandler) DrawReader(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}

	club, err := h.cycleSvc.DrawReader(clubID, userID)
	if err != nil {
		utils.Forbidden(c, err.Error())
		return
	}

	utils.SuccessResponse(c, club)
}

// IndicateBook 当前指定人确认书目
func (h *ClubHandler) IndicateBook(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}

	var req service.IndicateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	club, err := h.cycleSvc.ConfirmBookIndication(clubID, userID, &req)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessResponse(c, club)
}

// ResetCycle 周期回退到未抽取状态（仅会长）
func (h *ClubHandler) ResetCycle(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid club id")
		return
	}

	if err := h.cycleSvc.ResetCycle(clubID, userID); err != nil {
		utils.Forbidden(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "cycle reset", nil)
}
