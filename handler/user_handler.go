package handler

import (
	"strconv"

	"bookclub/middleware"
	"bookclub/service"
	"bookclub/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	userSvc   *service.UserService
	friendSvc *service.FriendService
}

func NewUserHandler(userSvc *service.UserService, friendSvc *service.FriendService) *UserHandler {
	return &UserHandler{userSvc: userSvc, friendSvc: friendSvc}
}

// Register 注册
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user, err := h.userSvc.Register(req.Name, req.Email, req.Password)
	if err != nil {
		utils.Conflict(c, err.Error())
		return
	}

	token, err := middleware.GenerateToken(user.ID)
	if err != nil {
		utils.InternalServerError(c, "failed to generate token")
		return
	}

	utils.SuccessResponse(c, gin.H{"token": token, "user": user})
}

// Login 登录
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user, err := h.userSvc.Authenticate(req.Email, req.Password)
	if err != nil {
		utils.Unauthorized(c, err.Error())
		return
	}

	token, err := middleware.GenerateToken(user.ID)
	if err != nil {
		utils.InternalServerError(c, "failed to generate token")
		return
	}

	utils.SuccessResponse(c, gin.H{"token": token, "user": user})
}

// GetMe 当前用户资料
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	user, err := h.userSvc.GetByID(userID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}

	utils.SuccessResponse(c, user)
}

// UpdateMe 更新当前用户资料
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user, err := h.userSvc.UpdateProfile(userID, &req)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessResponse(c, user)
}

// GetUser 查看他人资料（附带与当前用户的关系）
func (h *UserHandler) GetUser(c *gin.Context) {
	currentUserID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	user, err := h.userSvc.GetByID(targetID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}

	relation := service.RelationNone
	if currentUserID != targetID {
		relation, err = h.friendSvc.RelationWith(currentUserID, targetID)
		if err != nil {
			utils.InternalServerError(c, err.Error())
			return
		}
	}

	utils.SuccessResponse(c, gin.H{
		"user":     user.Profile(),
		"relation": relation,
	})
}

// SearchUsers 按名称前缀搜索
func (h *UserHandler) SearchUsers(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	query := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	profiles, err := h.userSvc.SearchByNamePrefix(query, limit)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"users": profiles})
}
