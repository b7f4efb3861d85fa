package handler

import (
	"strconv"

	"bookclub/middleware"
	"bookclub/service"
	"bookclub/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	msgSvc *service.MessageService
}

func NewMessageHandler(msgSvc *service.MessageService) *MessageHandler {
	return &MessageHandler{msgSvc: msgSvc}
}

// GetMessages 俱乐部消息历史（时间正序）
func (h *MessageHandler) GetMessages(c *gin.Context) {
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

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.msgSvc.GetMessages(clubID, userID, limit, offset)
	if err != nil {
		utils.Forbidden(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"messages": messages})
}

// SendMessage 发送文本消息（HTTP 入口，与 WebSocket 同一服务层）
func (h *MessageHandler) SendMessage(c *gin.Context) {
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
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	message, err := h.msgSvc.SendMessage(clubID, userID, req.Content)
	if err != nil {
		utils.Forbidden(c, err.Error())
		return
	}

	utils.SuccessResponse(c, message)
}
