package handler

import (
	"strconv"

	"bookclub/middleware"
	"bookclub/service"
	"bookclub/utils"

	"github.com/gin-gonic/gin"
)

type BookHandler struct {
	searchSvc *service.BookSearchService
}

func NewBookHandler(searchSvc *service.BookSearchService) *BookHandler {
	return &BookHandler{searchSvc: searchSvc}
}

// SearchBooks 图书检索，?q=<query>&max=<n>
func (h *BookHandler) SearchBooks(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	query := c.Query("q")
	maxResults, _ := strconv.Atoi(c.DefaultQuery("max", "20"))

	result, err := h.searchSvc.Search(query, maxResults)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessResponse(c, result)
}
