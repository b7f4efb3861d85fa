package main

import (
	"log"
	"time"

	"bookclub/config"
	"bookclub/handler"
	"bookclub/middleware"
	"bookclub/service"
	"bookclub/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	// 服务端统一使用 UTC
	time.Local = time.UTC
}

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	if err := utils.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer utils.CloseDB()

	// 初始化 Redis
	if err := utils.InitRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer utils.CloseRedis()

	// 初始化认证中间件
	middleware.InitAuth(cfg.JWTSecret)

	// 创建通知服务
	notifSvc := service.NewNotificationService(utils.GetDB())

	// 创建 WebSocket Hub 并启动跨 Pod 订阅
	hub := handler.NewHub(utils.GetDB(), utils.GetRedis())
	hub.StartPubSub()
	defer hub.StopPubSub()

	// 通知走 Hub 推送给在线用户
	notifSvc.SetHubNotifier(hub)

	// 创建服务
	userSvc := service.NewUserService(utils.GetDB())
	clubSvc := service.NewClubServiceWithRedis(utils.GetDB(), utils.GetRedis())
	cycleSvc := service.NewCycleService(utils.GetDB())
	friendSvc := service.NewFriendService(utils.GetDB())
	bookSvc := service.NewBookSearchService(cfg.BooksAPIBaseURL, cfg.BooksAPIKey)

	// 注入跨服务依赖
	clubSvc.SetNotificationService(notifSvc)
	cycleSvc.SetNotificationService(notifSvc)
	friendSvc.SetNotificationService(notifSvc)

	// 消息服务复用 Hub 内部的实例，保证 HTTP 和 WebSocket 同一条广播链路
	msgSvc := hub.GetMessageService()
	cycleSvc.SetMessageService(msgSvc)

	// 创建处理器
	userHandler := handler.NewUserHandler(userSvc, friendSvc)
	clubHandler := handler.NewClubHandler(clubSvc, cycleSvc, cfg.DefaultMaxMembers, cfg.DefaultCycleDays)
	msgHandler := handler.NewMessageHandler(msgSvc)
	friendHandler := handler.NewFriendHandler(friendSvc)
	notifHandler := handler.NewNotificationHandler(notifSvc)
	bookHandler := handler.NewBookHandler(bookSvc)

	// 创建 Gin 路由
	r := gin.Default()

	// 注册统一错误处理中间件
	r.Use(middleware.ErrorHandlerMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{"status": "ok"})
	})

	// WebSocket 连接（token 放 query 参数，不走 HTTP 中间件）
	r.GET("/ws", handler.HandleWebSocket(hub))

	// 公开接口
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", userHandler.Register)
		auth.POST("/login", userHandler.Login)
	}

	// HTTP API 路由组（需要认证）
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		// 用户
		api.GET("/users/me", userHandler.GetMe)
		api.POST("/users/me", userHandler.UpdateMe)
		api.GET("/users/search", userHandler.SearchUsers)
		api.GET("/users/:id", userHandler.GetUser)

		// 俱乐部
		api.POST("/clubs", clubHandler.CreateClub)
		api.GET("/clubs", clubHandler.ListClubs)
		api.GET("/clubs/mine", clubHandler.ListMyClubs)
		api.POST("/clubs/by-invite-code", clubHandler.FindByInviteCode)
		api.GET("/clubs/:id", clubHandler.GetClub)
		api.POST("/clubs/:id", clubHandler.UpdateClub)

		// 入会流程
		api.POST("/clubs/:id/join", clubHandler.JoinClub)
		api.POST("/clubs/:id/join/cancel", clubHandler.CancelJoinRequest)
		api.GET("/clubs/:id/requests", clubHandler.ListJoinRequests)
		api.POST("/clubs/:id/requests/:user_id/approve", clubHandler.ApproveRequest)
		api.POST("/clubs/:id/requests/:user_id/deny", clubHandler.DenyRequest)

		// 成员管理
		api.POST("/clubs/:id/members/remove", clubHandler.KickMember)
		api.POST("/clubs/:id/leave", clubHandler.LeaveClub)

		// 阅读周期
		api.POST("/clubs/:id/cycle/draw", clubHandler.DrawReader)
		api.POST("/clubs/:id/cycle/book", clubHandler.IndicateBook)
		api.POST("/clubs/:id/cycle/reset", clubHandler.ResetCycle)

		// 俱乐部消息
		api.GET("/clubs/:id/messages", msgHandler.GetMessages)
		api.POST("/clubs/:id/messages", msgHandler.SendMessage)

		// 好友
		api.GET("/friends", friendHandler.ListFriends)
		api.POST("/friends/requests", friendHandler.SendRequest)
		api.GET("/friends/requests/received", friendHandler.ListReceivedRequests)
		api.GET("/friends/requests/sent", friendHandler.ListSentRequests)
		api.POST("/friends/requests/:id/accept", friendHandler.AcceptRequest)
		api.POST("/friends/requests/:id/decline", friendHandler.DeclineRequest)
		api.POST("/friends/requests/:id/cancel", friendHandler.CancelRequest)
		api.POST("/friends/:id/remove", friendHandler.RemoveFriend)

		// 图书检索
		api.GET("/books/search", bookHandler.SearchBooks)

		// 通知
		api.GET("/notifications", notifHandler.ListNotifications)
		api.GET("/notifications/unread-count", notifHandler.UnreadCount)
		api.GET("/notifications/:id", notifHandler.GetNotification)
		api.POST("/notifications/read-all", notifHandler.MarkAllAsRead)
		api.POST("/notifications/:id/delete", notifHandler.DeleteNotification)
	}

	// 启动服务
	log.Printf("🚀 bookclub service starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
