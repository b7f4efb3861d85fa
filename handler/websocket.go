package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"bookclub/middleware"
	"bookclub/service"
	"bookclub/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境需要检查 Origin
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Client WebSocket 客户端（一个设备一个连接）
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
	mu     sync.Mutex
	closed bool
}

// Hub WebSocket 连接管理中心
type Hub struct {
	// 在线用户 map[userID]map[clientID]*Client（支持多设备）
	Clients map[uuid.UUID]map[uuid.UUID]*Client
	mu      sync.RWMutex

	MaxConnectionsPerUser int

	rdb     *redis.Client
	msgSvc  *service.MessageService
	clubSvc *service.ClubService

	// Pod ID，跨 Pod 广播去重用
	podID      string
	stopPubSub chan struct{}
}

// Redis Pub/Sub channel 名称
const redisBroadcastChannel = "ws:broadcast"

// BroadcastMessage 跨 Pod 广播消息格式
type BroadcastMessage struct {
	UserID  string `json:"user_id"`
	PodID   string `json:"pod_id"`
	Payload []byte `json:"payload"`
}

// NewHub 创建 Hub，内部持有自己的消息/俱乐部服务
func NewHub(db *gorm.DB, rdb *redis.Client) *Hub {
	h := &Hub{
		Clients:               make(map[uuid.UUID]map[uuid.UUID]*Client),
		MaxConnectionsPerUser: 8,
		rdb:                   rdb,
		clubSvc:               service.NewClubService(db),
		podID:                 uuid.New().String(),
		stopPubSub:            make(chan struct{}),
	}
	h.msgSvc = service.NewMessageService(db)
	h.msgSvc.SetBroadcaster(h)
	return h
}

// GetMessageService 取 Hub 内部的消息服务（HTTP API 复用）
func (h *Hub) GetMessageService() *service.MessageService {
	return h.msgSvc
}

// Register 注册客户端（限制每用户最大连接数）
func (h *Hub) Register(client *Client) {
	h.mu.Lock()

	if h.Clients[client.UserID] == nil {
		h.Clients[client.UserID] = make(map[uuid.UUID]*Client)
	}

	if len(h.Clients[client.UserID]) >= h.MaxConnectionsPerUser {
		h.mu.Unlock()

		log.Printf("[WARN] User %s exceeds max connections (%d), rejecting client %s",
			client.UserID, h.MaxConnectionsPerUser, client.ID)
		client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "too many devices"))
		client.Conn.Close()
		return
	}

	h.Clients[client.UserID][client.ID] = client
	isFirstDevice := len(h.Clients[client.UserID]) == 1
	h.mu.Unlock()

	// 首个设备上线时写在线标记
	if isFirstDevice && h.rdb != nil {
		h.rdb.Set(context.Background(), "online:"+client.UserID.String(), "1", 0)
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	lastDevice := false
	if clients, ok := h.Clients[client.UserID]; ok {
		if _, ok := clients[client.ID]; ok {
			delete(clients, client.ID)
			client.mu.Lock()
			if !client.closed {
				client.closed = true
				close(client.Send)
			}
			client.mu.Unlock()
		}
		if len(clients) == 0 {
			delete(h.Clients, client.UserID)
			lastDevice = true
		}
	}
	h.mu.Unlock()

	if lastDevice && h.rdb != nil {
		h.rdb.Del(context.Background(), "online:"+client.UserID.String())
	}
}

// SendToUser 给本 Pod 上该用户的全部设备发消息
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) bool {
	h.mu.RLock()
	clients := h.Clients[userID]
	targets := make([]*Client, 0, len(clients))
	for _, c := range clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := false
	for _, c := range targets {
		c.mu.Lock()
		if !c.closed {
			select {
			case c.Send <- message:
				sent = true
			default:
				// 发送缓冲已满，丢弃这条
			}
		}
		c.mu.Unlock()
	}
	return sent
}

// BroadcastToUser 本 Pod 直发 + Redis Pub/Sub 转发其他 Pod
func (h *Hub) BroadcastToUser(userID uuid.UUID, message []byte) {
	h.SendToUser(userID, message)

	if h.rdb == nil {
		return
	}
	broadcast := BroadcastMessage{
		UserID:  userID.String(),
		PodID:   h.podID,
		Payload: message,
	}
	data, err := json.Marshal(broadcast)
	if err != nil {
		return
	}
	h.rdb.Publish(context.Background(), redisBroadcastChannel, data)
}

// BroadcastToClubMembers 把消息推给俱乐部全部在线成员
func (h *Hub) BroadcastToClubMembers(clubID uuid.UUID, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	memberIDs, err := h.clubSvc.MemberIDs(clubID)
	if err != nil {
		log.Printf("[WARN] failed to load members for broadcast: %v", err)
		return
	}
	for _, uid := range memberIDs {
		h.BroadcastToUser(uid, data)
	}
}

// SendNotification 推送通知载荷（NotificationService 的 HubNotifier 实现）
func (h *Hub) SendNotification(userID uuid.UUID, notification interface{}) bool {
	payload := map[string]interface{}{
		"type": "notification",
		"data": notification,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	h.BroadcastToUser(userID, data)
	return true
}

// IsUserOnline 是否在线：先查本 Pod，再查 Redis 在线标记
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	online := len(h.Clients[userID]) > 0
	h.mu.RUnlock()
	if online {
		return true
	}

	if h.rdb != nil {
		val, err := h.rdb.Get(context.Background(), "online:"+userID.String()).Result()
		return err == nil && val == "1"
	}
	return false
}

// StartPubSub 订阅跨 Pod 广播
func (h *Hub) StartPubSub() {
	if h.rdb == nil {
		return
	}

	go func() {
		pubsub := h.rdb.Subscribe(context.Background(), redisBroadcastChannel)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h.handleBroadcastMessage([]byte(msg.Payload))
			case <-h.stopPubSub:
				return
			}
		}
	}()
}

// StopPubSub 停止订阅
func (h *Hub) StopPubSub() {
	close(h.stopPubSub)
}

func (h *Hub) handleBroadcastMessage(data []byte) {
	var broadcast BroadcastMessage
	if err := json.Unmarshal(data, &broadcast); err != nil {
		return
	}
	// 自己发出的广播本地已经投递过了
	if broadcast.PodID == h.podID {
		return
	}
	userID, err := uuid.Parse(broadcast.UserID)
	if err != nil {
		return
	}
	h.SendToUser(userID, broadcast.Payload)
}

// HandleWebSocket WebSocket 握手入口，token 放在 query 参数里
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.Unauthorized(c, "missing token")
			return
		}

		userID, err := middleware.ValidateToken(token)
		if err != nil {
			utils.Unauthorized(c, "invalid token")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ERROR] WebSocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			ID:     uuid.New(),
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 64),
			Hub:    hub,
		}

		hub.Register(client)

		go client.writePump()
		go client.readPump()
	}
}

// inboundMessage 客户端上行消息
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WARN] WebSocket read error: %v", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}

		switch msg.Type {
		case "message":
			c.handleSendMessage(msg.Data)
		default:
			c.sendError("unknown message type")
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleSendMessage 通过 WebSocket 发俱乐部消息
func (c *Client) handleSendMessage(data json.RawMessage) {
	var req struct {
		ClubID  uuid.UUID `json:"club_id"`
		Content string    `json:"content"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid message data")
		return
	}

	message, err := c.Hub.msgSvc.SendMessage(req.ClubID, c.UserID, req.Content)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	// 发送方本连接回执（成员广播由 msgSvc 触发）
	ack, err := json.Marshal(map[string]interface{}{
		"type": "message_ack",
		"data": message,
	})
	if err != nil {
		return
	}
	c.mu.Lock()
	if !c.closed {
		select {
		case c.Send <- ack:
		default:
		}
	}
	c.mu.Unlock()
}

func (c *Client) sendError(errMsg string) {
	payload, err := json.Marshal(map[string]interface{}{
		"type": "error",
		"data": map[string]string{"message": errMsg},
	})
	if err != nil {
		return
	}
	c.mu.Lock()
	if !c.closed {
		select {
		case c.Send <- payload:
		default:
		}
	}
	c.mu.Unlock()
}
