package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"session_tracker_backend/pkg/logger"
	"session_tracker_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 32
	onlineTTL      = 2 * time.Minute
	hubChannel     = "notification_channel"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	WSTypeNotification = "NOTIFICATION"
	WSTypePong         = "PONG"
)

type Client struct {
	Hub     *NotificationHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  uint
	Limiter *rate.Limiter
}

// readPump 客户端只发送心跳，读循环主要用于感知断线
func (c *Client) readPump() {
	defer func() {
		c.Hub.remove(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.UserID))
			}
			break
		}
		if !c.Limiter.Allow() {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "PING" {
			c.deliver(mustMarshal(WSMessage{Type: WSTypePong}))
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

// deliver 发送缓冲已满时丢弃，慢客户端不阻塞广播
func (c *Client) deliver(payload []byte) bool {
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

type shard struct {
	clients map[uint]map[*Client]struct{}
	mu      sync.RWMutex
}

// NotificationHub 每个账号可同时有多个连接（多个标签页）。
// 配置了 Redis 时经 pub/sub 扇出到所有实例，否则只投递本实例。
type NotificationHub struct {
	shards     [shardCount]*shard
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	Redis      *redis.Client
	ctx        context.Context
}

func NewNotificationHub(rdb *redis.Client) *NotificationHub {
	h := &NotificationHub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		Redis:      rdb,
		ctx:        context.Background(),
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{clients: make(map[uint]map[*Client]struct{})}
	}
	return h
}

// add 与 remove 在 hub 停止后直接返回，避免连接协程阻塞
func (h *NotificationHub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *NotificationHub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *NotificationHub) getShard(userID uint) *shard {
	return h.shards[userID%shardCount]
}

type PubSubMessage struct {
	TargetUsers []uint          `json:"targetUsers"`
	Payload     json.RawMessage `json:"payload"`
}

func onlineKey(userID uint) string {
	return fmt.Sprintf("notify:online:%d", userID)
}

func (h *NotificationHub) Run() {
	if h.Redis != nil {
		pubsub := h.Redis.Subscribe(h.ctx, hubChannel)
		defer pubsub.Close()
		go func() {
			for msg := range pubsub.Channel() {
				var psMsg PubSubMessage
				if err := json.Unmarshal([]byte(msg.Payload), &psMsg); err != nil {
					logger.Log.Error("PubSub unmarshal error", zap.Error(err))
					continue
				}
				h.pushLocal(psMsg.TargetUsers, psMsg.Payload)
			}
		}()
	}

	heartbeat := time.NewTicker(time.Minute)
	defer heartbeat.Stop()

	for {
		select {
		case client := <-h.register:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			conns, ok := s.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				s.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
			s.mu.Unlock()
			monitoring.NotificationClients.Inc()
			h.markOnline(client.UserID, true)

		case client := <-h.unregister:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			remaining := -1
			if conns, ok := s.clients[client.UserID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.Send)
					monitoring.NotificationClients.Dec()
				}
				remaining = len(conns)
				if remaining == 0 {
					delete(s.clients, client.UserID)
				}
			}
			s.mu.Unlock()
			if remaining == 0 {
				h.markOnline(client.UserID, false)
			}

		case <-heartbeat.C:
			h.refreshOnlineStatus()

		case <-h.done:
			return
		}
	}
}

func (h *NotificationHub) markOnline(userID uint, online bool) {
	if h.Redis == nil {
		return
	}
	var err error
	if online {
		err = h.Redis.Set(h.ctx, onlineKey(userID), "true", onlineTTL).Err()
	} else {
		err = h.Redis.Del(h.ctx, onlineKey(userID)).Err()
	}
	if err != nil {
		logger.Log.Warn("online status update failed", zap.Error(err), zap.Uint("userId", userID))
	}
}

// refreshOnlineStatus 为本实例在线账号续期，其他实例删除的标记也会被重新写入
func (h *NotificationHub) refreshOnlineStatus() {
	if h.Redis == nil {
		return
	}
	pipe := h.Redis.Pipeline()
	count := 0
	for _, s := range h.shards {
		s.mu.RLock()
		for userID := range s.clients {
			pipe.Set(h.ctx, onlineKey(userID), "true", onlineTTL)
			count++
		}
		s.mu.RUnlock()
	}
	if count > 0 {
		if _, err := pipe.Exec(h.ctx); err != nil {
			logger.Log.Warn("online status refresh failed", zap.Error(err))
		}
	}
}

// PushToUsers 只投递给任一实例上在线的账号，返回在线账号数。
// 发布到所有实例；Redis 不可用时退回本地投递。
func (h *NotificationHub) PushToUsers(userIDs []uint, msg WSMessage) int {
	online := make([]uint, 0, len(userIDs))
	for _, id := range userIDs {
		if h.IsUserOnline(id) {
			online = append(online, id)
		}
	}
	if len(online) == 0 {
		return 0
	}

	payload := mustMarshal(msg)
	monitoring.NotificationsPushed.WithLabelValues(msg.Type).Inc()

	if h.Redis != nil {
		raw := mustMarshal(PubSubMessage{TargetUsers: online, Payload: payload})
		if err := h.Redis.Publish(h.ctx, hubChannel, raw).Err(); err == nil {
			return len(online)
		} else {
			logger.Log.Warn("notification publish failed, delivering locally", zap.Error(err))
		}
	}
	h.pushLocal(online, payload)
	return len(online)
}

// pushLocal 返回投递成功的连接数
func (h *NotificationHub) pushLocal(userIDs []uint, payload []byte) int {
	delivered := 0
	for _, id := range userIDs {
		s := h.getShard(id)
		s.mu.RLock()
		for client := range s.clients[id] {
			if client.deliver(payload) {
				delivered++
			}
		}
		s.mu.RUnlock()
	}
	return delivered
}

// IsUserOnline 先查本实例连接，再查其他实例写入 Redis 的在线标记
func (h *NotificationHub) IsUserOnline(userID uint) bool {
	s := h.getShard(userID)
	s.mu.RLock()
	_, ok := s.clients[userID]
	s.mu.RUnlock()
	if ok || h.Redis == nil {
		return ok
	}
	val, err := h.Redis.Get(h.ctx, onlineKey(userID)).Result()
	return err == nil && val == "true"
}

// Stop 关闭所有连接并清理在线状态
func (h *NotificationHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		var userIDs []uint
		closed := 0
		for _, s := range h.shards {
			s.mu.Lock()
			for userID, conns := range s.clients {
				userIDs = append(userIDs, userID)
				for client := range conns {
					close(client.Send)
					closed++
				}
				delete(s.clients, userID)
			}
			s.mu.Unlock()
		}

		if h.Redis != nil && len(userIDs) > 0 {
			pipe := h.Redis.Pipeline()
			for _, userID := range userIDs {
				pipe.Del(h.ctx, onlineKey(userID))
			}
			pipe.Exec(h.ctx)
		}
		monitoring.NotificationClients.Set(0)
		logger.Log.Info("NotificationHub stopped", zap.Int("closedConnections", closed))
	})
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Log.Error("marshal websocket message", zap.Error(err))
		return []byte("{}")
	}
	return b
}

func ServeWs(hub *NotificationHub, w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 64),
		UserID:  userID,
		Limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	if !hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
