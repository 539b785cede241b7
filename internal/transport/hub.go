// Package transport 把牌局接到 WebSocket 與 HTTP 上。
//
// Hub 維護連線與玩家的對應（connID → 房間 + 名稱）。動作者的身分一律
// 取自這個對應，客戶端送來的名稱只在 createParty / joinParty 時使用。
package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/koopa0/system-design/14-mao-card-game/internal/events"
	"github.com/koopa0/system-design/14-mao-card-game/internal/game"
	"github.com/koopa0/system-design/14-mao-card-game/internal/room"
)

const (
	// writeWait 單次寫入期限
	writeWait = 10 * time.Second
	// pongWait 多久沒收到任何訊息（含 pong）就視為斷線
	pongWait = 60 * time.Second
	// pingPeriod 必須小於 pongWait
	pingPeriod = 54 * time.Second
	// maxMessageSize 客戶端單則訊息上限，超過會直接斷線
	maxMessageSize = 32 * 1024
	// maxTextLength 名稱、聊天、規則、罰牌理由的長度上限，超過回 BadRequest
	maxTextLength = 1000
	// sendBuffer 每個連線的發送緩衝
	sendBuffer = 256
	// publishTimeout 對外發布事件的期限
	publishTimeout = 2 * time.Second
)

// Hub WebSocket 連線中心
//
// 鎖順序：manager.mu → room.mu → hub.mu。房間內的廣播在 Manager.Do 的
// callback 裡進行（只拿 hub.mu 讀鎖、非阻塞送進 channel），所以同一房間的
// 事件送出順序與狀態套用順序一致。過期清理的通知在 manager.mu 內執行。
// hub.mu 持有期間絕不呼叫 Manager。
type Hub struct {
	manager   *room.Manager
	publisher events.Publisher
	logger    *slog.Logger
	upgrader  websocket.Upgrader

	mu      sync.RWMutex
	conns   map[string]*Connection            // connID -> Connection
	players map[string]map[string]*Connection // roomID -> playerName -> Connection
	stopped bool
}

// Connection 一條 WebSocket 連線
type Connection struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	// 以下欄位由 hub.mu 保護
	roomID     string
	playerName string
	closed     bool
}

// NewHub 創建 Hub
//
// allowedOrigins 為空或包含 "*" 時接受任何來源；沒有 Origin 標頭的
// 非瀏覽器客戶端一律接受。
func NewHub(manager *room.Manager, publisher events.Publisher, logger *slog.Logger, allowedOrigins []string) *Hub {
	if publisher == nil {
		publisher = events.Nop{}
	}

	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	h := &Hub{
		manager:   manager,
		publisher: publisher,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
		},
		conns:   make(map[string]*Connection),
		players: make(map[string]map[string]*Connection),
	}
	manager.OnSweep(h.roomSwept)
	return h
}

// ServeWS 升級為 WebSocket 連線
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已經回應客戶端
		h.logger.Warn("升級 WebSocket 失敗", "error", err, "origin", r.Header.Get("Origin"))
		return
	}

	c := &Connection{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		hub:  h,
	}
	if !h.register(c) {
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()

	h.logger.Debug("WebSocket 連線建立", "conn_id", c.ID)
}

// ConnectionCount 目前的連線數
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// PlayerCount 已加入房間的連線數
func (h *Hub) PlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, roomConns := range h.players {
		n += len(roomConns)
	}
	return n
}

// Stop 關閉所有連線，之後不再接受新連線
func (h *Hub) Stop() {
	h.mu.Lock()
	h.stopped = true
	for _, c := range h.conns {
		// writePump 看到 channel 關閉後送出 close frame 並關閉連線
		c.closeSendLocked()
	}
	h.mu.Unlock()

	h.logger.Info("WebSocket Hub 已停止")
}

func (h *Hub) register(c *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return false
	}
	h.conns[c.ID] = c
	return true
}

// unregister 移除連線；若連線仍在房間中，回傳其身分讓呼叫端處理離開
func (h *Hub) unregister(c *Connection) (roomID, playerName string, bound bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, c.ID)
	c.closeSendLocked()
	return h.unbindLocked(c)
}

// bind 把連線綁定到房間內的玩家
func (h *Hub) bind(c *Connection, roomID, playerName string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.roomID = roomID
	c.playerName = playerName
	if h.players[roomID] == nil {
		h.players[roomID] = make(map[string]*Connection)
	}
	h.players[roomID][playerName] = c
}

func (h *Hub) unbind(c *Connection) (roomID, playerName string, bound bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unbindLocked(c)
}

func (h *Hub) unbindLocked(c *Connection) (roomID, playerName string, bound bool) {
	if c.roomID == "" {
		return "", "", false
	}
	roomID, playerName = c.roomID, c.playerName
	c.roomID, c.playerName = "", ""

	if roomConns, exists := h.players[roomID]; exists {
		if current, exists := roomConns[playerName]; exists && current == c {
			delete(roomConns, playerName)
		}
		if len(roomConns) == 0 {
			delete(h.players, roomID)
		}
	}
	return roomID, playerName, true
}

// roomSwept 房間過期被清理：解除房內所有連線的綁定並通知
func (h *Hub) roomSwept(roomID string) {
	msg, ok := h.encode(EventError, errorPayload{Code: game.CodeOf(game.ErrRoomNotFound), Message: game.ErrRoomNotFound.Message})
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	roomConns := h.players[roomID]
	for _, c := range roomConns {
		c.roomID, c.playerName = "", ""
		h.enqueueLocked(c, msg)
	}
	delete(h.players, roomID)

	if len(roomConns) > 0 {
		h.logger.Info("過期房間的連線已解除", "room_id", roomID, "connections", len(roomConns))
	}
}

// seated 連線是否仍是房間裡的這位玩家
func (h *Hub) seated(c *Connection, roomID, playerName string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	current, exists := h.players[roomID][playerName]
	return exists && current == c
}

// identity 連線目前的身分
func (h *Hub) identity(c *Connection) (roomID, playerName string, bound bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.roomID, c.playerName, c.roomID != ""
}

// reply 只送給這條連線
func (h *Hub) reply(c *Connection, eventType string, data any) {
	msg, ok := h.encode(eventType, data)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.enqueueLocked(c, msg)
}

// sendTo 送給房間裡的某位玩家
func (h *Hub) sendTo(roomID, playerName, eventType string, data any) {
	msg, ok := h.encode(eventType, data)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, exists := h.players[roomID][playerName]; exists {
		h.enqueueLocked(c, msg)
	}
}

// broadcast 送給房間裡的所有玩家，except 非空時略過該玩家
func (h *Hub) broadcast(roomID, eventType string, data any, except string) {
	msg, ok := h.encode(eventType, data)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for name, c := range h.players[roomID] {
		if name == except {
			continue
		}
		h.enqueueLocked(c, msg)
	}
}

// enqueueLocked 非阻塞送出，緩衝區滿時丟棄（慢客戶端不拖累整個房間）
func (h *Hub) enqueueLocked(c *Connection, msg []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("連線緩衝區滿，丟棄訊息",
			"conn_id", c.ID,
			"room_id", c.roomID,
			"player", c.playerName)
	}
}

func (h *Hub) encode(eventType string, data any) ([]byte, bool) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("序列化事件失敗", "event", eventType, "error", err)
		return nil, false
	}
	return msg, true
}

// publish 對外發布公開事件，失敗只記錄日誌
func (h *Hub) publish(roomID, eventType string, data any) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := h.publisher.Publish(ctx, events.Event{
		Type:      eventType,
		RoomID:    roomID,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.Warn("發布事件失敗",
			"event", eventType,
			"room_id", roomID,
			"error", err)
	}
}

// closeSendLocked 呼叫端必須持有 hub.mu 寫鎖
func (c *Connection) closeSendLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump 讀取客戶端訊息並依序處理
//
// 同一條連線的動作依序執行；不同連線之間的並發由 Manager.Do 序列化。
// 連線結束（包含 pong 逾時）等同離開房間。
func (c *Connection) readPump() {
	defer func() {
		roomID, name, bound := c.hub.unregister(c)
		_ = c.conn.Close()
		if bound {
			c.hub.leaveRoom(roomID, name)
		}
		c.hub.logger.Debug("WebSocket 連線關閉", "conn_id", c.ID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.hub.logger.Error("設置讀取期限失敗", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("WebSocket 讀取錯誤",
					"error", err,
					"conn_id", c.ID)
			}
			return
		}

		if messageType == websocket.TextMessage {
			c.hub.handle(c, message)
		}
	}
}

// writePump 把 send 裡的訊息寫到客戶端，並定期送出 ping
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Hub 關閉了 channel
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("發送訊息失敗", "conn_id", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
