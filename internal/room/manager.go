// Package room 管理房間代碼到 session 的對應。
//
// Manager 是唯一能建立、查找、刪除 session 的地方；
// 對 session 的所有修改都透過 Do 在該房間的鎖內進行。
package room

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/koopa0/system-design/14-mao-card-game/internal/game"
)

// Config 房間管理器配置
type Config struct {
	// SweepInterval 過期掃描間隔
	SweepInterval time.Duration
	// MaxAge 房間最長存活時間（從建立開始算）
	MaxAge time.Duration
}

// DefaultConfig 每小時掃描一次，房間最多存在 24 小時
func DefaultConfig() Config {
	return Config{
		SweepInterval: time.Hour,
		MaxAge:        24 * time.Hour,
	}
}

// Option 管理器選項
type Option func(*Manager)

// WithSessionOptions 建立 session 時套用的選項（例如固定亂數種子）
func WithSessionOptions(opts ...game.Option) Option {
	return func(m *Manager) {
		m.sessionOpts = append(m.sessionOpts, opts...)
	}
}

// WithCodeGenerator 替換房間代碼產生器
func WithCodeGenerator(gen func() string) Option {
	return func(m *Manager) {
		m.generateCode = gen
	}
}

// WithClock 替換時間來源（過期判斷用）
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager 房間管理器
//
// 鎖順序：m.mu → room.mu。Do 只在釋放 m.mu 之後才拿 room.mu，
// 刪除房間時則先拿 m.mu 再拿 room.mu，兩者不會形成循環。
type Manager struct {
	rooms  map[string]*Room // roomID -> Room
	mu     sync.RWMutex
	logger *slog.Logger
	cfg    Config
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	sessionOpts  []game.Option
	generateCode func() string
	now          func() time.Time
	onSweep      []func(roomID string)
}

// NewManager 創建房間管理器並啟動過期清理 goroutine
func NewManager(logger *slog.Logger, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		rooms:        make(map[string]*Room),
		logger:       logger,
		cfg:          cfg,
		stopCh:       make(chan struct{}),
		generateCode: generateCode,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if cfg.SweepInterval > 0 {
		m.wg.Add(1)
		go m.cleanupLoop()
	}

	return m
}

// CreateRoom 創建房間，房主為唯一玩家
func (m *Manager) CreateRoom(hostName string) (string, []game.PlayerSummary, error) {
	if hostName == "" {
		return "", nil, game.ErrNameInvalid
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	roomID := m.generateCode()
	for _, exists := m.rooms[roomID]; exists; _, exists = m.rooms[roomID] {
		roomID = m.generateCode()
	}

	opts := append([]game.Option{game.WithClock(m.now)}, m.sessionOpts...)
	s, err := game.NewSession(roomID, hostName, opts...)
	if err != nil {
		return "", nil, err
	}
	m.rooms[roomID] = newRoom(s)

	m.logger.Info("房間已創建",
		"room_id", roomID,
		"host", hostName)

	return roomID, s.Roster(), nil
}

// JoinRoom 加入房間
//
// onJoin 不為 nil 時在房間鎖內呼叫（例如綁定連線、送出目前牌局給新玩家），
// 保證在這之後套用的操作看得到新玩家。
func (m *Manager) JoinRoom(roomID, playerName string, onJoin func(s *game.Session)) ([]game.PlayerSummary, error) {
	var roster []game.PlayerSummary
	err := m.Do(roomID, func(s *game.Session) error {
		if err := s.AddPlayer(playerName); err != nil {
			return err
		}
		roster = s.Roster()
		if onJoin != nil {
			onJoin(s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("玩家加入房間",
		"room_id", roomID,
		"player", playerName)

	return roster, nil
}

// LeaveRoom 離開房間
//
// 玩家走光時房間立即刪除（deleted=true）；房主離開時由下一位接任。
func (m *Manager) LeaveRoom(roomID, playerName string) (roster []game.PlayerSummary, deleted bool, err error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return nil, false, err
	}

	err = r.with(func(s *game.Session) error {
		if err := s.RemovePlayer(playerName); err != nil {
			return err
		}
		roster = s.Roster()
		if s.Empty() {
			r.closed = true
			deleted = true
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	m.logger.Info("玩家離開房間",
		"room_id", roomID,
		"player", playerName)

	if deleted {
		m.removeRoom(roomID, r)
		m.logger.Info("房間已刪除（沒有玩家）", "room_id", roomID)
	}

	return roster, deleted, nil
}

// Do 在房間鎖內對 session 執行 fn
//
// 同一房間的操作依序套用；fn 回傳錯誤時呼叫端負責確保沒有部分修改
// （game.Session 的操作本身保證這一點）。
func (m *Manager) Do(roomID string, fn func(s *game.Session) error) error {
	r, err := m.lookup(roomID)
	if err != nil {
		return err
	}
	return r.with(fn)
}

// SweepStale 刪除建立時間超過 maxAge 的房間，回傳刪除數量
//
// OnSweep 的通知在 Manager 鎖內進行，代碼在通知完成前不會被新房間重用。
func (m *Manager) SweepStale(maxAge time.Duration) int {
	now := m.now()

	m.mu.Lock()
	var removed []string
	for roomID, r := range m.rooms {
		// 拿到房間鎖才刪除，避免和進行中的操作競爭
		r.mu.Lock()
		if now.Sub(r.session.CreatedAt) > maxAge {
			r.closed = true
			delete(m.rooms, roomID)
			removed = append(removed, roomID)
			m.logger.Info("房間已過期清理", "room_id", roomID)
		}
		r.mu.Unlock()
	}
	for _, roomID := range removed {
		for _, fn := range m.onSweep {
			fn(roomID)
		}
	}
	m.mu.Unlock()

	return len(removed)
}

// OnSweep 註冊房間過期清理後的通知（例如讓傳輸層解除連線綁定）
//
// fn 在 Manager 鎖內呼叫，不可再呼叫 Manager。
func (m *Manager) OnSweep(fn func(roomID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSweep = append(m.onSweep, fn)
}

// Count 目前房間數
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Stop 停止管理器
func (m *Manager) Stop() {
	m.once.Do(func() {
		close(m.stopCh)
	})
	m.wg.Wait()

	m.logger.Info("房間管理器已停止")
}

func (m *Manager) lookup(roomID string) (*Room, error) {
	m.mu.RLock()
	r, exists := m.rooms[roomID]
	m.mu.RUnlock()

	if !exists {
		return nil, game.ErrRoomNotFound
	}
	return r, nil
}

// removeRoom 只在 map 裡仍是同一個房間時才刪除
func (m *Manager) removeRoom(roomID string, r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.rooms[roomID]; exists && current == r {
		delete(m.rooms, roomID)
	}
}

// cleanupLoop 定期清理過期房間
func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.SweepStale(m.cfg.MaxAge); n > 0 {
				m.logger.Info("過期房間清理完成", "removed", n)
			}
		case <-m.stopCh:
			return
		}
	}
}

// codeChars 房間代碼字元集
const codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateCode 生成 6 碼大寫英數房間代碼
func generateCode() string {
	code, err := readCode(rand.Reader)
	if err != nil {
		// 隨機讀取失敗時退回時間戳
		return fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF)
	}
	return code
}

// readCode 從 src 讀取位元組產生代碼
//
// 只接受小於 252（36 的倍數）的位元組，每個字元機率相同。
func readCode(src io.Reader) (string, error) {
	const limit = 256 - 256%len(codeChars)

	code := make([]byte, 0, 6)
	buf := make([]byte, 8)
	for len(code) < cap(code) {
		n, err := io.ReadFull(src, buf)
		if err != nil && n == 0 {
			return "", err
		}
		for _, b := range buf[:n] {
			if int(b) >= limit || len(code) == cap(code) {
				continue
			}
			code = append(code, codeChars[int(b)%len(codeChars)])
		}
		if err != nil && len(code) < cap(code) {
			return "", err
		}
	}
	return string(code), nil
}
