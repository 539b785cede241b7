// Package game 實作 Mao 牌局的權威狀態機。
//
// Session 本身不是併發安全的：同一個房間的操作必須由呼叫端序列化
// （見 room.Manager）。每個操作要嘛完整套用，要嘛回傳錯誤且不改變任何狀態。
package game

import (
	"time"

	"github.com/koopa0/system-design/14-mao-card-game/internal/card"
)

const (
	// MaxPlayers 每房間最多玩家數
	MaxPlayers = 10
	// MinPlayers 開局最少玩家數
	MinPlayers = 2
	// HandSize 開局每人發牌數
	HandSize = 4
)

// Player 房間內的玩家
//
// 連線對應（player → connection）由傳輸層自行維護，不放在 session 裡。
type Player struct {
	Name   string
	IsHost bool
	Hand   []card.Card
}

// CardCount 手牌數（永遠等於 len(Hand)）
func (p *Player) CardCount() int {
	return len(p.Hand)
}

// Penalty 罰牌紀錄
type Penalty struct {
	Giver     string    `json:"giver"`
	Receiver  string    `json:"receiver"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// CustomRule 自訂規則（自由文字，由玩家自行執行）
type CustomRule struct {
	Creator   string    `json:"creator"`
	Rule      string    `json:"rule"`
	Timestamp time.Time `json:"timestamp"`
}

// Session 一局遊戲的完整狀態
//
// 狀態機：
//
//	Lobby（GameActive=false）→ InPlay（GameActive=true）→ Finished（Winner != ""）
//	                ↑___________________ StartGame 重新發牌 ____________|
//
// 守恆：Deck + DiscardPile + 所有手牌 永遠剛好 52 張不重複的牌。
// 建立 session 時整副牌就放在抽牌堆（還在盒子裡），只有在牌局進行中
// 才會離開抽牌堆（發牌、抽牌、罰牌）。
//
// 牌堆方向：
//   - Deck 頂端在切片尾端（pop 為 O(1)）
//   - DiscardPile 頂端在索引 0（最新打出的牌）
type Session struct {
	RoomID             string
	Players            []*Player // 順序即出牌順序
	Deck               []card.Card
	DiscardPile        []card.Card
	CurrentPlayerIndex int
	GameActive         bool
	DeclaredSuit       *card.Suit
	ChatMuted          bool
	PointOfOrderActive bool
	PointOfOrderCaller string
	PenaltyLog         []Penalty
	CustomRules        []CustomRule
	Winner             string
	CreatedAt          time.Time

	rng card.Rand
	now func() time.Time
}

// Option session 選項
type Option func(*Session)

// WithRand 指定洗牌亂數來源（測試用固定種子）
func WithRand(rng card.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

// WithClock 指定時間來源
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession 建立新的 session，房主是唯一的玩家
func NewSession(roomID, hostName string, opts ...Option) (*Session, error) {
	if hostName == "" {
		return nil, ErrNameInvalid
	}

	s := &Session{
		RoomID: roomID,
		Players: []*Player{{
			Name:   hostName,
			IsHost: true,
		}},
		Deck: card.NewDeck(),
		rng:  card.DefaultRand,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.CreatedAt = s.now()

	return s, nil
}

// AddPlayer 加入玩家
//
// 玩家名稱區分大小寫。
func (s *Session) AddPlayer(name string) error {
	if name == "" {
		return ErrNameInvalid
	}
	if len(s.Players) >= MaxPlayers {
		return ErrRoomFull
	}
	if s.findPlayer(name) >= 0 {
		return ErrNameTaken
	}

	s.Players = append(s.Players, &Player{Name: name})
	return nil
}

// RemovePlayer 移除玩家
//
// 離開者的手牌放回抽牌堆底部（守恆）；若輪到的玩家在離開者之後，
// 索引往前移一格以維持原本的出牌順序。房主離開時由剩餘的第一位接任。
func (s *Session) RemovePlayer(name string) error {
	idx := s.findPlayer(name)
	if idx < 0 {
		return ErrPlayerNotFound
	}

	leaving := s.Players[idx]
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)

	if len(leaving.Hand) > 0 {
		s.Deck = append(card.Clone(leaving.Hand), s.Deck...)
		leaving.Hand = nil
	}

	switch {
	case len(s.Players) == 0:
		s.CurrentPlayerIndex = 0
	case idx < s.CurrentPlayerIndex:
		s.CurrentPlayerIndex--
	case s.CurrentPlayerIndex >= len(s.Players):
		s.CurrentPlayerIndex = 0
	}

	if leaving.IsHost && len(s.Players) > 0 {
		s.Players[0].IsHost = true
	}
	return nil
}

// Player 依名稱取得玩家
func (s *Session) Player(name string) (*Player, bool) {
	idx := s.findPlayer(name)
	if idx < 0 {
		return nil, false
	}
	return s.Players[idx], true
}

// Host 房主
func (s *Session) Host() *Player {
	for _, p := range s.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// CurrentPlayer 目前輪到的玩家（房間為空時回傳 nil）
func (s *Session) CurrentPlayer() *Player {
	if len(s.Players) == 0 {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

// Empty 房間是否沒有玩家
func (s *Session) Empty() bool {
	return len(s.Players) == 0
}

// TotalCards 所有容器內的牌數，正常情況永遠是 52
func (s *Session) TotalCards() int {
	n := len(s.Deck) + len(s.DiscardPile)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

func (s *Session) findPlayer(name string) int {
	for i, p := range s.Players {
		if p.Name == name {
			return i
		}
	}
	return -1
}
