package game

import (
	"github.com/koopa0/system-design/14-mao-card-game/internal/card"
)

// PlayerSummary 公開的玩家資訊（不含手牌）
type PlayerSummary struct {
	Name      string `json:"name"`
	IsHost    bool   `json:"isHost"`
	CardCount int    `json:"cardCount"`
}

// PublicView 所有玩家都看得到的狀態
//
// 永遠不包含任何手牌與抽牌堆內容；自訂規則只給數量。
type PublicView struct {
	RoomID             string          `json:"roomId"`
	Players            []PlayerSummary `json:"players"`
	CurrentPlayer      string          `json:"currentPlayer,omitempty"`
	DiscardPile        []card.Card     `json:"discardPile"`
	GameActive         bool            `json:"gameActive"`
	PenaltyLog         []Penalty       `json:"penaltyLog"`
	PointOfOrderActive bool            `json:"pointOfOrderActive"`
	PointOfOrderCaller string          `json:"pointOfOrderCaller,omitempty"`
	ChatMuted          bool            `json:"chatMuted"`
	DeclaredSuit       *card.Suit      `json:"declaredSuit"`
	CustomRuleCount    int             `json:"customRuleCount"`
	Winner             string          `json:"winner,omitempty"`
}

// PrivateView 單一玩家的手牌，只能送到該玩家自己的連線
type PrivateView struct {
	Hand      []card.Card `json:"hand"`
	CardCount int         `json:"cardCount"`
}

// PublicView 產生公開狀態快照（深拷貝，離開鎖之後仍可安全使用）
func (s *Session) PublicView() PublicView {
	v := PublicView{
		RoomID:             s.RoomID,
		Players:            s.Roster(),
		DiscardPile:        card.Clone(s.DiscardPile),
		GameActive:         s.GameActive,
		PenaltyLog:         append([]Penalty(nil), s.PenaltyLog...),
		PointOfOrderActive: s.PointOfOrderActive,
		PointOfOrderCaller: s.PointOfOrderCaller,
		ChatMuted:          s.ChatMuted,
		CustomRuleCount:    len(s.CustomRules),
		Winner:             s.Winner,
	}
	if v.PenaltyLog == nil {
		v.PenaltyLog = []Penalty{}
	}
	if p := s.CurrentPlayer(); p != nil {
		v.CurrentPlayer = p.Name
	}
	if s.DeclaredSuit != nil {
		suit := *s.DeclaredSuit
		v.DeclaredSuit = &suit
	}
	return v
}

// PrivateView 產生單一玩家的手牌快照
func (s *Session) PrivateView(playerName string) (PrivateView, bool) {
	p, ok := s.Player(playerName)
	if !ok {
		return PrivateView{}, false
	}
	return PrivateView{
		Hand:      card.Clone(p.Hand),
		CardCount: p.CardCount(),
	}, true
}

// PrivateViews 每位玩家的手牌快照，key 為玩家名稱
func (s *Session) PrivateViews() map[string]PrivateView {
	out := make(map[string]PrivateView, len(s.Players))
	for _, p := range s.Players {
		out[p.Name] = PrivateView{
			Hand:      card.Clone(p.Hand),
			CardCount: p.CardCount(),
		}
	}
	return out
}

// Roster 依出牌順序的玩家摘要
func (s *Session) Roster() []PlayerSummary {
	out := make([]PlayerSummary, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, PlayerSummary{
			Name:      p.Name,
			IsHost:    p.IsHost,
			CardCount: p.CardCount(),
		})
	}
	return out
}
