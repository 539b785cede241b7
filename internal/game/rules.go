package game

import (
	"github.com/koopa0/system-design/14-mao-card-game/internal/card"
)

// PlayResult 出牌結果
type PlayResult struct {
	Card   card.Card
	Winner string // 非空表示該玩家出完手牌
}

// StartGame 開始新的一局（只有房主可以）
//
// 收回所有牌重新建一副 52 張、洗牌、依出牌順序每人發 4 張，
// 翻一張作為棄牌堆唯一的牌。
func (s *Session) StartGame(requester string) error {
	p, ok := s.Player(requester)
	if !ok || !p.IsHost {
		return ErrNotHost
	}
	if len(s.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	s.Deck = card.NewDeck()
	card.Shuffle(s.Deck, s.rng)

	for _, player := range s.Players {
		player.Hand = make([]card.Card, 0, HandSize)
		for i := 0; i < HandSize; i++ {
			player.Hand = append(player.Hand, s.pop())
		}
	}
	s.DiscardPile = []card.Card{s.pop()}

	s.CurrentPlayerIndex = 0
	s.GameActive = true
	s.ChatMuted = true
	s.DeclaredSuit = nil
	s.Winner = ""

	return nil
}

// IsLegalPlay 判斷出牌是否合法
//
//	effectiveSuit = DeclaredSuit ?? 棄牌堆頂的花色
//	合法 ⇔ 花色相同 || 點數與棄牌堆頂相同 || Jack
func (s *Session) IsLegalPlay(playerName string, c card.Card) bool {
	if !s.GameActive || len(s.DiscardPile) == 0 {
		return false
	}
	current := s.CurrentPlayer()
	if current == nil || current.Name != playerName {
		return false
	}

	top := s.DiscardPile[0]
	effective := s.EffectiveSuit()

	return c.Suit == effective || c.Rank == top.Rank || c.IsWild()
}

// EffectiveSuit 目前必須跟的花色（棄牌堆為空時回傳空字串）
func (s *Session) EffectiveSuit() card.Suit {
	if s.DeclaredSuit != nil {
		return *s.DeclaredSuit
	}
	if len(s.DiscardPile) == 0 {
		return ""
	}
	return s.DiscardPile[0].Suit
}

// PlayCard 出牌
//
// 驗證順序：玩家存在 → 牌在手上 → 出牌合法，全部通過才修改狀態。
// 每次出牌都會清除先前宣告的花色；只有打出 Jack 且有宣告時才設定新的。
// 手牌出完即獲勝，回合不再前進，引擎不會自動回到 Lobby。
func (s *Session) PlayCard(playerName string, c card.Card, declared *card.Suit) (PlayResult, error) {
	p, ok := s.Player(playerName)
	if !ok {
		return PlayResult{}, ErrPlayerNotFound
	}
	idx := card.IndexOf(p.Hand, c)
	if idx < 0 {
		return PlayResult{}, ErrCardNotInHand
	}
	if !s.IsLegalPlay(playerName, c) {
		return PlayResult{}, ErrIllegalPlay
	}
	if c.IsWild() && declared != nil && !declared.Valid() {
		return PlayResult{}, ErrInvalidSuit
	}

	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	s.DiscardPile = append([]card.Card{c}, s.DiscardPile...)

	if c.IsWild() && declared != nil {
		suit := *declared
		s.DeclaredSuit = &suit
	} else {
		s.DeclaredSuit = nil
	}

	if len(p.Hand) == 0 {
		s.Winner = playerName
		return PlayResult{Card: c, Winner: playerName}, nil
	}

	s.nextTurn()
	return PlayResult{Card: c}, nil
}

// DrawCard 抽一張牌
//
// 抽牌不會推進回合。抽牌堆空時，若棄牌堆多於一張，
// 保留頂牌、其餘洗回抽牌堆；否則回傳 ErrNoCardsAvailable。
func (s *Session) DrawCard(playerName string) (card.Card, error) {
	p, ok := s.Player(playerName)
	if !ok {
		return card.Card{}, ErrPlayerNotFound
	}
	current := s.CurrentPlayer()
	if !s.GameActive || current == nil || current.Name != playerName {
		return card.Card{}, ErrNotYourTurn
	}
	if len(s.Deck) == 0 && !s.reshuffle() {
		return card.Card{}, ErrNoCardsAvailable
	}

	drawn := s.pop()
	p.Hand = append(p.Hand, drawn)
	return drawn, nil
}

// reshuffle 把棄牌堆除頂牌外全部洗回抽牌堆，棄牌堆不足兩張時不動並回傳 false
func (s *Session) reshuffle() bool {
	if len(s.DiscardPile) <= 1 {
		return false
	}

	top := s.DiscardPile[0]
	s.Deck = append(s.Deck, s.DiscardPile[1:]...)
	s.DiscardPile = []card.Card{top}
	card.Shuffle(s.Deck, s.rng)
	return true
}

// pop 從抽牌堆頂取一張，呼叫前必須確認抽牌堆非空
func (s *Session) pop() card.Card {
	last := len(s.Deck) - 1
	c := s.Deck[last]
	s.Deck = s.Deck[:last]
	return c
}

func (s *Session) nextTurn() {
	s.CurrentPlayerIndex = (s.CurrentPlayerIndex + 1) % len(s.Players)
}
