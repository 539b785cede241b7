// Package card 定義撲克牌的值物件與牌堆操作。
//
// 一副牌固定 52 張（4 花色 × 13 點數），卡牌本身不可變，
// 相等性由 (花色, 點數) 決定。
package card

import (
	"fmt"
	"math/rand/v2"
)

// Suit 花色
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Rank 點數
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J" // 萬用牌
	Queen Rank = "Q"
	King  Rank = "K"
)

// DeckSize 一副牌的張數
const DeckSize = 52

// Suits 所有花色（建牌順序）
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Ranks 所有點數（建牌順序）
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

// Card 一張牌
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// New 建立一張牌
func New(s Suit, r Rank) Card {
	return Card{Suit: s, Rank: r}
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// Valid 檢查花色與點數是否合法（客戶端送來的牌可能是任意字串）
func (c Card) Valid() bool {
	return c.Suit.Valid() && c.Rank.Valid()
}

// IsWild Jack 永遠可以出
func (c Card) IsWild() bool {
	return c.Rank == Jack
}

// Valid 檢查花色是否合法
func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// Valid 檢查點數是否合法
func (r Rank) Valid() bool {
	for _, rank := range Ranks {
		if r == rank {
			return true
		}
	}
	return false
}

// NewDeck 建立一副未洗的 52 張牌
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Rand 洗牌所需的亂數來源，*rand.Rand 即滿足
type Rand interface {
	IntN(n int) int
}

// globalRand 使用 math/rand/v2 的全域來源（併發安全）
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand 預設亂數來源
var DefaultRand Rand = globalRand{}

// Shuffle 原地洗牌（Fisher–Yates），每種排列機率相同
//
// rng 為 nil 時使用 DefaultRand。
func Shuffle(cards []Card, rng Rand) {
	if rng == nil {
		rng = DefaultRand
	}
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// IndexOf 回傳第一張相同 (花色, 點數) 的牌的位置，找不到回傳 -1
func IndexOf(cards []Card, c Card) int {
	for i, have := range cards {
		if have == c {
			return i
		}
	}
	return -1
}

// Clone 複製一份切片（投影給外部時避免共享底層陣列）
func Clone(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
