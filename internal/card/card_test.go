package card_test

import (
	"math/rand/v2"
	"testing"

	"github.com/koopa0/system-design/14-mao-card-game/internal/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDeck 測試建立整副牌
func TestNewDeck(t *testing.T) {
	deck := card.NewDeck()
	require.Len(t, deck, card.DeckSize)

	seen := make(map[card.Card]bool)
	for _, c := range deck {
		assert.True(t, c.Valid(), "invalid card %v", c)
		assert.False(t, seen[c], "duplicate card %v", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

// TestShuffle_Conservation 洗牌不增減牌
func TestShuffle_Conservation(t *testing.T) {
	deck := card.NewDeck()
	rng := rand.New(rand.NewPCG(1, 2))

	card.Shuffle(deck, rng)

	require.Len(t, deck, card.DeckSize)
	assert.ElementsMatch(t, card.NewDeck(), deck)
	assert.NotEqual(t, card.NewDeck(), deck, "a seeded shuffle of 52 cards should move something")
}

// TestShuffle_Deterministic 相同種子產生相同結果
func TestShuffle_Deterministic(t *testing.T) {
	a := card.NewDeck()
	b := card.NewDeck()

	card.Shuffle(a, rand.New(rand.NewPCG(7, 7)))
	card.Shuffle(b, rand.New(rand.NewPCG(7, 7)))

	assert.Equal(t, a, b)
}

// TestShuffle_Uniform 三張牌的 6 種排列出現頻率應接近
func TestShuffle_Uniform(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping distribution test in short mode")
	}

	rng := rand.New(rand.NewPCG(42, 1024))
	counts := make(map[[3]card.Card]int)
	const trials = 60000

	for i := 0; i < trials; i++ {
		cards := []card.Card{
			card.New(card.Hearts, card.Ace),
			card.New(card.Clubs, card.Two),
			card.New(card.Spades, card.Three),
		}
		card.Shuffle(cards, rng)
		counts[[3]card.Card{cards[0], cards[1], cards[2]}]++
	}

	require.Len(t, counts, 6)
	for perm, n := range counts {
		// 期望值 10000，容許 ±5%
		assert.InDelta(t, trials/6, n, trials/6*0.05, "permutation %v", perm)
	}
}

// TestShuffle_SmallInputs 空切片與單張牌
func TestShuffle_SmallInputs(t *testing.T) {
	var empty []card.Card
	card.Shuffle(empty, nil)
	assert.Empty(t, empty)

	one := []card.Card{card.New(card.Hearts, card.King)}
	card.Shuffle(one, nil)
	assert.Equal(t, card.New(card.Hearts, card.King), one[0])
}

// TestCard_Valid 驗證客戶端送來的牌
func TestCard_Valid(t *testing.T) {
	tests := []struct {
		name string
		card card.Card
		want bool
	}{
		{"ace of hearts", card.New(card.Hearts, card.Ace), true},
		{"ten of spades", card.New(card.Spades, card.Ten), true},
		{"unknown suit", card.Card{Suit: "stars", Rank: card.Ace}, false},
		{"unknown rank", card.Card{Suit: card.Clubs, Rank: "11"}, false},
		{"lowercase rank", card.Card{Suit: card.Clubs, Rank: "j"}, false},
		{"zero value", card.Card{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.card.Valid())
		})
	}
}

// TestIndexOf 依 (花色, 點數) 尋找
func TestIndexOf(t *testing.T) {
	hand := []card.Card{
		card.New(card.Hearts, card.Three),
		card.New(card.Spades, card.Jack),
		card.New(card.Hearts, card.Three),
	}

	assert.Equal(t, 0, card.IndexOf(hand, card.New(card.Hearts, card.Three)))
	assert.Equal(t, 1, card.IndexOf(hand, card.New(card.Spades, card.Jack)))
	assert.Equal(t, -1, card.IndexOf(hand, card.New(card.Clubs, card.Jack)))
	assert.True(t, card.New(card.Spades, card.Jack).IsWild())
	assert.False(t, card.New(card.Spades, card.Queen).IsWild())
}

// TestClone 複製後互不影響
func TestClone(t *testing.T) {
	src := []card.Card{card.New(card.Hearts, card.Ace)}
	dst := card.Clone(src)
	dst[0] = card.New(card.Clubs, card.King)

	assert.Equal(t, card.New(card.Hearts, card.Ace), src[0])
	assert.Equal(t, "A of hearts", src[0].String())
}
