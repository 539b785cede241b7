package game_test

import (
	"testing"

	"github.com/koopa0/system-design/14-mao-card-game/internal/card"
	"github.com/koopa0/system-design/14-mao-card-game/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSession_GivePenalty 測試罰牌
func TestSession_GivePenalty(t *testing.T) {
	t.Run("card transferred from draw pile", func(t *testing.T) {
		s := newActiveSession(t, "A", "B")
		top := s.Deck[len(s.Deck)-1]

		res, err := s.GivePenalty("A", "B", "talking")

		require.NoError(t, err)
		assert.True(t, res.Granted)
		assert.Equal(t, game.Penalty{Giver: "A", Receiver: "B", Reason: "talking", Timestamp: testEpoch}, res.Penalty)
		assert.Equal(t, top, s.Players[1].Hand[len(s.Players[1].Hand)-1])
		assert.Len(t, s.PenaltyLog, 1)
		assertConservation(t, s)
	})

	t.Run("reshuffles discard pile when deck empty", func(t *testing.T) {
		s := newActiveSession(t, "A", "B")
		top := s.DiscardPile[0]
		s.DiscardPile = append(s.DiscardPile, s.Deck...)
		s.Deck = nil

		res, err := s.GivePenalty("A", "B", "failure to say thank you")

		require.NoError(t, err)
		assert.True(t, res.Granted)
		assert.Equal(t, []card.Card{top}, s.DiscardPile)
		assertConservation(t, s)
	})

	t.Run("no card available is still logged", func(t *testing.T) {
		s := newActiveSession(t, "A", "B")
		s.Players[0].Hand = append(s.Players[0].Hand, s.Deck...)
		s.Deck = nil
		handBefore := len(s.Players[1].Hand)

		res, err := s.GivePenalty("A", "B", "bad play")

		require.NoError(t, err)
		assert.False(t, res.Granted)
		assert.Len(t, s.Players[1].Hand, handBefore)
		assert.Len(t, s.PenaltyLog, 1)
		assertConservation(t, s)
	})

	t.Run("lobby penalty logs without card", func(t *testing.T) {
		s := newSession(t, "A", "B")

		res, err := s.GivePenalty("A", "B", "early")

		require.NoError(t, err)
		assert.False(t, res.Granted)
		assert.Empty(t, s.Players[1].Hand)
		assert.Len(t, s.PenaltyLog, 1)
	})

	t.Run("unknown receiver", func(t *testing.T) {
		s := newActiveSession(t, "A", "B")

		_, err := s.GivePenalty("A", "Z", "ghost")

		assert.ErrorIs(t, err, game.ErrPlayerNotFound)
		assert.Empty(t, s.PenaltyLog)
	})

	t.Run("log is append only and ordered", func(t *testing.T) {
		s := newActiveSession(t, "A", "B")
		for _, reason := range []string{"one", "two", "three"} {
			_, err := s.GivePenalty("B", "A", reason)
			require.NoError(t, err)
		}

		require.Len(t, s.PenaltyLog, 3)
		assert.Equal(t, "one", s.PenaltyLog[0].Reason)
		assert.Equal(t, "three", s.PenaltyLog[2].Reason)
	})
}

// TestSession_PointOfOrder 測試 point of order
func TestSession_PointOfOrder(t *testing.T) {
	s := newActiveSession(t, "A", "B")
	require.True(t, s.ChatMuted)
	assert.ErrorIs(t, s.CanChat(), game.ErrChatMuted)

	require.NoError(t, s.CallPointOfOrder("B"))
	assert.True(t, s.PointOfOrderActive)
	assert.Equal(t, "B", s.PointOfOrderCaller)
	assert.False(t, s.ChatMuted)
	assert.NoError(t, s.CanChat())

	err := s.CallPointOfOrder("A")
	assert.ErrorIs(t, err, game.ErrAlreadyActive)
	assert.Equal(t, "B", s.PointOfOrderCaller)

	s.EndPointOfOrder()
	assert.False(t, s.PointOfOrderActive)
	assert.Empty(t, s.PointOfOrderCaller)
	assert.True(t, s.ChatMuted)
	assert.ErrorIs(t, s.CanChat(), game.ErrChatMuted)

	// 冪等
	s.EndPointOfOrder()
	assert.False(t, s.PointOfOrderActive)
	assert.True(t, s.ChatMuted)
}

// TestSession_ChatInLobby 大廳可以聊天
func TestSession_ChatInLobby(t *testing.T) {
	s := newSession(t, "A", "B")
	assert.NoError(t, s.CanChat())

	require.NoError(t, s.CallPointOfOrder("A"))
	assert.False(t, s.ChatMuted)

	// 大廳結束 point of order 不會把聊天靜音
	s.EndPointOfOrder()
	assert.False(t, s.PointOfOrderActive)
	assert.Empty(t, s.PointOfOrderCaller)
	assert.False(t, s.ChatMuted)
	assert.NoError(t, s.CanChat())
}

// TestSession_AddCustomRule 自訂規則只追加
func TestSession_AddCustomRule(t *testing.T) {
	s := newSession(t, "A", "B")

	assert.Equal(t, 1, s.AddCustomRule("A", "no talking"))
	assert.Equal(t, 2, s.AddCustomRule("B", ""))

	require.Len(t, s.CustomRules, 2)
	assert.Equal(t, game.CustomRule{Creator: "A", Rule: "no talking", Timestamp: testEpoch}, s.CustomRules[0])
	assert.Equal(t, 2, s.PublicView().CustomRuleCount)
}
