package transport

import (
	"encoding/json"
	"time"

	"github.com/koopa0/system-design/14-mao-card-game/internal/card"
	"github.com/koopa0/system-design/14-mao-card-game/internal/game"
)

// 客戶端送來的動作
const (
	ActionCreateParty      = "createParty"
	ActionJoinParty        = "joinParty"
	ActionLeaveParty       = "leaveParty"
	ActionStartGame        = "startGame"
	ActionPlayCard         = "playCard"
	ActionDrawCard         = "drawCard"
	ActionGivePenalty      = "givePenalty"
	ActionCallPointOfOrder = "callPointOfOrder"
	ActionEndPointOfOrder  = "endPointOfOrder"
	ActionAddNewRule       = "addNewRule"
	ActionChatMessage      = "chatMessage"
	ActionPing             = "ping"
)

// 伺服器推送的事件
const (
	EventPartyCreated       = "partyCreated"
	EventPartyJoined        = "partyJoined"
	EventPartyLeft          = "partyLeft"
	EventPlayerJoined       = "playerJoined"
	EventPlayerLeft         = "playerLeft"
	EventGameStarted        = "gameStarted"
	EventCardPlayed         = "cardPlayed"
	EventPlayerWon          = "playerWon"
	EventHandUpdate         = "handUpdate"
	EventCardDrawn          = "cardDrawn"
	EventPlayerDrewCard     = "playerDrewCard"
	EventPenaltyGiven       = "penaltyGiven"
	EventPointOfOrderCalled = "pointOfOrderCalled"
	EventPointOfOrderEnded  = "pointOfOrderEnded"
	EventNewRuleAdded       = "newRuleAdded"
	EventChatMessage        = "chatMessage"
	EventError              = "error"
	EventPong               = "pong"
)

// 傳輸層自己的錯誤（沿用引擎的錯誤型別，客戶端看到的格式一致）
var (
	errBadRequest    = &game.Error{Code: "BadRequest", Kind: game.KindValidation, Message: "malformed request"}
	errUnknownAction = &game.Error{Code: "UnknownAction", Kind: game.KindValidation, Message: "unknown action"}
	errNotInRoom     = &game.Error{Code: "NotInRoom", Kind: game.KindLookup, Message: "join a room first"}
	errAlreadyInRoom = &game.Error{Code: "AlreadyInRoom", Kind: game.KindCapacity, Message: "already in a room"}
)

// Envelope 客戶端訊息
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event 伺服器訊息
type Event struct {
	Type string `json:"event"`
	Data any    `json:"data"`
}

type createPartyRequest struct {
	PlayerName string `json:"playerName"`
}

type joinPartyRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type playCardRequest struct {
	Card         card.Card `json:"card"`
	DeclaredSuit card.Suit `json:"declaredSuit,omitempty"`
	SpecialData  struct {
		DeclaredSuit card.Suit `json:"declaredSuit,omitempty"`
	} `json:"specialData"`
}

// declared 宣告的花色，兩個欄位都沒填時回傳 nil
func (r playCardRequest) declared() *card.Suit {
	suit := r.DeclaredSuit
	if suit == "" {
		suit = r.SpecialData.DeclaredSuit
	}
	if suit == "" {
		return nil
	}
	return &suit
}

type givePenaltyRequest struct {
	Receiver string `json:"receiver"`
	Reason   string `json:"reason"`
}

type addRuleRequest struct {
	Rule string `json:"rule"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// 推送內容

type partyPayload struct {
	RoomID    string               `json:"roomId"`
	Players   []game.PlayerSummary `json:"players"`
	GameState *game.PublicView     `json:"gameState,omitempty"`
}

type playerChangePayload struct {
	PlayerName string               `json:"playerName"`
	Players    []game.PlayerSummary `json:"players"`
}

type gameStartedPayload struct {
	Hand      []card.Card     `json:"hand"`
	GameState game.PublicView `json:"gameState"`
}

type cardPlayedPayload struct {
	Player    string          `json:"player"`
	Card      card.Card       `json:"card"`
	GameState game.PublicView `json:"gameState"`
}

type playerWonPayload struct {
	Winner    string          `json:"winner"`
	GameState game.PublicView `json:"gameState"`
}

type handPayload struct {
	Hand []card.Card `json:"hand"`
}

type cardDrawnPayload struct {
	Card card.Card   `json:"card"`
	Hand []card.Card `json:"hand"`
}

type playerActionPayload struct {
	Player    string          `json:"player"`
	GameState game.PublicView `json:"gameState"`
}

type penaltyPayload struct {
	game.Penalty
	CardGranted bool            `json:"cardGranted"`
	GameState   game.PublicView `json:"gameState"`
}

type gameStatePayload struct {
	GameState game.PublicView `json:"gameState"`
}

type rulePayload struct {
	Creator   string `json:"creator"`
	RuleCount int    `json:"ruleCount"`
}

type chatPayload struct {
	Player    string    `json:"player"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type errorPayload struct {
	Code    game.Code `json:"code"`
	Message string    `json:"message"`
}
