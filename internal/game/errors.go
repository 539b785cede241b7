package game

import "errors"

// Kind 錯誤分類
//
// 所有引擎錯誤都是可恢復的：操作失敗時 session 狀態不變，
// 錯誤只回報給發出請求的玩家。
type Kind int

const (
	KindUnknown            Kind = iota
	KindValidation              // 請求被拒絕（非法出牌、不是你的回合…）
	KindLookup                  // 房間或玩家不存在
	KindCapacity                // 前置條件不成立（房間已滿、名稱重複…）
	KindResourceExhaustion      // 抽牌堆與棄牌堆都不夠
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindLookup:
		return "lookup"
	case KindCapacity:
		return "capacity"
	case KindResourceExhaustion:
		return "resource_exhaustion"
	}
	return "unknown"
}

// Code 穩定的錯誤代碼，傳輸層直接送給客戶端
type Code string

// Error 引擎錯誤
type Error struct {
	Code    Code
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNameInvalid      = &Error{Code: "NameInvalid", Kind: KindCapacity, Message: "player name is required"}
	ErrRoomNotFound     = &Error{Code: "RoomNotFound", Kind: KindLookup, Message: "room not found"}
	ErrRoomFull         = &Error{Code: "RoomFull", Kind: KindCapacity, Message: "room is full"}
	ErrNameTaken        = &Error{Code: "NameTaken", Kind: KindCapacity, Message: "name already taken"}
	ErrNotHost          = &Error{Code: "NotHost", Kind: KindValidation, Message: "only host can start the game"}
	ErrNotEnoughPlayers = &Error{Code: "NotEnoughPlayers", Kind: KindValidation, Message: "need at least 2 players"}
	ErrPlayerNotFound   = &Error{Code: "PlayerNotFound", Kind: KindLookup, Message: "player not found"}
	ErrCardNotInHand    = &Error{Code: "CardNotInHand", Kind: KindValidation, Message: "card not in hand"}
	ErrIllegalPlay      = &Error{Code: "IllegalPlay", Kind: KindValidation, Message: "cannot play this card"}
	ErrInvalidSuit      = &Error{Code: "InvalidSuit", Kind: KindValidation, Message: "declared suit is not a valid suit"}
	ErrNotYourTurn      = &Error{Code: "NotYourTurn", Kind: KindValidation, Message: "not your turn"}
	ErrNoCardsAvailable = &Error{Code: "NoCardsAvailable", Kind: KindResourceExhaustion, Message: "no cards available"}
	ErrAlreadyActive    = &Error{Code: "AlreadyActive", Kind: KindCapacity, Message: "point of order already active"}
	ErrChatMuted        = &Error{Code: "ChatMuted", Kind: KindValidation, Message: "chat is muted during gameplay"}
)

// KindOf 取得錯誤分類（支援 %w 包裝）
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf 取得錯誤代碼，非引擎錯誤回傳 "Internal"
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "Internal"
}
