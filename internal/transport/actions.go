package transport

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/koopa0/system-design/14-mao-card-game/internal/game"
)

// handle 解析並執行一則客戶端訊息
//
// 錯誤只回給發出動作的連線，不會廣播。
func (h *Hub) handle(c *Connection, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.replyError(c, errBadRequest)
		return
	}

	var err error
	switch env.Type {
	case ActionCreateParty:
		err = h.createParty(c, env.Data)
	case ActionJoinParty:
		err = h.joinParty(c, env.Data)
	case ActionLeaveParty:
		err = h.leaveParty(c)
	case ActionStartGame:
		err = h.startGame(c)
	case ActionPlayCard:
		err = h.playCard(c, env.Data)
	case ActionDrawCard:
		err = h.drawCard(c)
	case ActionGivePenalty:
		err = h.givePenalty(c, env.Data)
	case ActionCallPointOfOrder:
		err = h.callPointOfOrder(c)
	case ActionEndPointOfOrder:
		err = h.endPointOfOrder(c)
	case ActionAddNewRule:
		err = h.addNewRule(c, env.Data)
	case ActionChatMessage:
		err = h.chatMessage(c, env.Data)
	case ActionPing:
		h.reply(c, EventPong, nil)
	default:
		err = errUnknownAction
	}

	if err != nil {
		// 房間已被清理或座位已不屬於這條連線：解除綁定，讓它可以再建立或加入房間
		if errors.Is(err, game.ErrRoomNotFound) || errors.Is(err, errNotInRoom) {
			h.unbind(c)
		}
		h.replyError(c, err)
	}
}

func (h *Hub) replyError(c *Connection, err error) {
	payload := errorPayload{Code: game.CodeOf(err), Message: "internal error"}

	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		payload.Message = gameErr.Message
		h.logger.Debug("拒絕動作", "conn_id", c.ID, "code", payload.Code)
	} else {
		h.logger.Error("處理動作失敗", "conn_id", c.ID, "error", err)
	}

	h.reply(c, EventError, payload)
}

// decode 解析動作參數，沒有參數時保留零值
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errBadRequest
	}
	return nil
}

// member 取得連線目前的房間與玩家名稱
func (h *Hub) member(c *Connection) (roomID, playerName string, err error) {
	roomID, playerName, bound := h.identity(c)
	if !bound {
		return "", "", errNotInRoom
	}
	return roomID, playerName, nil
}

// do 在房間鎖內執行動作，先確認連線仍坐在這個座位上且玩家仍在名單中
func (h *Hub) do(c *Connection, roomID, playerName string, fn func(s *game.Session) error) error {
	return h.manager.Do(roomID, func(s *game.Session) error {
		if !h.seated(c, roomID, playerName) {
			return errNotInRoom
		}
		if _, ok := s.Player(playerName); !ok {
			return errNotInRoom
		}
		return fn(s)
	})
}

// checkText 所有自由輸入的文字都受同一個長度上限
func checkText(texts ...string) error {
	for _, t := range texts {
		if len(t) > maxTextLength {
			return errBadRequest
		}
	}
	return nil
}

func (h *Hub) createParty(c *Connection, data json.RawMessage) error {
	if _, _, bound := h.identity(c); bound {
		return errAlreadyInRoom
	}
	var req createPartyRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if err := checkText(req.PlayerName); err != nil {
		return err
	}

	roomID, roster, err := h.manager.CreateRoom(req.PlayerName)
	if err != nil {
		return err
	}
	h.bind(c, roomID, req.PlayerName)

	h.reply(c, EventPartyCreated, partyPayload{RoomID: roomID, Players: roster})
	h.publish(roomID, EventPartyCreated, partyPayload{RoomID: roomID, Players: roster})
	return nil
}

func (h *Hub) joinParty(c *Connection, data json.RawMessage) error {
	if _, _, bound := h.identity(c); bound {
		return errAlreadyInRoom
	}
	var req joinPartyRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if err := checkText(req.PlayerName); err != nil {
		return err
	}

	var payload playerChangePayload
	_, err := h.manager.JoinRoom(req.RoomID, req.PlayerName, func(s *game.Session) {
		h.bind(c, req.RoomID, req.PlayerName)

		roster := s.Roster()
		joined := partyPayload{RoomID: req.RoomID, Players: roster}
		// 牌局進行中加入：補上公開狀態，新玩家沒有手牌
		if s.GameActive {
			public := s.PublicView()
			joined.GameState = &public
		}
		payload = playerChangePayload{PlayerName: req.PlayerName, Players: roster}
		h.reply(c, EventPartyJoined, joined)
		h.broadcast(req.RoomID, EventPlayerJoined, payload, req.PlayerName)
	})
	if err != nil {
		return err
	}

	h.publish(req.RoomID, EventPlayerJoined, payload)
	return nil
}

func (h *Hub) leaveParty(c *Connection) error {
	roomID, name, bound := h.unbind(c)
	if !bound {
		return errNotInRoom
	}

	h.reply(c, EventPartyLeft, partyPayload{RoomID: roomID, Players: []game.PlayerSummary{}})
	h.leaveRoom(roomID, name)
	return nil
}

// leaveRoom 從 session 移除玩家並通知其他人（主動離開與斷線共用）
func (h *Hub) leaveRoom(roomID, playerName string) {
	roster, deleted, err := h.manager.LeaveRoom(roomID, playerName)
	if err != nil {
		// 房間可能已經過期清理
		h.logger.Debug("離開房間失敗", "room_id", roomID, "player", playerName, "error", err)
		return
	}
	if deleted {
		return
	}

	payload := playerChangePayload{PlayerName: playerName, Players: roster}
	h.broadcast(roomID, EventPlayerLeft, payload, "")
	h.publish(roomID, EventPlayerLeft, payload)
}

func (h *Hub) startGame(c *Connection) error {
	roomID, name, err := h.member(c)
	if err != nil {
		return err
	}

	var public game.PublicView
	err = h.do(c, roomID, name, func(s *game.Session) error {
		if err := s.StartGame(name); err != nil {
			return err
		}
		public = s.PublicView()
		// 每個人只拿到自己的手牌
		for player, view := range s.PrivateViews() {
			h.sendTo(roomID, player, EventGameStarted, gameStartedPayload{Hand: view.Hand, GameState: public})
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("牌局開始", "room_id", roomID, "players", len(public.Players))
	h.publish(roomID, EventGameStarted, gameStatePayload{GameState: public})
	return nil
}

func (h *Hub) playCard(c *Connection, data json.RawMessage) error {
	roomID, name, err := h.member(c)
	if err != nil {
		return err
	}
	var req playCardRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	var played cardPlayedPayload
	var result game.PlayResult
	err = h.do(c, roomID, name, func(s *game.Session) error {
		res, err := s.PlayCard(name, req.Card, req.declared())
		if err != nil {
			return err
		}
		result = res
		played = cardPlayedPayload{Player: name, Card: res.Card, GameState: s.PublicView()}

		h.broadcast(roomID, EventCardPlayed, played, "")
		if view, ok := s.PrivateView(name); ok {
			h.reply(c, EventHandUpdate, handPayload{Hand: view.Hand})
		}
		if res.Winner != "" {
			h.broadcast(roomID, EventPlayerWon, playerWonPayload{Winner: res.Winner, GameState: played.GameState}, "")
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.publish(roomID, EventCardPlayed, played)
	if result.Winner != "" {
		h.logger.Info("玩家獲勝", "room_id", roomID, "winner", result.Winner)
		h.publish(roomID, EventPlayerWon, playerWonPayload{Winner: result.Winner, GameState: played.GameState})
	}
	return nil
}

func (h *Hub) drawCard(c *Connection) error {
	roomID, name, err := h.member(c)
	if err != nil {
		return err
	}

	var public playerActionPayload
	err = h.do(c, roomID, name, func(s *game.Session) error {
		drawn, err := s.DrawCard(name)
		if err != nil {
			return err
		}
		view, _ := s.PrivateView(name)
		public = playerActionPayload{Player: name, GameState: s.PublicView()}

		// 抽到的牌只有自己看得到
		h.reply(c, EventCardDrawn, cardDrawnPayload{Card: drawn, Hand: view.Hand})
		h.broadcast(roomID, EventPlayerDrewCard, public, name)
		return nil
	})
	if err != nil {
		return err
	}

	h.publish(roomID, EventPlayerDrewCard, public)
	return nil
}

func (h *Hub) givePenalty(c *Connection, data json.RawMessage) error {
	roomID, name, err := h.member(c)
	if err != nil {
		return err
	}
	var req givePenaltyRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if err := checkText(req.Receiver, req.Reason); err != nil {
		return err
	}

	var payload penaltyPayload
	err = h.do(c, roomID, name, func(s *game.Session) error {
		res, err := s.GivePenalty(name, req.Receiver, req.Reason)
		if err != nil {
			return err
		}
		payload = penaltyPayload{Penalty: res.Penalty, CardGranted: res.Granted, GameState: s.PublicView()}

		h.broadcast(roomID, EventPenaltyGiven, payload, "")
		if res.Granted {
			view, _ := s.PrivateView(req.Receiver)
			h.sendTo(roomID, req.Receiver, EventHandUpdate, handPayload{Hand: view.Hand})
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.publish(roomID, EventPenaltyGiven, payload)
	return nil
}

func (h *Hub) callPointOfOrder(c *Connection) error {
	roomID, name, err := h.member(c)
	if err != nil {
		return err
	}

	var payload playerActionPayload
	err = h.do(c, roomID, name, func(s *game.Session) error {
		if err := s.CallPointOfOrder(name); err != nil {
			return err
		}
		payload = playerActionPayload{Player: name, GameState: s.PublicView()}
		h.broadcast(roomID, EventPointOfOrderCalled, payload, "")
		return nil
	})
	if err != nil {
		return err
	}

	h.publish(roomID, EventPointOfOrderCalled, payload)
	return nil
}

func (h *Hub) endPointOfOrder(c *Connection) error {
	roomID, name, err := h.member(c)
	if err != nil {
		return err
	}

	var payload playerActionPayload
	err = h.do(c, roomID, name, func(s *game.Session) error {
		s.EndPointOfOrder()
		payload = playerActionPayload{Player: name, GameState: s.PublicView()}
		h.broadcast(roomID, EventPointOfOrderEnded, payload, "")
		return nil
	})
	if err != nil {
		return err
	}

	h.publish(roomID, EventPointOfOrderEnded, payload)
	return nil
}

func (h *Hub) addNewRule(c *Connection, data json.RawMessage) error {
	roomID, name, err := h.member(c)
	if err != nil {
		return err
	}
	var req addRuleRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if err := checkText(req.Rule); err != nil {
		return err
	}

	var payload rulePayload
	err = h.do(c, roomID, name, func(s *game.Session) error {
		// 規則內容不公開，只通知數量
		payload = rulePayload{Creator: name, RuleCount: s.AddCustomRule(name, req.Rule)}
		h.broadcast(roomID, EventNewRuleAdded, payload, "")
		return nil
	})
	if err != nil {
		return err
	}

	h.publish(roomID, EventNewRuleAdded, payload)
	return nil
}

func (h *Hub) chatMessage(c *Connection, data json.RawMessage) error {
	roomID, name, err := h.member(c)
	if err != nil {
		return err
	}
	var req chatRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if err := checkText(req.Message); err != nil {
		return err
	}

	payload := chatPayload{Player: name, Message: req.Message, Timestamp: time.Now()}
	err = h.do(c, roomID, name, func(s *game.Session) error {
		if err := s.CanChat(); err != nil {
			return err
		}
		h.broadcast(roomID, EventChatMessage, payload, "")
		return nil
	})
	if err != nil {
		return err
	}

	h.publish(roomID, EventChatMessage, payload)
	return nil
}
