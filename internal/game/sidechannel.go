package game

// PenaltyResult 罰牌結果
type PenaltyResult struct {
	Penalty Penalty
	Granted bool // 是否真的發出一張牌
}

// GivePenalty 罰一張牌給 receiver
//
// 抽牌堆空時先嘗試從棄牌堆洗回；仍然沒牌時只記錄罰則、不發牌，
// 操作依然成功（Granted=false）。牌局未進行時牌都還在盒子裡，同樣只記錄。
func (s *Session) GivePenalty(giver, receiver, reason string) (PenaltyResult, error) {
	p, ok := s.Player(receiver)
	if !ok {
		return PenaltyResult{}, ErrPlayerNotFound
	}

	granted := false
	if s.GameActive {
		if len(s.Deck) == 0 {
			s.reshuffle()
		}
		if len(s.Deck) > 0 {
			p.Hand = append(p.Hand, s.pop())
			granted = true
		}
	}

	penalty := Penalty{
		Giver:     giver,
		Receiver:  receiver,
		Reason:    reason,
		Timestamp: s.now(),
	}
	s.PenaltyLog = append(s.PenaltyLog, penalty)

	return PenaltyResult{Penalty: penalty, Granted: granted}, nil
}

// CallPointOfOrder 發起 point of order，暫停禁言
func (s *Session) CallPointOfOrder(caller string) error {
	if s.PointOfOrderActive {
		return ErrAlreadyActive
	}

	s.PointOfOrderActive = true
	s.PointOfOrderCaller = caller
	s.ChatMuted = false
	return nil
}

// EndPointOfOrder 結束 point of order（冪等）
//
// 牌局進行中恢復禁言；大廳本來就不禁言。
func (s *Session) EndPointOfOrder() {
	s.PointOfOrderActive = false
	s.PointOfOrderCaller = ""
	s.ChatMuted = s.GameActive
}

// AddCustomRule 新增自訂規則，回傳目前規則數
func (s *Session) AddCustomRule(creator, rule string) int {
	s.CustomRules = append(s.CustomRules, CustomRule{
		Creator:   creator,
		Rule:      rule,
		Timestamp: s.now(),
	})
	return len(s.CustomRules)
}

// CanChat 禁言且沒有 point of order 時拒絕聊天
func (s *Session) CanChat() error {
	if s.ChatMuted && !s.PointOfOrderActive {
		return ErrChatMuted
	}
	return nil
}
