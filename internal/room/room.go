package room

import (
	"sync"

	"github.com/koopa0/system-design/14-mao-card-game/internal/game"
)

// Room 一個房間：一個 session 加上它的互斥鎖
//
// 系統設計考量：
//
//  1. 每房一把鎖（sync.Mutex）：
//     問題：多條連線同時對同一局出牌、抽牌、罰牌
//     方案：同一房間的操作一次只套用一個，依取得鎖的順序
//     不同房間完全獨立，互不等待
//
//  2. closed 旗標：
//     房間被刪除（玩家走光 / 過期）時先在鎖內標記，
//     之後拿到鎖的操作看到 closed 就當作房間不存在，
//     清理流程不會和進行中的操作互相破壞
type Room struct {
	mu      sync.Mutex
	session *game.Session
	closed  bool
}

func newRoom(s *game.Session) *Room {
	return &Room{session: s}
}

// with 在鎖內執行 fn，房間已關閉時回傳 ErrRoomNotFound
func (r *Room) with(fn func(s *game.Session) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return game.ErrRoomNotFound
	}
	return fn(r.session)
}
