// Package maocardgame 是多人 Mao 紙牌遊戲的即時伺服器。
//
// Mao 的規則大多不說出口：伺服器只強制最基本的出牌規則
// （同花色、同點數、J 萬用並可宣告花色），其餘靠玩家互相罰牌。
//
// # 牌局引擎
//
// internal/game 是權威狀態機：
//   - 一副 52 張牌，抽牌堆 + 棄牌堆 + 所有手牌永遠剛好 52 張
//   - 每個操作要嘛完整套用，要嘛回傳錯誤且不改變狀態
//   - 公開視圖與私有視圖分開，手牌只會送到本人
//
// # 房間管理
//
// internal/room 管理 6 碼房間代碼到 session 的對應：
//   - 同一房間的操作在房間鎖內依序執行
//   - 玩家走光立即刪除房間
//   - 定期清理超過存活時間的房間
//
// # 即時通訊
//
// internal/transport 使用 WebSocket（/ws）：
//   - 客戶端送 {"type": 動作, "data": 參數}
//   - 伺服器推送 {"event": 事件, "data": 內容}
//   - Ping/Pong 心跳（54s/60s），斷線等同離開房間
//   - 錯誤只回給發出動作的連線
//
// HTTP 端點：
//   - GET /：服務狀態
//   - GET /health：健康檢查
//   - GET /stats：房間數與玩家數
//   - GET /api/v1/rooms/{room_id}：房間公開狀態
//
// # 對外事件
//
// 設定 NATS 後（internal/events），公開事件會發布到
// <prefix>.rooms.<roomId>.<event>，手牌永遠不會出現在事件裡。
//
// # 配置
//
// 預設值 → YAML 檔（-config）→ 環境變數 → 命令列參數：
//   - -config：YAML 配置檔路徑
//   - -port：服務監聽端口（預設 3001，環境變數 PORT）
//   - -log-level：日誌級別（debug/info/warn/error）
//   - -log-format：日誌格式（text/json）
//
// 啟動服務器：
//
//	go run ./cmd/server -config config.yaml
//
// 客戶端連接：
//
//	ws := new WebSocket("ws://localhost:3001/ws")
//	ws.send(JSON.stringify({type: "createParty", data: {playerName: "alice"}}))
package maocardgame
