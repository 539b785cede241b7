// Package events 把公開的牌局事件發布到外部（NATS）。
//
// 只發布所有玩家都看得到的資訊：手牌永遠不會出現在事件裡。
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Event 公開牌局事件
type Event struct {
	Type      string    `json:"event"`
	RoomID    string    `json:"roomId"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher 事件發布者
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop 不發布任何事件（未設定 NATS 時使用）
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Config NATS 配置
type Config struct {
	URL           string
	SubjectPrefix string
	Name          string
}

// NATSPublisher 使用 core NATS 發布事件
//
// 設計考量：
//   - 事件是通知性質（統計、觀戰牆、稽核），不需要 JetStream 持久化
//   - 自動重連：NATS 斷線不影響牌局本身，發布失敗只記錄日誌
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher 連線 NATS
func NewNATSPublisher(cfg Config, logger *slog.Logger) (*NATSPublisher, error) {
	name := cfg.Name
	if name == "" {
		name = "mao-server"
	}

	conn, err := nats.Connect(
		cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS 連線中斷", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS 已重新連線", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &NATSPublisher{
		conn:   conn,
		prefix: cfg.SubjectPrefix,
		logger: logger,
	}, nil
}

// Publish 發布事件到 <prefix>.rooms.<roomId>.<event>
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(Subject(p.prefix, e), data); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Close 送出緩衝中的訊息後關閉連線
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}

// Subject 事件主題
func Subject(prefix string, e Event) string {
	if prefix == "" {
		prefix = "mao"
	}
	return fmt.Sprintf("%s.rooms.%s.%s", prefix, e.RoomID, e.Type)
}

// Recorder 把事件留在記憶體（測試用）
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events 目前收到的事件
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
