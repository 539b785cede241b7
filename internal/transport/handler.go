package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/koopa0/system-design/14-mao-card-game/internal/game"
	"github.com/koopa0/system-design/14-mao-card-game/internal/room"
)

// Handler HTTP 請求處理器
type Handler struct {
	manager *room.Manager
	hub     *Hub
	logger  *slog.Logger
	origins map[string]bool
}

// NewHandler 創建 HTTP 處理器
func NewHandler(manager *room.Manager, hub *Hub, logger *slog.Logger, allowedOrigins []string) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Handler{
		manager: manager,
		hub:     hub,
		logger:  logger,
		origins: origins,
	}
}

// Routes 設定路由
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	wrap := func(handler http.HandlerFunc) http.HandlerFunc {
		return h.recoverer(h.loggerMiddleware(h.cors(handler)))
	}

	mux.HandleFunc("GET /{$}", wrap(h.index))
	mux.HandleFunc("GET /health", wrap(h.health))
	mux.HandleFunc("GET /stats", wrap(h.stats))
	mux.HandleFunc("GET /api/v1/rooms/{room_id}", wrap(h.getRoom))

	// WebSocket 不經過 loggerMiddleware：包裝後的 ResponseWriter 不支援 Hijack
	mux.HandleFunc("GET /ws", h.recoverer(h.hub.ServeWS))

	return mux
}

// index 服務狀態
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, map[string]any{
		"message":       "Mao game server is running",
		"activeGames":   h.manager.Count(),
		"activePlayers": h.hub.PlayerCount(),
	}, http.StatusOK)
}

// health 健康檢查
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, map[string]any{
		"status": "healthy",
		"time":   time.Now().Unix(),
	}, http.StatusOK)
}

// stats 統計資訊
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, map[string]any{
		"activeGames":       h.manager.Count(),
		"activePlayers":     h.hub.PlayerCount(),
		"activeConnections": h.hub.ConnectionCount(),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// getRoom 房間的公開狀態（不含任何手牌）
func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")

	var view game.PublicView
	err := h.manager.Do(roomID, func(s *game.Session) error {
		view = s.PublicView()
		return nil
	})
	if err != nil {
		h.errorResponse(w, err, http.StatusNotFound)
		return
	}

	h.jsonResponse(w, view, http.StatusOK)
}

// jsonResponse 返回 JSON 響應
func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("編碼 JSON 失敗", "error", err)
	}
}

// errorResponse 返回錯誤響應，格式與 WebSocket 的 error 事件一致
func (h *Handler) errorResponse(w http.ResponseWriter, err error, status int) {
	h.jsonResponse(w, map[string]any{
		"code":    game.CodeOf(err),
		"message": err.Error(),
	}, status)
}

// cors 只對允許的來源回 Access-Control-Allow-Origin
func (h *Handler) cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && (h.origins["*"] || h.origins[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		next(w, r)
	}
}

// loggerMiddleware 日誌中間件
func (h *Handler) loggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next(ww, r)

		h.logger.Info("HTTP 請求",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.statusCode,
			"duration", time.Since(start))
	}
}

// recoverer panic 恢復中間件
func (h *Handler) recoverer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.logger.Error("處理請求時發生 panic",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path)

				h.jsonResponse(w, map[string]any{
					"code":    "Internal",
					"message": "internal server error",
				}, http.StatusInternalServerError)
			}
		}()

		next(w, r)
	}
}

// responseWriter 包裝 ResponseWriter 以獲取狀態碼
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
