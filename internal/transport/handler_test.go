package transport_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/system-design/14-mao-card-game/internal/transport"
)

func getJSON(t *testing.T, f *fixture, path string, header http.Header) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), "body: %s", body)
	return resp, out
}

// TestHandler_Status 測試狀態與統計端點
func TestHandler_Status(t *testing.T) {
	f := newFixture(t)
	setupRoom(t, f)

	tests := []struct {
		name     string
		path     string
		validate func(t *testing.T, body map[string]any)
	}{
		{
			name: "index",
			path: "/",
			validate: func(t *testing.T, body map[string]any) {
				assert.NotEmpty(t, body["message"])
				assert.Equal(t, float64(1), body["activeGames"])
				assert.Equal(t, float64(2), body["activePlayers"])
			},
		},
		{
			name: "health",
			path: "/health",
			validate: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "healthy", body["status"])
			},
		},
		{
			name: "stats",
			path: "/stats",
			validate: func(t *testing.T, body map[string]any) {
				assert.Equal(t, float64(1), body["activeGames"])
				assert.Equal(t, float64(2), body["activePlayers"])
				assert.Equal(t, float64(2), body["activeConnections"])
				assert.NotEmpty(t, body["timestamp"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := getJSON(t, f, tt.path, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			tt.validate(t, body)
		})
	}
}

// TestHandler_GetRoom 房間公開狀態不含手牌
func TestHandler_GetRoom(t *testing.T) {
	f := newFixture(t)
	roomID, alice, bob := setupRoom(t, f)
	startGame(t, alice, bob)

	resp, body := getJSON(t, f, "/api/v1/rooms/"+roomID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, roomID, body["roomId"])
	assert.Equal(t, true, body["gameActive"])
	assert.Equal(t, "alice", body["currentPlayer"])
	assert.NotContains(t, body, "deck")

	players, ok := body["players"].([]any)
	require.True(t, ok)
	require.Len(t, players, 2)
	for _, p := range players {
		summary := p.(map[string]any)
		assert.NotContains(t, summary, "hand")
		assert.Equal(t, float64(4), summary["cardCount"])
	}

	t.Run("not found", func(t *testing.T) {
		resp, body := getJSON(t, f, "/api/v1/rooms/NOPE00", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "RoomNotFound", body["code"])
	})
}

// TestHandler_CORS 只回應允許的來源
func TestHandler_CORS(t *testing.T) {
	f := newFixture(t)

	resp, _ := getJSON(t, f, "/health", http.Header{"Origin": []string{allowedOrigin}})
	assert.Equal(t, allowedOrigin, resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = getJSON(t, f, "/health", http.Header{"Origin": []string{"https://evil.example"}})
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

// TestHandler_WebSocketRoute 確認 /ws 可以升級
func TestHandler_WebSocketRoute(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	// 沒有 Upgrade 標頭的一般請求
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(f.server.URL + "/unknown")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ws := f.dial(t)
	send(t, ws, transport.ActionPing, nil)
	assert.Equal(t, transport.EventPong, next(t, ws).Event)
}
