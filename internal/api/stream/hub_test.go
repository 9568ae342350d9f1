package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "console"})
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, originAllowed("", []string{"https://a.example"}))
	assert.True(t, originAllowed("https://a.example", []string{"https://a.example"}))
	assert.True(t, originAllowed("https://b.example", []string{"*"}))
	assert.False(t, originAllowed("https://b.example", []string{"https://a.example"}))
}

func TestHubBroadcastsCommittedEvents(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, []string{"*"}, testLogger(), w, r)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub a moment to register the client.
	require.Eventually(t, func() bool {
		hub.BroadcastEvent(contracts.Event{
			EventType:   contracts.EventFundFlow,
			TargetIndex: "csi300",
			Title:       "北向资金大幅流入 62.10亿",
			Importance:  3,
		})

		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return false
		}

		var msg struct {
			Type string          `json:"type"`
			Data contracts.Event `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "event", msg.Type)
		assert.Equal(t, "csi300", msg.Data.TargetIndex)
		return true
	}, 2*time.Second, 50*time.Millisecond)
}
