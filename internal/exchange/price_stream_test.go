package exchange

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newFeedServer 启动一个WebSocket测试服务端，handler 在连接升级后接管。
func newFeedServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestPriceFeedLatestFromTradeStream(t *testing.T) {
	srv := newFeedServer(t, func(conn *websocket.Conn) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"p":"123.45"}`)))
		// 保持连接直到客户端断开
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	f := NewPriceFeed(wsURL(srv), "BTCUSDT", zap.NewNop().Sugar())
	f.Start()
	defer f.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if price, ok := f.Latest(); ok {
			assert.Equal(t, 123.45, price)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("未在期限内收到成交价")
}

func TestPriceFeedStopIsPromptOnQuietStream(t *testing.T) {
	connected := make(chan struct{})
	srv := newFeedServer(t, func(conn *websocket.Conn) {
		close(connected)
		// 一条消息都不发：客户端的 ReadMessage 会一直阻塞
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	f := NewPriceFeed(wsURL(srv), "BTCUSDT", zap.NewNop().Sugar())
	f.Start()

	select {
	case <-connected:
	case <-time.After(3 * time.Second):
		t.Fatal("价格流未能连接到测试服务端")
	}

	start := time.Now()
	f.Stop()
	assert.Less(t, time.Since(start), 2*time.Second,
		"安静的流上停止必须立即返回，而不是等到读超时")
}

func TestPriceFeedLatestStaleWithoutData(t *testing.T) {
	f := NewPriceFeed("ws://127.0.0.1:1", "BTCUSDT", zap.NewNop().Sugar())
	_, ok := f.Latest()
	assert.False(t, ok)
}
